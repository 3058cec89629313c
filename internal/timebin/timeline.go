package timebin

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/hotspot-cli/internal/zone"
)

// ErrEmptyTimeline means no frame can ever be selected.
var ErrEmptyTimeline = eris.New("timebin: empty timeline")

// labelLayout renders bin labels such as "Mon 8:20 AM".
const labelLayout = "Mon 3:04 PM"

// Timeline is the static weekly schedule of frame timestamps.
type Timeline struct {
	times   []time.Time
	minutes []int
	loc     *time.Location
}

// NewTimeline parses naive timestamps in loc.
func NewTimeline(raw []string, loc *time.Location) (*Timeline, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyTimeline
	}
	if loc == nil {
		loc = time.UTC
	}
	tl := &Timeline{
		times:   make([]time.Time, 0, len(raw)),
		minutes: make([]int, 0, len(raw)),
		loc:     loc,
	}
	for i, s := range raw {
		t, err := zone.ParseTimestamp(s, loc)
		if err != nil {
			return nil, eris.Wrapf(err, "timebin: timeline entry %d", i)
		}
		tl.times = append(tl.times, t)
		tl.minutes = append(tl.minutes, MinuteOfWeek(t))
	}
	return tl, nil
}

// Len returns the number of bins.
func (t *Timeline) Len() int {
	return len(t.times)
}

// Location returns the home timezone.
func (t *Timeline) Location() *time.Location {
	return t.loc
}

// Time returns the timestamp of bin i.
func (t *Timeline) Time(i int) time.Time {
	return t.times[i]
}

// Minutes returns the minute-of-week of every bin.
func (t *Timeline) Minutes() []int {
	return t.minutes
}

// Label formats bin i for display in the home timezone.
func (t *Timeline) Label(i int) string {
	return t.times[i].In(t.loc).Format(labelLayout)
}

// Valid reports whether i addresses a bin.
func (t *Timeline) Valid(i int) bool {
	return i >= 0 && i < len(t.times)
}

// IndexAt resolves the bin for a wall-clock instant: converted to the home
// timezone, floored to the bin width, then matched cyclically.
func (t *Timeline) IndexAt(now time.Time) int {
	target := FloorToBin(MinuteOfWeek(now.In(t.loc)), BinMinutes)
	return ClosestIndex(t.minutes, target)
}

// SameDay returns the absolute indices sharing current's weekday.
func (t *Timeline) SameDay(current int) []int {
	return SameDayIndices(t.minutes, current)
}

// FineIndex maps a position on the same-day control back to an absolute
// index.
func (t *Timeline) FineIndex(current, pos int) (int, bool) {
	day := t.SameDay(current)
	if pos < 0 || pos >= len(day) {
		return 0, false
	}
	return day[pos], true
}
