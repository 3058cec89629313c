// Package timebin maps wall-clock time onto a weekly timeline of 20-minute
// frames and drives which frame is loaded.
package timebin

import "time"

// Week geometry.
const (
	MinutesPerDay  = 24 * 60
	MinutesPerWeek = 7 * MinutesPerDay
	BinMinutes     = 20
)

// MinuteOfWeek returns 0..10079 with Monday 00:00 = 0, using t's own
// location.
func MinuteOfWeek(t time.Time) int {
	day := (int(t.Weekday()) + 6) % 7
	return day*MinutesPerDay + t.Hour()*60 + t.Minute()
}

// FloorToBin floors a minute-of-week down to a bin boundary.
func FloorToBin(minute, bin int) int {
	if bin <= 0 {
		return minute
	}
	return minute - minute%bin
}

// CyclicDistance returns the distance between two minutes-of-week around the
// weekly wrap.
func CyclicDistance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if w := MinutesPerWeek - d; w < d {
		return w
	}
	return d
}

// ClosestIndex returns the index of the entry cyclically nearest to target.
// Ties keep the first entry. It returns -1 for an empty slice.
func ClosestIndex(minutes []int, target int) int {
	best, bestDist := -1, 0
	for i, m := range minutes {
		d := CyclicDistance(m, target)
		if best == -1 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// SameDayIndices returns, in order, the indices whose minute-of-week falls
// on the same weekday as minutes[current]. An out-of-range current yields nil.
func SameDayIndices(minutes []int, current int) []int {
	if current < 0 || current >= len(minutes) {
		return nil
	}
	day := minutes[current] / MinutesPerDay
	var out []int
	for i, m := range minutes {
		if m/MinutesPerDay == day {
			out = append(out, i)
		}
	}
	return out
}
