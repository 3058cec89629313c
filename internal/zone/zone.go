// Package zone defines the taxi-zone frame model: zones, their global ratings
// and demand buckets, and frames that group every zone for one time bin.
package zone

import (
	"math"
	"strings"
	"time"

	"github.com/twpayne/go-geom"
)

// Rating bounds shared by global and local ratings.
const (
	MinRating = 1
	MaxRating = 100
)

// Zone is one geographic area within a frame. Optional numeric fields are nil
// when the upstream value is missing or invalid.
type Zone struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Borough      string   `json:"borough"`
	Geometry     geom.T   `json:"-"`
	Rating       *int     `json:"rating,omitempty"`
	Bucket       Bucket   `json:"bucket"`
	Pickups      *float64 `json:"pickups,omitempty"`
	AvgDriverPay *float64 `json:"avg_driver_pay,omitempty"`
	AvgTips      *float64 `json:"avg_tips,omitempty"`
}

// GlobalRating returns the upstream rating and whether it is present.
func (z Zone) GlobalRating() (int, bool) {
	if z.Rating == nil {
		return 0, false
	}
	return *z.Rating, true
}

// MarkerTag classifies a marker as one of the busiest or quietest zones of
// the week.
type MarkerTag string

const (
	MarkerGood MarkerTag = "GOOD"
	MarkerBad  MarkerTag = "BAD"
)

// ParseMarkerTag normalizes a wire tag. Anything other than GOOD is BAD.
func ParseMarkerTag(s string) MarkerTag {
	if strings.EqualFold(strings.TrimSpace(s), string(MarkerGood)) {
		return MarkerGood
	}
	return MarkerBad
}

// Marker is a point annotation placed at a highlighted zone's centroid.
type Marker struct {
	Tag          MarkerTag `json:"tag"`
	Lat          float64   `json:"lat"`
	Lng          float64   `json:"lng"`
	Zone         string    `json:"zone"`
	Borough      string    `json:"borough"`
	Color        string    `json:"color,omitempty"`
	Rating       *int      `json:"rating"`
	Pickups      *float64  `json:"pickups"`
	AvgDriverPay *float64  `json:"avg_driver_pay"`
	AvgTips      *float64  `json:"avg_tips"`
}

// Frame is the full set of zones for one 20-minute bin. Frames are treated
// as immutable once decoded; derived data lives in side-tables keyed by
// zone ID, which is unique within a frame.
type Frame struct {
	Time    time.Time `json:"time"`
	Zones   []Zone    `json:"zones"`
	Markers []Marker  `json:"markers"`
}

// Len returns the number of zones in the frame.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Zones)
}

// ClampRating rounds v half away from zero and clamps it into [MinRating, MaxRating].
func ClampRating(v float64) int {
	r := int(math.Round(v))
	if r < MinRating {
		return MinRating
	}
	if r > MaxRating {
		return MaxRating
	}
	return r
}
