// Package recommend picks the best nearby zone for a driver.
package recommend

import (
	"github.com/sells-group/hotspot-cli/internal/geo"
	"github.com/sells-group/hotspot-cli/internal/view"
	"github.com/sells-group/hotspot-cli/internal/zone"
)

// DefaultPenaltyPerMile is the rating points subtracted per mile of distance.
const DefaultPenaltyPerMile = 4.0

// Status distinguishes a recommendation from the two empty outcomes.
type Status string

const (
	StatusOK         Status = "ok"
	StatusNone       Status = "none"
	StatusNoLocation Status = "no_location"
)

// eligibleBuckets are the three highest-value buckets.
var eligibleBuckets = map[zone.Bucket]bool{
	zone.BucketGreen:  true,
	zone.BucketPurple: true,
	zone.BucketBlue:   true,
}

// Recommendation is the scorer's result. Zone fields are set only when
// Status is StatusOK; distance and score are always encoded since zero is a
// real distance.
type Recommendation struct {
	Status        Status      `json:"status" yaml:"status"`
	ZoneID        string      `json:"zone_id,omitempty" yaml:"zone_id,omitempty"`
	Name          string      `json:"name,omitempty" yaml:"name,omitempty"`
	Borough       string      `json:"borough,omitempty" yaml:"borough,omitempty"`
	Point         *geo.Point  `json:"point,omitempty" yaml:"point,omitempty"`
	Rating        int         `json:"rating,omitempty" yaml:"rating,omitempty"`
	Bucket        zone.Bucket `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	DistanceMiles float64     `json:"distance_miles" yaml:"distance_miles"`
	Score         float64     `json:"score" yaml:"score"`
}

// Resolver is the effective-view lookup the scorer needs.
type Resolver interface {
	Rating(z zone.Zone, m view.Modes) (int, bool)
	Bucket(z zone.Zone, m view.Modes) zone.Bucket
	Centroid(z zone.Zone) (geo.Point, bool)
}

// Scorer ranks zones by effective rating minus a distance penalty.
type Scorer struct {
	PenaltyPerMile float64
}

// NewScorer creates a Scorer. A non-positive penalty uses the default.
func NewScorer(penaltyPerMile float64) *Scorer {
	if penaltyPerMile <= 0 {
		penaltyPerMile = DefaultPenaltyPerMile
	}
	return &Scorer{PenaltyPerMile: penaltyPerMile}
}

// Recommend selects the eligible zone with the highest score. A nil location
// skips scoring entirely. Equal scores keep the first zone in iteration order.
func (s *Scorer) Recommend(zones []zone.Zone, res Resolver, m view.Modes, loc *geo.Point) Recommendation {
	if loc == nil {
		return Recommendation{Status: StatusNoLocation}
	}

	best := Recommendation{Status: StatusNone}
	found := false
	for _, z := range zones {
		if !eligibleBuckets[res.Bucket(z, m)] {
			continue
		}
		rating, ok := res.Rating(z, m)
		if !ok {
			continue
		}
		c, ok := res.Centroid(z)
		if !ok {
			continue
		}

		dist := geo.Haversine(*loc, c)
		score := float64(rating) - s.PenaltyPerMile*dist
		if found && !(score > best.Score) {
			continue
		}

		found = true
		point := c
		best = Recommendation{
			Status:        StatusOK,
			ZoneID:        z.ID,
			Name:          z.Name,
			Borough:       z.Borough,
			Point:         &point,
			Rating:        rating,
			Bucket:        res.Bucket(z, m),
			DistanceMiles: dist,
			Score:         score,
		}
	}
	return best
}
