package rating

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/sells-group/hotspot-cli/internal/geo"
	"github.com/sells-group/hotspot-cli/internal/zone"
)

// Annotation is a local rating with its derived bucket and color.
type Annotation struct {
	Rating int         `json:"rating"`
	Bucket zone.Bucket `json:"bucket"`
	Color  string      `json:"color"`
}

// NewAnnotation derives bucket and color from a local rating.
func NewAnnotation(rating int) Annotation {
	b := zone.BucketFor(rating)
	return Annotation{Rating: rating, Bucket: b, Color: b.Color()}
}

// Annotations maps zone ID to its local annotation. A missing key means the
// annotation is absent. Tables are rebuilt per frame and never merged.
type Annotations map[string]Annotation

// Get returns the annotation for a zone ID.
func (a Annotations) Get(id string) (Annotation, bool) {
	if a == nil {
		return Annotation{}, false
	}
	v, ok := a[id]
	return v, ok
}

// Signal extracts one weighted numeric input from a zone.
type Signal struct {
	Name   string
	Weight float64
	Value  func(z zone.Zone) (float64, bool)
}

// Rule is a percentile-and-remap routine over one subset of zones. Each
// signal is ranked against its own subset distribution, the percentiles are
// blended by weight, mapped to 1+99*score, scaled by Factor and clamped.
type Rule struct {
	Name       string
	Member     func(z zone.Zone, centroid geo.Point, hasCentroid bool) bool
	Signals    []Signal
	MinSamples int
	Factor     float64
}

// Contains reports whether z belongs to the rule's subset.
func (r Rule) Contains(z zone.Zone, centroids map[string]geo.Point) bool {
	if r.Member == nil {
		return false
	}
	c, ok := centroids[z.ID]
	return r.Member(z, c, ok)
}

// Annotate builds the local annotation table for zones. It returns an empty
// table when any signal has fewer than MinSamples valid values in the subset.
func (r Rule) Annotate(zones []zone.Zone, centroids map[string]geo.Point) Annotations {
	out := Annotations{}
	if len(r.Signals) == 0 {
		return out
	}

	members := make([]zone.Zone, 0, len(zones))
	for _, z := range zones {
		if r.Contains(z, centroids) {
			members = append(members, z)
		}
	}

	rankers := make([]*Ranker, len(r.Signals))
	for i, s := range r.Signals {
		samples := make([]float64, 0, len(members))
		for _, z := range members {
			if v, ok := s.Value(z); ok {
				samples = append(samples, v)
			}
		}
		if len(samples) < r.MinSamples {
			return Annotations{}
		}
		rankers[i] = NewRanker(samples)
	}

	factor := r.Factor
	if factor == 0 {
		factor = 1
	}

	for _, z := range members {
		score, ok := r.score(z, rankers)
		if !ok {
			continue
		}
		out[z.ID] = NewAnnotation(zone.ClampRating((1 + 99*score) * factor))
	}
	return out
}

func (r Rule) score(z zone.Zone, rankers []*Ranker) (float64, bool) {
	var score float64
	for i, s := range r.Signals {
		v, ok := s.Value(z)
		if !ok {
			return 0, false
		}
		score += s.Weight * rankers[i].Percentile(v)
	}
	return clamp01(score), true
}

// BoroughMatcher returns a case-insensitive substring matcher on borough
// names using Unicode case folding.
func BoroughMatcher(name string) func(borough string) bool {
	needle := cases.Fold().String(strings.TrimSpace(name))
	return func(borough string) bool {
		if needle == "" {
			return false
		}
		return strings.Contains(cases.Fold().String(borough), needle)
	}
}

// RatingSignal reads the global rating.
func RatingSignal(weight float64) Signal {
	return Signal{Name: "rating", Weight: weight, Value: func(z zone.Zone) (float64, bool) {
		r, ok := z.GlobalRating()
		return float64(r), ok
	}}
}

// PaySignal reads the average driver pay.
func PaySignal(weight float64) Signal {
	return Signal{Name: "pay", Weight: weight, Value: func(z zone.Zone) (float64, bool) {
		return deref(z.AvgDriverPay)
	}}
}

// VolumeSignal reads the pickup count.
func VolumeSignal(weight float64) Signal {
	return Signal{Name: "volume", Weight: weight, Value: func(z zone.Zone) (float64, bool) {
		return deref(z.Pickups)
	}}
}

func deref(v *float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}
