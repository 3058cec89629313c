package hotspot

import (
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/hotspot-cli/internal/geo"
	"github.com/sells-group/hotspot-cli/internal/rating"
	"github.com/sells-group/hotspot-cli/internal/recommend"
	"github.com/sells-group/hotspot-cli/internal/view"
	"github.com/sells-group/hotspot-cli/internal/zone"
)

// Snapshot is one frame with its derived side-tables. It is never mutated
// after construction.
type Snapshot struct {
	Index     int
	Frame     *zone.Frame
	Modes     view.Modes
	Centroids map[string]geo.Point
	Island    rating.Annotations
	Urban     rating.Annotations
	Resolver  *view.Resolver
	LoadID    uuid.UUID
	LoadedAt  time.Time
}

// ZoneView is a zone with its effective display state.
type ZoneView struct {
	Zone      zone.Zone
	Effective view.Effective
	Centroid  *geo.Point
}

// Views resolves every zone of the frame under the snapshot's modes.
func (s *Snapshot) Views() []ZoneView {
	out := make([]ZoneView, 0, s.Frame.Len())
	for _, z := range s.Frame.Zones {
		v := ZoneView{Zone: z, Effective: s.Resolver.Resolve(z, s.Modes)}
		if c, ok := s.Centroids[z.ID]; ok {
			v.Centroid = &c
		}
		out = append(out, v)
	}
	return out
}

// Recommend picks the best zone for a driver at loc.
func (s *Snapshot) Recommend(scorer *recommend.Scorer, loc *geo.Point) recommend.Recommendation {
	return scorer.Recommend(s.Frame.Zones, s.Resolver, s.Modes, loc)
}

// Counts tallies zones by effective bucket. Zones without a bucket are not
// counted.
func (s *Snapshot) Counts() map[zone.Bucket]int {
	out := make(map[zone.Bucket]int, len(zone.Buckets()))
	for _, z := range s.Frame.Zones {
		if b := s.Resolver.Bucket(z, s.Modes); b.Valid() {
			out[b]++
		}
	}
	return out
}
