// Package view decides which rating, bucket and color a zone displays given
// the active local-view modes.
package view

import (
	"github.com/sells-group/hotspot-cli/internal/geo"
	"github.com/sells-group/hotspot-cli/internal/rating"
	"github.com/sells-group/hotspot-cli/internal/zone"
)

// Modes are the display toggles. Their persistence belongs to the UI; the
// resolver only receives the current values.
type Modes struct {
	Island bool `json:"island" yaml:"island"`
	Urban  bool `json:"urban" yaml:"urban"`
}

// Layer pairs a local rule with the annotations it produced for one frame.
type Layer struct {
	Rule        rating.Rule
	Annotations rating.Annotations
}

// Resolver applies the precedence island-local, then urban-local, then
// global. It holds only per-frame side-tables and never mutates zones.
type Resolver struct {
	island    Layer
	urban     Layer
	centroids map[string]geo.Point
}

// NewResolver creates a resolver over one frame's side-tables.
func NewResolver(island, urban Layer, centroids map[string]geo.Point) *Resolver {
	return &Resolver{island: island, urban: urban, centroids: centroids}
}

// local returns the annotation that takes precedence for z, if any.
func (r *Resolver) local(z zone.Zone, m Modes) (rating.Annotation, bool) {
	if m.Island && r.island.Rule.Contains(z, r.centroids) {
		if a, ok := r.island.Annotations.Get(z.ID); ok {
			return a, true
		}
	}
	if m.Urban && r.urban.Rule.Contains(z, r.centroids) {
		if a, ok := r.urban.Annotations.Get(z.ID); ok {
			return a, true
		}
	}
	return rating.Annotation{}, false
}

// Rating returns the effective rating and whether one is present.
func (r *Resolver) Rating(z zone.Zone, m Modes) (int, bool) {
	if a, ok := r.local(z, m); ok {
		return a.Rating, true
	}
	return z.GlobalRating()
}

// Bucket returns the effective bucket.
func (r *Resolver) Bucket(z zone.Zone, m Modes) zone.Bucket {
	if a, ok := r.local(z, m); ok {
		return a.Bucket
	}
	return z.Bucket
}

// Color returns the effective display color.
func (r *Resolver) Color(z zone.Zone, m Modes) string {
	if a, ok := r.local(z, m); ok {
		return a.Color
	}
	return z.Bucket.Color()
}

// IsLocal reports whether z currently displays a local value.
func (r *Resolver) IsLocal(z zone.Zone, m Modes) bool {
	_, ok := r.local(z, m)
	return ok
}

// Centroid returns the zone's representative point from the side-table.
func (r *Resolver) Centroid(z zone.Zone) (geo.Point, bool) {
	p, ok := r.centroids[z.ID]
	return p, ok
}

// Effective is the resolved display state of one zone.
type Effective struct {
	ZoneID string      `json:"zone_id"`
	Rating *int        `json:"rating,omitempty"`
	Bucket zone.Bucket `json:"bucket,omitempty"`
	Color  string      `json:"color,omitempty"`
	Local  bool        `json:"local"`
}

// Resolve returns the effective state for z under m.
func (r *Resolver) Resolve(z zone.Zone, m Modes) Effective {
	e := Effective{
		ZoneID: z.ID,
		Bucket: r.Bucket(z, m),
		Color:  r.Color(z, m),
		Local:  r.IsLocal(z, m),
	}
	if v, ok := r.Rating(z, m); ok {
		e.Rating = &v
	}
	return e
}
