package rating

import (
	"github.com/sells-group/hotspot-cli/internal/geo"
	"github.com/sells-group/hotspot-cli/internal/zone"
)

// Defaults for the two local-view modes.
const (
	DefaultIslandBorough    = "Staten Island"
	DefaultIslandMinSamples = 3

	DefaultUrbanBorough     = "Manhattan"
	DefaultUrbanMaxLatitude = 40.8000
	DefaultUrbanMinSamples  = 10
	DefaultUrbanPayWeight   = 0.60
	DefaultUrbanVolWeight   = 0.40
	DefaultUrbanDampening   = 0.95
)

// IslandOptions configures the island-local rule.
type IslandOptions struct {
	Borough    string
	MinSamples int
}

// UrbanOptions configures the core-urban rule.
type UrbanOptions struct {
	Borough      string
	MaxLatitude  float64
	MinSamples   int
	PayWeight    float64
	VolumeWeight float64
	Dampening    float64
}

// DefaultIslandOptions returns the island defaults.
func DefaultIslandOptions() IslandOptions {
	return IslandOptions{Borough: DefaultIslandBorough, MinSamples: DefaultIslandMinSamples}
}

// DefaultUrbanOptions returns the core-urban defaults.
func DefaultUrbanOptions() UrbanOptions {
	return UrbanOptions{
		Borough:      DefaultUrbanBorough,
		MaxLatitude:  DefaultUrbanMaxLatitude,
		MinSamples:   DefaultUrbanMinSamples,
		PayWeight:    DefaultUrbanPayWeight,
		VolumeWeight: DefaultUrbanVolWeight,
		Dampening:    DefaultUrbanDampening,
	}
}

// IslandRule ranks island zones by global rating against the island alone.
func IslandRule(opts IslandOptions) Rule {
	match := BoroughMatcher(opts.Borough)
	return Rule{
		Name: "island",
		Member: func(z zone.Zone, _ geo.Point, _ bool) bool {
			return match(z.Borough)
		},
		Signals:    []Signal{RatingSignal(1)},
		MinSamples: opts.MinSamples,
		Factor:     1,
	}
}

// UrbanRule blends pay and volume percentiles for core-urban zones whose
// centroid lies at or south of MaxLatitude. Zones without a centroid are
// outside the band.
func UrbanRule(opts UrbanOptions) Rule {
	match := BoroughMatcher(opts.Borough)
	return Rule{
		Name: "urban",
		Member: func(z zone.Zone, c geo.Point, hasCentroid bool) bool {
			return hasCentroid && c.Lat <= opts.MaxLatitude && match(z.Borough)
		},
		Signals:    []Signal{PaySignal(opts.PayWeight), VolumeSignal(opts.VolumeWeight)},
		MinSamples: opts.MinSamples,
		Factor:     opts.Dampening,
	}
}
