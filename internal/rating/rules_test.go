package rating

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/hotspot-cli/internal/geo"
	"github.com/sells-group/hotspot-cli/internal/zone"
)

func square(lng, lat float64) *geom.Polygon {
	const h = 0.005
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{lng - h, lat - h}, {lng + h, lat - h}, {lng + h, lat + h}, {lng - h, lat + h}, {lng - h, lat - h},
	}})
}

func intPtr(v int) *int { return &v }
func floatPtr(v float64) *float64 { return &v }

func islandZone(id string, rating *int) zone.Zone {
	return zone.Zone{ID: id, Borough: "Staten Island", Geometry: square(-74.15, 40.58), Rating: rating}
}

func TestIslandRule_Scenario(t *testing.T) {
	zones := []zone.Zone{
		islandZone("si-10", intPtr(10)),
		islandZone("si-20", intPtr(20)),
		islandZone("si-30", intPtr(30)),
		islandZone("si-40", intPtr(40)),
		islandZone("si-50", intPtr(50)),
		islandZone("si-none", nil),
		{ID: "mn", Borough: "Manhattan", Geometry: square(-73.99, 40.73), Rating: intPtr(70)},
	}
	ann := IslandRule(DefaultIslandOptions()).Annotate(zones, geo.Centroids(zones))

	got, ok := ann.Get("si-30")
	require.True(t, ok)
	assert.Equal(t, 51, got.Rating)
	assert.Equal(t, zone.BucketSky, got.Bucket)
	assert.Equal(t, zone.BucketSky.Color(), got.Color)

	lo, _ := ann.Get("si-10")
	hi, _ := ann.Get("si-50")
	assert.Equal(t, 1, lo.Rating)
	assert.Equal(t, 100, hi.Rating)

	_, ok = ann.Get("si-none")
	assert.False(t, ok, "missing rating stays absent")
	_, ok = ann.Get("mn")
	assert.False(t, ok, "non-member stays absent")
	assert.Len(t, ann, 5)
}

func TestIslandRule_CaseInsensitiveBorough(t *testing.T) {
	zones := []zone.Zone{
		{ID: "a", Borough: "STATEN ISLAND", Rating: intPtr(5)},
		{ID: "b", Borough: "staten island (north shore)", Rating: intPtr(15)},
		{ID: "c", Borough: "Staten Island", Rating: intPtr(25)},
	}
	ann := IslandRule(DefaultIslandOptions()).Annotate(zones, nil)
	assert.Len(t, ann, 3)
}

func TestIslandRule_InsufficientSamples(t *testing.T) {
	zones := []zone.Zone{
		islandZone("a", intPtr(10)),
		islandZone("b", intPtr(90)),
		islandZone("c", nil),
		{ID: "mn", Borough: "Manhattan", Rating: intPtr(50)},
	}
	ann := IslandRule(DefaultIslandOptions()).Annotate(zones, geo.Centroids(zones))
	assert.Empty(t, ann)
}

// urbanFixture builds 11 Manhattan zones south of the cutoff where zone i
// has pay i and pickups 10-i, so zone "mn-8" ranks 0.8 on pay and 0.2 on
// volume.
func urbanFixture() []zone.Zone {
	zones := make([]zone.Zone, 0, 13)
	for i := 0; i <= 10; i++ {
		zones = append(zones, zone.Zone{
			ID:           fmt.Sprintf("mn-%d", i),
			Borough:      "Manhattan",
			Geometry:     square(-73.99, 40.70+float64(i)*0.005),
			AvgDriverPay: floatPtr(float64(i)),
			Pickups:      floatPtr(float64(10 - i)),
		})
	}
	return zones
}

func TestUrbanRule_Scenario(t *testing.T) {
	zones := urbanFixture()
	ann := UrbanRule(DefaultUrbanOptions()).Annotate(zones, geo.Centroids(zones))

	got, ok := ann.Get("mn-8")
	require.True(t, ok)
	// 0.6*0.8 + 0.4*0.2 = 0.56 -> 56.44 -> *0.95 = 53.6 -> 54
	assert.Equal(t, 54, got.Rating)
	assert.Equal(t, zone.BucketSky, got.Bucket)
	assert.Len(t, ann, 11)
}

func TestUrbanRule_LatitudeCutoff(t *testing.T) {
	zones := urbanFixture()
	north := zone.Zone{
		ID:           "inwood",
		Borough:      "Manhattan",
		Geometry:     square(-73.92, 40.87),
		AvgDriverPay: floatPtr(1000),
		Pickups:      floatPtr(1000),
	}
	zones = append(zones, north)
	centroids := geo.Centroids(zones)

	rule := UrbanRule(DefaultUrbanOptions())
	assert.False(t, rule.Contains(north, centroids))

	ann := rule.Annotate(zones, centroids)
	_, ok := ann.Get("inwood")
	assert.False(t, ok)

	// The northern zone is not part of the reference sets either.
	got, _ := ann.Get("mn-8")
	assert.Equal(t, 54, got.Rating)
}

func TestUrbanRule_MissingCentroidIsOutsideBand(t *testing.T) {
	zones := urbanFixture()
	zones = append(zones, zone.Zone{ID: "nogeom", Borough: "Manhattan", AvgDriverPay: floatPtr(3), Pickups: floatPtr(3)})
	ann := UrbanRule(DefaultUrbanOptions()).Annotate(zones, geo.Centroids(zones))
	_, ok := ann.Get("nogeom")
	assert.False(t, ok)
}

func TestUrbanRule_MissingSignal(t *testing.T) {
	zones := urbanFixture()
	zones = append(zones, zone.Zone{ID: "nopay", Borough: "Manhattan", Geometry: square(-73.98, 40.75), Pickups: floatPtr(4)})
	ann := UrbanRule(DefaultUrbanOptions()).Annotate(zones, geo.Centroids(zones))
	_, ok := ann.Get("nopay")
	assert.False(t, ok)
	assert.Len(t, ann, 11)
}

func TestUrbanRule_InsufficientSamplesPerSignal(t *testing.T) {
	zones := urbanFixture()
	// Drop pay from two zones: 9 pay samples, 11 volume samples.
	zones[0].AvgDriverPay = nil
	zones[1].AvgDriverPay = nil

	ann := UrbanRule(DefaultUrbanOptions()).Annotate(zones, geo.Centroids(zones))
	assert.Empty(t, ann)
}

func TestRules_AreDisjoint(t *testing.T) {
	zones := append(urbanFixture(),
		islandZone("si-1", intPtr(10)),
		islandZone("si-2", intPtr(20)),
		islandZone("si-3", intPtr(30)),
	)
	centroids := geo.Centroids(zones)
	island := IslandRule(DefaultIslandOptions()).Annotate(zones, centroids)
	urban := UrbanRule(DefaultUrbanOptions()).Annotate(zones, centroids)

	assert.Len(t, island, 3)
	assert.Len(t, urban, 11)
	for id := range island {
		_, dup := urban[id]
		assert.False(t, dup, id)
	}
}

func TestRule_LocalRatingAlwaysInRange(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for round := 0; round < 50; round++ {
		var zones []zone.Zone
		for i := 0; i < 30; i++ {
			zones = append(zones,
				zone.Zone{
					ID:           fmt.Sprintf("mn-%d", i),
					Borough:      "Manhattan",
					Geometry:     square(-73.99, 40.70+rng.Float64()*0.09),
					AvgDriverPay: floatPtr(rng.Float64() * 60),
					Pickups:      floatPtr(float64(rng.IntN(500))),
				},
				islandZone(fmt.Sprintf("si-%d", i), intPtr(1+rng.IntN(100))),
			)
		}
		centroids := geo.Centroids(zones)
		for _, rule := range []Rule{IslandRule(DefaultIslandOptions()), UrbanRule(DefaultUrbanOptions())} {
			for id, a := range rule.Annotate(zones, centroids) {
				assert.GreaterOrEqual(t, a.Rating, zone.MinRating, id)
				assert.LessOrEqual(t, a.Rating, zone.MaxRating, id)
				assert.Equal(t, zone.BucketFor(a.Rating), a.Bucket)
			}
		}
	}
}

func TestBoroughMatcher(t *testing.T) {
	m := BoroughMatcher("Manhattan")
	assert.True(t, m("manhattan"))
	assert.True(t, m("Lower MANHATTAN"))
	assert.False(t, m("Brooklyn"))
	assert.False(t, BoroughMatcher("  ")("Manhattan"))
}
