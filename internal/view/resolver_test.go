package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/hotspot-cli/internal/geo"
	"github.com/sells-group/hotspot-cli/internal/rating"
	"github.com/sells-group/hotspot-cli/internal/zone"
)

func intPtr(v int) *int { return &v }

func fixture() (*Resolver, map[string]zone.Zone) {
	zones := map[string]zone.Zone{
		"si":     {ID: "si", Borough: "Staten Island", Rating: intPtr(30), Bucket: zone.BucketYellow},
		"si-raw": {ID: "si-raw", Borough: "Staten Island", Rating: intPtr(12), Bucket: zone.BucketRed},
		"mn":     {ID: "mn", Borough: "Manhattan", Rating: intPtr(85), Bucket: zone.BucketPurple},
		"mn-n":   {ID: "mn-n", Borough: "Manhattan", Rating: intPtr(40), Bucket: zone.BucketYellow},
		"bk":     {ID: "bk", Borough: "Brooklyn", Bucket: zone.BucketSky},
	}
	centroids := map[string]geo.Point{
		"si":   {Lng: -74.15, Lat: 40.58},
		"mn":   {Lng: -73.99, Lat: 40.73},
		"mn-n": {Lng: -73.92, Lat: 40.87},
	}
	island := Layer{
		Rule:        rating.IslandRule(rating.DefaultIslandOptions()),
		Annotations: rating.Annotations{"si": rating.NewAnnotation(95)},
	}
	urban := Layer{
		Rule: rating.UrbanRule(rating.DefaultUrbanOptions()),
		Annotations: rating.Annotations{
			"mn": rating.NewAnnotation(54),
			// Stale entry for a zone outside the band must never surface.
			"mn-n": rating.NewAnnotation(99),
		},
	}
	return NewResolver(island, urban, centroids), zones
}

func TestResolver_Precedence(t *testing.T) {
	r, zones := fixture()

	tests := []struct {
		name      string
		zoneID    string
		modes     Modes
		expRating int
		expBucket zone.Bucket
		expLocal  bool
	}{
		{"island on, member with local", "si", Modes{Island: true}, 95, zone.BucketGreen, true},
		{"island off", "si", Modes{Urban: true}, 30, zone.BucketYellow, false},
		{"island on, member without local", "si-raw", Modes{Island: true}, 12, zone.BucketRed, false},
		{"urban on, member with local", "mn", Modes{Urban: true}, 54, zone.BucketSky, true},
		{"urban off", "mn", Modes{Island: true}, 85, zone.BucketPurple, false},
		{"urban on, north of cutoff", "mn-n", Modes{Urban: true}, 40, zone.BucketYellow, false},
		{"both on, urban member", "mn", Modes{Island: true, Urban: true}, 54, zone.BucketSky, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z := zones[tt.zoneID]
			got, ok := r.Rating(z, tt.modes)
			require.True(t, ok)
			assert.Equal(t, tt.expRating, got)
			assert.Equal(t, tt.expBucket, r.Bucket(z, tt.modes))
			assert.Equal(t, tt.expBucket.Color(), r.Color(z, tt.modes))
			assert.Equal(t, tt.expLocal, r.IsLocal(z, tt.modes))
		})
	}
}

func TestResolver_GlobalWithoutRating(t *testing.T) {
	r, zones := fixture()
	bk := zones["bk"]

	_, ok := r.Rating(bk, Modes{Island: true, Urban: true})
	assert.False(t, ok)
	assert.Equal(t, zone.BucketSky, r.Bucket(bk, Modes{}))

	e := r.Resolve(bk, Modes{})
	assert.Nil(t, e.Rating)
	assert.Equal(t, zone.BucketSky.Color(), e.Color)
	assert.False(t, e.Local)
}

func TestResolver_Resolve(t *testing.T) {
	r, zones := fixture()
	e := r.Resolve(zones["si"], Modes{Island: true})
	require.NotNil(t, e.Rating)
	assert.Equal(t, 95, *e.Rating)
	assert.Equal(t, zone.BucketGreen, e.Bucket)
	assert.True(t, e.Local)
	assert.Equal(t, "si", e.ZoneID)
}

func TestResolver_EmptyLayers(t *testing.T) {
	r := NewResolver(Layer{}, Layer{}, nil)
	z := zone.Zone{ID: "x", Borough: "Staten Island", Rating: intPtr(70), Bucket: zone.BucketBlue}
	got, ok := r.Rating(z, Modes{Island: true, Urban: true})
	require.True(t, ok)
	assert.Equal(t, 70, got)
	_, ok = r.Centroid(z)
	assert.False(t, ok)
}
