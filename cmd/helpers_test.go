package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/sells-group/hotspot-cli/internal/config"
)

const testFrameJSON = `{
  "time": "%s",
  "zones": {
    "type": "FeatureCollection",
    "features": [
      {
        "type": "Feature",
        "geometry": {"type": "Polygon", "coordinates": [[[-73.995,40.725],[-73.985,40.725],[-73.985,40.735],[-73.995,40.735],[-73.995,40.725]]]},
        "properties": {"location_id": "mn", "zone": "East Village", "borough": "Manhattan", "rating": 92, "pickups": 210, "avg_driver_pay": 28.4}
      },
      {
        "type": "Feature",
        "geometry": {"type": "Polygon", "coordinates": [[[-74.155,40.575],[-74.145,40.575],[-74.145,40.585],[-74.155,40.585],[-74.155,40.575]]]},
        "properties": {"location_id": "si", "zone": "Arden Heights", "borough": "Staten Island", "rating": 30}
      }
    ]
  }
}`

var testTimeline = []string{
	"2025-01-06T08:00:00",
	"2025-01-06T08:20:00",
	"2025-01-06T08:40:00",
}

type fakeFeed struct {
	*httptest.Server
	frames atomic.Int32
}

// newFakeFeed serves testTimeline and one frame per bin. timelineStatus
// other than 200 makes /timeline fail.
func newFakeFeed(t *testing.T, timelineStatus int) *fakeFeed {
	t.Helper()
	f := &fakeFeed{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /timeline", func(w http.ResponseWriter, _ *http.Request) {
		if timelineStatus != http.StatusOK {
			w.WriteHeader(timelineStatus)
			return
		}
		_, _ = fmt.Fprintf(w, `{"timeline": ["%s"]}`, strings.Join(testTimeline, `", "`))
	})
	mux.HandleFunc("GET /frame/{index}", func(w http.ResponseWriter, r *http.Request) {
		f.frames.Add(1)
		var idx int
		if _, err := fmt.Sscanf(r.PathValue("index"), "%d", &idx); err != nil || idx < 0 || idx >= len(testTimeline) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = fmt.Fprintf(w, testFrameJSON, testTimeline[idx])
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func testConfig(feedURL string) *config.Config {
	c := &config.Config{Timezone: "UTC"}
	c.Feed.BaseURL = feedURL
	c.Feed.TimeoutSecs = 5
	c.Feed.RetryAttempts = 1
	c.Feed.RetryBaseMs = 1
	c.Feed.RetryMaxMs = 1
	c.Feed.CacheSize = 4
	c.Feed.CacheTTLSecs = 60
	c.Sync.TickSecs = 30
	c.Sync.GraceSecs = 45
	c.Sync.DebounceMs = 10
	c.Rating.Island.Borough = "Staten Island"
	c.Rating.Island.MinSamples = 3
	c.Rating.Urban.Borough = "Manhattan"
	c.Rating.Urban.MaxLatitude = 40.8
	c.Rating.Urban.MinSamples = 10
	c.Rating.Urban.PayWeight = 0.6
	c.Rating.Urban.VolumeWeight = 0.4
	c.Rating.Urban.Dampening = 0.95
	c.Recommend.PenaltyPerMile = 4
	c.Server.Port = 8080
	c.Server.AllowedOrigins = []string{"*"}
	c.Log.Level = "info"
	c.Log.Format = "json"
	return c
}
