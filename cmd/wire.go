package main

import (
	"encoding/json"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/hotspot-cli/internal/config"
	"github.com/sells-group/hotspot-cli/internal/feed"
	"github.com/sells-group/hotspot-cli/internal/hotspot"
	"github.com/sells-group/hotspot-cli/internal/rating"
	"github.com/sells-group/hotspot-cli/internal/resilience"
	"github.com/sells-group/hotspot-cli/internal/timebin"
	"github.com/sells-group/hotspot-cli/internal/view"
)

func newFeedClient(c *config.Config, loc *time.Location) (*feed.Client, error) {
	return feed.New(feed.Options{
		BaseURL:       c.Feed.BaseURL,
		Timeout:       time.Duration(c.Feed.TimeoutSecs) * time.Second,
		RatePerSecond: c.Feed.RatePerSec,
		Burst:         c.Feed.Burst,
		Retry: resilience.Policy{
			Attempts:  c.Feed.RetryAttempts,
			BaseDelay: time.Duration(c.Feed.RetryBaseMs) * time.Millisecond,
			MaxDelay:  time.Duration(c.Feed.RetryMaxMs) * time.Millisecond,
			Jitter:    0.2,
		},
		CacheSize: c.Feed.CacheSize,
		CacheTTL:  time.Duration(c.Feed.CacheTTLSecs) * time.Second,
		Location:  loc,
	})
}

func engineOptions(c *config.Config) hotspot.Options {
	return hotspot.Options{
		Island: rating.IslandOptions{
			Borough:    c.Rating.Island.Borough,
			MinSamples: c.Rating.Island.MinSamples,
		},
		Urban: rating.UrbanOptions{
			Borough:      c.Rating.Urban.Borough,
			MaxLatitude:  c.Rating.Urban.MaxLatitude,
			MinSamples:   c.Rating.Urban.MinSamples,
			PayWeight:    c.Rating.Urban.PayWeight,
			VolumeWeight: c.Rating.Urban.VolumeWeight,
			Dampening:    c.Rating.Urban.Dampening,
		},
		PenaltyPerMile: c.Recommend.PenaltyPerMile,
		Modes:          view.Modes{Island: c.Modes.Island, Urban: c.Modes.Urban},
	}
}

func syncOptions(c *config.Config) timebin.Options {
	return timebin.Options{
		TickInterval:    time.Duration(c.Sync.TickSecs) * time.Second,
		RefreshInterval: time.Duration(c.Sync.RefreshSecs) * time.Second,
		GraceWindow:     time.Duration(c.Sync.GraceSecs) * time.Second,
		Debounce:        time.Duration(c.Sync.DebounceMs) * time.Millisecond,
	}
}

// writeOutput renders v as indented JSON or YAML.
func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(v), "encode json")
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return eris.Wrap(enc.Close(), "close yaml encoder")
	default:
		return eris.Errorf("unknown format %q (want json or yaml)", format)
	}
}
