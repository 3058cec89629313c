package main

import (
	"context"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/hotspot-cli/internal/config"
	"github.com/sells-group/hotspot-cli/internal/geo"
	"github.com/sells-group/hotspot-cli/internal/hotspot"
	"github.com/sells-group/hotspot-cli/internal/recommend"
	"github.com/sells-group/hotspot-cli/internal/view"
)

type recommendFlags struct {
	lat, lng      float64
	index         int
	island, urban bool
	format        string
}

var recFlags recommendFlags

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend the best zone near a location",
	Long:  "Loads one frame (the current bin unless --index is given) and prints the highest-scoring nearby zone. Without --lat/--lng the status is no_location.",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := recFlags
		if !cmd.Flags().Changed("island") {
			f.island = cfg.Modes.Island
		}
		if !cmd.Flags().Changed("urban") {
			f.urban = cfg.Modes.Urban
		}

		latSet, lngSet := cmd.Flags().Changed("lat"), cmd.Flags().Changed("lng")
		if latSet != lngSet {
			return eris.New("recommend: --lat and --lng must be given together")
		}
		var loc *geo.Point
		if latSet {
			loc = &geo.Point{Lng: f.lng, Lat: f.lat}
		}
		return runRecommend(cmd.Context(), cfg, cmd.OutOrStdout(), f, loc, time.Now())
	},
}

func init() {
	recommendCmd.Flags().Float64Var(&recFlags.lat, "lat", 0, "driver latitude")
	recommendCmd.Flags().Float64Var(&recFlags.lng, "lng", 0, "driver longitude")
	recommendCmd.Flags().IntVar(&recFlags.index, "index", -1, "timeline index (default: bin for the current time)")
	recommendCmd.Flags().BoolVar(&recFlags.island, "island", false, "use the island-local view")
	recommendCmd.Flags().BoolVar(&recFlags.urban, "urban", false, "use the core-urban local view")
	recommendCmd.Flags().StringVar(&recFlags.format, "format", "json", "output format: json or yaml")
	rootCmd.AddCommand(recommendCmd)
}

type recommendOutput struct {
	Index          int                      `json:"index" yaml:"index"`
	Label          string                   `json:"label" yaml:"label"`
	Modes          view.Modes               `json:"modes" yaml:"modes"`
	Recommendation recommend.Recommendation `json:"recommendation" yaml:"recommendation"`
}

func runRecommend(ctx context.Context, c *config.Config, w io.Writer, f recommendFlags, loc *geo.Point, now time.Time) error {
	if loc != nil && !(loc.Lat >= -90 && loc.Lat <= 90 && loc.Lng >= -180 && loc.Lng <= 180) {
		return eris.Errorf("recommend: location %.5f,%.5f out of range", loc.Lat, loc.Lng)
	}

	tz, err := c.Location()
	if err != nil {
		return err
	}
	client, err := newFeedClient(c, tz)
	if err != nil {
		return err
	}
	tl, err := client.Timeline(ctx)
	if err != nil {
		return eris.Wrap(err, "recommend: timeline")
	}

	idx := f.index
	if idx < 0 {
		idx = tl.IndexAt(now)
	}
	if !tl.Valid(idx) {
		return eris.Errorf("recommend: index %d out of range [0, %d)", idx, tl.Len())
	}

	opts := engineOptions(c)
	opts.Modes = view.Modes{Island: f.island, Urban: f.urban}
	engine := hotspot.New(client, opts)
	if err := engine.Load(ctx, idx); err != nil {
		return err
	}

	rec, err := engine.Recommend(loc)
	if err != nil {
		return err
	}
	return writeOutput(w, f.format, recommendOutput{
		Index:          idx,
		Label:          tl.Label(idx),
		Modes:          opts.Modes,
		Recommendation: rec,
	})
}
