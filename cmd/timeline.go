package main

import (
	"context"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/hotspot-cli/internal/config"
)

var timelineFormat string

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Print the weekly timeline and the bin for the current time",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTimeline(cmd.Context(), cfg, cmd.OutOrStdout(), timelineFormat, time.Now())
	},
}

func init() {
	timelineCmd.Flags().StringVar(&timelineFormat, "format", "json", "output format: json or yaml")
	rootCmd.AddCommand(timelineCmd)
}

type timelineBin struct {
	Index  int    `json:"index" yaml:"index"`
	Time   string `json:"time" yaml:"time"`
	Label  string `json:"label" yaml:"label"`
	Minute int    `json:"minute_of_week" yaml:"minute_of_week"`
}

type timelineOutput struct {
	Current int           `json:"current" yaml:"current"`
	SameDay []int         `json:"same_day" yaml:"same_day"`
	Bins    []timelineBin `json:"bins" yaml:"bins"`
}

func runTimeline(ctx context.Context, c *config.Config, w io.Writer, format string, now time.Time) error {
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
		return eris.Wrap(err, "timeline")
	}

	cur := tl.IndexAt(now)
	out := timelineOutput{
		Current: cur,
		SameDay: tl.SameDay(cur),
		Bins:    make([]timelineBin, tl.Len()),
	}
	minutes := tl.Minutes()
	for i := range out.Bins {
		out.Bins[i] = timelineBin{
			Index:  i,
			Time:   tl.Time(i).Format("2006-01-02T15:04:05"),
			Label:  tl.Label(i),
			Minute: minutes[i],
		}
	}
	return writeOutput(w, format, out)
}
