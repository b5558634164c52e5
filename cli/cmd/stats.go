package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/tornado/cli/render"
)

// StatsCommand returns the stats command.
// A one-shot CLI process has no persistent metrics store to query, so
// stats evaluates one event the same way process does (§12) and prints
// the resulting matcher/dispatcher/executor snapshot instead of the
// event's tree/actions.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Evaluate one event and show the resulting matcher/dispatcher/executor metrics",
		Flags: append(TUIReadOnlyFlags(),
			configFlag,
			&cli.StringFlag{Name: "event", Usage: "Path to the event JSON (- for stdin)", Required: true},
			&cli.StringFlag{Name: "deployment", Usage: "Deployment label for metrics dimensions", Value: "default"},
		),
		Action: statsAction,
	}
}

func statsAction(c *cli.Context) error {
	_, collector, err := runProcessPipeline(c)
	if err != nil {
		return err
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	snap := collector.Snapshot()
	if c.Bool("tui") {
		return r.RenderTUI("stats_metrics", &snap)
	}
	return r.Render(snap)
}
