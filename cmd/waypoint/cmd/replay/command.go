// Package replay provides the replay command, which runs a scenario file
// against a fresh client and reports what every observer received.
package replay

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/agentstation/waypoint/internal/cmd/application"
	"github.com/agentstation/waypoint/internal/cmd/output"
	"github.com/agentstation/waypoint/internal/scenario"
	"github.com/agentstation/waypoint/pkg/logging"
	"github.com/agentstation/waypoint/pkg/visits"
)

// NewCommand creates the replay command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var showDispatches bool

	cmd := &cobra.Command{
		Use:     "replay <scenario>",
		GroupID: "core",
		Short:   "Replay a scenario of visit events",
		Args:    cobra.ExactArgs(1),
		Long: `Replay loads a scenario (YAML or JSON), runs its steps against a fresh
client and prints the final state of every subscription it created.

Steps subscribe, start, pause, stop or observe named subscriptions, deliver
visits to one or all of them, and report producer failures.`,
		Example: `  waypoint replay commute.yaml
  waypoint replay commute.yaml --dispatches
  waypoint replay commute.yaml -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, app, args[0], showDispatches)
		},
	}

	cmd.Flags().BoolVar(&showDispatches, "dispatches", false, "list every dispatched result (table output)")

	return cmd
}

func run(cmd *cobra.Command, app application.Application, path string, showDispatches bool) error {
	s, err := scenario.Load(path)
	if err != nil {
		return err
	}

	client, err := app.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	ctx := logging.WithLogger(cmd.Context(), app.Logger())
	report, err := s.Run(ctx, client)
	if err != nil {
		return err
	}

	format := output.Format(app.OutputFormat())
	w := cmd.OutOrStdout()

	switch format {
	case output.FormatJSON, output.FormatYAML:
		return output.NewFormatter(format).Format(w, report)
	}
	return printTables(w, report, showDispatches)
}

func printTables(w io.Writer, report *scenario.Report, showDispatches bool) error {
	_, _ = fmt.Fprintf(w, "Scenario %q: %d steps, %d visits and %d failures dispatched in %s\n\n",
		report.Scenario, report.Steps, report.Successes(), report.Failures(), report.Duration)

	formatter := output.NewFormatter(output.FormatTable)
	if err := formatter.Format(w, subscriptionData(report.Subscriptions)); err != nil {
		return err
	}

	if !showDispatches || len(report.Dispatches) == 0 {
		return nil
	}

	_, _ = fmt.Fprintln(w)
	results := make([]visits.Result, len(report.Dispatches))
	for i, d := range report.Dispatches {
		results[i] = d.Result
	}
	return formatter.Format(w, output.ResultData(results, func(i int) string {
		d := report.Dispatches[i]
		return fmt.Sprintf("%s#%d (step %d)", d.Subscription, d.Observer, d.Step)
	}))
}

func subscriptionData(finals []scenario.Final) output.Data {
	rows := make([][]string, 0, len(finals))
	for _, f := range finals {
		last := "-"
		if f.LastValue != nil {
			last = f.LastValue.Coordinate.String()
		}
		rows = append(rows, []string{
			f.Name,
			output.Title(f.State.String()),
			strconv.Itoa(f.Observers),
			strconv.FormatBool(!f.Removed),
			last,
		})
	}
	return output.Data{
		Headers: []string{"Name", "State", "Observers", "Held", "Last Position"},
		Rows:    rows,
		ColumnAlignment: []output.Align{
			output.AlignLeft, output.AlignLeft, output.AlignRight, output.AlignLeft, output.AlignLeft,
		},
	}
}
