package commands

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/eachof/internal/cli/output"
	"github.com/leapstack-labs/eachof/internal/state"
	"github.com/spf13/cobra"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
}

// HistoryRun is the JSON form of a recorded run.
type HistoryRun struct {
	ID         string          `json:"id"`
	Collection string          `json:"collection"`
	Method     string          `json:"method"`
	Script     string          `json:"script"`
	Env        string          `json:"env"`
	Status     string          `json:"status"`
	StartedAt  time.Time       `json:"started_at"`
	DurationMS int64           `json:"duration_ms"`
	Error      string          `json:"error,omitempty"`
	Entries    int             `json:"entries"`
	Skipped    int             `json:"skipped"`
	Results    []RunResultInfo `json:"results,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded runs",
		Long: `Show the runs recorded in the state database, most recent first.

With a run id, show that run and the result of every entry it visited.`,
		Example: `  # Last 20 runs
  eachof history

  # One run with its results, as JSON
  eachof history 5f0c... --output json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runHistoryShow(cmd, args[0])
			}
			return runHistoryList(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")

	return cmd
}

func runHistoryList(cmd *cobra.Command, opts *HistoryOptions) error {
	cmdCtx, err := NewCommandContextWithoutProject(cmd)
	if err != nil {
		return err
	}
	store, err := cmdCtx.OpenStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(cmd.Context(), opts.Limit)
	if err != nil {
		return err
	}

	out := make([]HistoryRun, len(runs))
	for i, run := range runs {
		out[i] = historyRunOf(run)
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}

	r.Header(1, fmt.Sprintf("Runs (%d)", len(out)))
	if len(out) == 0 {
		r.Println("No runs recorded yet.")
		return nil
	}
	rows := make([][]string, len(out))
	for i, run := range out {
		rows[i] = []string{
			shortID(run.ID),
			run.StartedAt.Local().Format(time.DateTime),
			run.Collection,
			run.Status,
			fmt.Sprintf("%d/%d", run.Entries-run.Skipped, run.Entries),
			fmt.Sprintf("%dms", run.DurationMS),
		}
	}
	r.Table([]string{"ID", "Started", "Collection", "Status", "Entries", "Duration"}, rows)
	return nil
}

func runHistoryShow(cmd *cobra.Command, id string) error {
	cmdCtx, err := NewCommandContextWithoutProject(cmd)
	if err != nil {
		return err
	}
	store, err := cmdCtx.OpenStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	run, err := store.GetRun(cmd.Context(), id)
	if err != nil {
		return err
	}
	results, err := store.GetResults(cmd.Context(), id)
	if err != nil {
		return err
	}

	out := historyRunOf(run)
	out.Results = make([]RunResultInfo, len(results))
	for i, res := range results {
		out.Results[i] = RunResultInfo{Key: res.Key, Value: res.Value, Skipped: res.Skipped}
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}

	r.Header(1, fmt.Sprintf("Run %s", out.ID))
	r.KeyValue("Collection", out.Collection)
	r.KeyValue("Method", out.Method)
	r.KeyValue("Script", out.Script)
	r.KeyValue("Env", out.Env)
	r.KeyValue("Status", out.Status)
	r.KeyValue("Started", out.StartedAt.Local().Format(time.DateTime))
	r.KeyValue("Duration", fmt.Sprintf("%dms", out.DurationMS))
	if out.Error != "" {
		r.KeyValue("Error", out.Error)
	}
	r.Println("")

	rows := make([][]string, len(out.Results))
	for i, res := range out.Results {
		value := formatValue(res.Value)
		if res.Skipped {
			value = "(skipped)"
		}
		rows[i] = []string{res.Key, value}
	}
	r.Table([]string{"Key", "Result"}, rows)
	return nil
}

func historyRunOf(run *state.Run) HistoryRun {
	return HistoryRun{
		ID:         run.ID,
		Collection: run.Collection,
		Method:     run.Method,
		Script:     run.Script,
		Env:        run.Env,
		Status:     string(run.Status),
		StartedAt:  run.StartedAt,
		DurationMS: run.Duration().Milliseconds(),
		Error:      run.Error,
		Entries:    run.Entries,
		Skipped:    run.Skipped,
	}
}

// shortID returns the first block of a uuid.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
