package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/eachof/internal/cli/output"
	starctx "github.com/leapstack-labs/eachof/internal/starlark"
	"github.com/leapstack-labs/eachof/internal/state"
	"github.com/spf13/cobra"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	Script string
}

// RunOutput is the JSON output of the run command.
type RunOutput struct {
	RunID      string          `json:"run_id"`
	Collection string          `json:"collection"`
	Method     string          `json:"method"`
	Script     string          `json:"script"`
	Status     string          `json:"status"`
	Error      string          `json:"error,omitempty"`
	DurationMS int64           `json:"duration_ms"`
	Results    []RunResultInfo `json:"results"`
}

// RunResultInfo is the result of the script for one entry.
type RunResultInfo struct {
	Key     string `json:"key"`
	Value   any    `json:"value,omitempty"`
	Skipped bool   `json:"skipped,omitempty"`
}

// ErrRunFailed is returned when the script halts the iteration.
var ErrRunFailed = errors.New("run failed")

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run <collection>",
		Short: "Run a Starlark script for every entry of a collection",
		Long: `Call each(view, key) from a Starlark script once per entry, in order.

The script is called for one entry at a time. Returning False skips the entry,
any other value is reported as its result. A Starlark error or fail() stops the
run; later entries are not visited.`,
		Example: `  # Run a script over all pages
  eachof run pages --script scripts/check.star

  # Run with JSON output for CI/CD integration
  eachof run pages --script scripts/check.star --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Script, "script", "s", "", "Starlark script defining each(view, key)")
	_ = cmd.MarkFlagRequired("script")

	return cmd
}

func runRun(cmd *cobra.Command, name string, opts *RunOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	return executeRun(cmd.Context(), cmdCtx, name, opts.Script)
}

// executeRun runs the script once over the loaded project. When run history
// is enabled every result is recorded as it arrives.
func executeRun(ctx context.Context, cmdCtx *CommandContext, name, script string) error {
	runID := uuid.NewString()
	logger := cmdCtx.Logger.With("run_id", runID, "collection", name)
	start := time.Now()

	s, err := starctx.LoadFile(script,
		starctx.WithLogger(logger),
		starctx.WithEnv(cmdCtx.Cfg.Env),
		starctx.WithVars(cmdCtx.Cfg.Vars),
	)
	if err != nil {
		return err
	}

	c, callName, err := cmdCtx.Capability(name)
	if err != nil {
		return err
	}

	rec := newRecorder(ctx, cmdCtx, logger, &state.Run{
		ID:         runID,
		Collection: name,
		Method:     c.Method(),
		Script:     script,
		Env:        cmdCtx.Cfg.Env,
		StartedAt:  start.UTC(),
	})
	defer rec.close()

	logger.Info("run started", "script", script, "method", c.Method())

	var results []RunResultInfo
	runErr := iterate(c, callName, s.Iterator(func(res starctx.Result) {
		rec.record(len(results), res)
		results = append(results, RunResultInfo{Key: res.Key, Value: res.Value, Skipped: res.Skipped})
	}))

	out := RunOutput{
		RunID:      runID,
		Collection: name,
		Method:     c.Method(),
		Script:     script,
		Status:     string(state.RunStatusSuccess),
		DurationMS: time.Since(start).Milliseconds(),
		Results:    results,
	}
	if out.Results == nil {
		out.Results = []RunResultInfo{}
	}
	if runErr != nil {
		out.Status = string(state.RunStatusFailed)
		out.Error = runErr.Error()
		logger.Error("run failed", "error", runErr)
	} else {
		logger.Info("run finished", "entries", len(results), "duration_ms", out.DurationMS)
	}
	rec.complete(state.RunStatus(out.Status), out.Error)

	if err := renderRun(cmdCtx.Renderer, &out); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("%w: %w", ErrRunFailed, runErr)
	}
	return nil
}

// recorder writes a run to the history database. History is best effort: a
// store failure is logged and the run goes on. After a failed result write
// no more results are recorded, but the run is still completed.
type recorder struct {
	ctx           context.Context
	store         state.Store
	runID         string
	logger        *slog.Logger
	resultsFailed bool
}

func newRecorder(ctx context.Context, cmdCtx *CommandContext, logger *slog.Logger, run *state.Run) *recorder {
	rec := &recorder{ctx: ctx, runID: run.ID, logger: logger}

	store, err := cmdCtx.OpenStore()
	switch {
	case errors.Is(err, ErrHistoryDisabled):
		return rec
	case err != nil:
		logger.Warn("run history unavailable", "error", err)
		return rec
	}

	if err := store.CreateRun(ctx, run); err != nil {
		logger.Warn("run history unavailable", "error", err)
		_ = store.Close()
		return rec
	}
	rec.store = store
	return rec
}

func (r *recorder) record(position int, res starctx.Result) {
	if r.store == nil || r.resultsFailed {
		return
	}
	err := r.store.RecordResult(r.ctx, r.runID, state.EntryResult{
		Position: position,
		Key:      res.Key,
		Value:    res.Value,
		Skipped:  res.Skipped,
	})
	if err != nil {
		r.logger.Warn("failed to record result", "key", res.Key, "error", err)
		r.resultsFailed = true
	}
}

func (r *recorder) complete(status state.RunStatus, errMsg string) {
	if r.store == nil {
		return
	}
	if err := r.store.CompleteRun(r.ctx, r.runID, status, errMsg); err != nil {
		r.logger.Warn("failed to complete run", "error", err)
	}
}

func (r *recorder) close() {
	if r.store != nil {
		_ = r.store.Close()
		r.store = nil
	}
}

func renderRun(r *output.Renderer, out *RunOutput) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}

	r.Header(1, fmt.Sprintf("Run %s", out.Collection))
	r.KeyValue("Run ID", out.RunID)
	r.KeyValue("Method", out.Method)
	r.KeyValue("Script", out.Script)
	r.Println("")

	rows := make([][]string, len(out.Results))
	skipped := 0
	for i, res := range out.Results {
		value := formatValue(res.Value)
		if res.Skipped {
			value = "(skipped)"
			skipped++
		}
		rows[i] = []string{res.Key, value}
	}
	r.Table([]string{"Key", "Result"}, rows)

	summary := fmt.Sprintf("%d entries, %d skipped in %dms", len(out.Results), skipped, out.DurationMS)
	if out.Error != "" {
		r.Error(out.Error)
		r.Warn("stopped after " + summary)
		return nil
	}
	r.Success(summary)
	return nil
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = formatValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprintf("%v", val)
	}
}
