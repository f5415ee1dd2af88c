package runs

import (
	"fmt"
	"strings"
	"time"

	"github.com/leapstack-labs/eachof/internal/state"
)

// now is replaced in tests.
var now = time.Now

func formatTimeAgo(t time.Time) string {
	d := now().Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Local().Format("Jan 2 15:04")
	}
}

func formatRunDuration(run *state.Run) string {
	if run.CompletedAt == nil {
		return "running"
	}
	d := run.Duration()
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(100 * time.Millisecond).String()
}

func statusClass(status state.RunStatus) string {
	switch status {
	case state.RunStatusSuccess:
		return "run-status--success"
	case state.RunStatusRunning:
		return "run-status--running"
	case state.RunStatusFailed:
		return "run-status--failed"
	default:
		return ""
	}
}

func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatResult renders a decoded JSON result for a table cell.
func formatResult(r state.EntryResult) string {
	if r.Skipped {
		return "(skipped)"
	}
	switch v := r.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = formatResult(state.EntryResult{Value: item})
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprintf("%v", v)
	}
}
