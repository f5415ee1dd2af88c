package runs

import (
	"testing"
	"time"

	"github.com/leapstack-labs/eachof/internal/state"
	"github.com/stretchr/testify/assert"
)

func TestFormatTimeAgo(t *testing.T) {
	fixed := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	old := now
	now = func() time.Time { return fixed }
	defer func() { now = old }()

	assert.Equal(t, "just now", formatTimeAgo(fixed.Add(-10*time.Second)))
	assert.Equal(t, "5m ago", formatTimeAgo(fixed.Add(-5*time.Minute)))
	assert.Equal(t, "3h ago", formatTimeAgo(fixed.Add(-3*time.Hour)))
	assert.Equal(t, fixed.Add(-48*time.Hour).Local().Format("Jan 2 15:04"), formatTimeAgo(fixed.Add(-48*time.Hour)))
}

func TestFormatRunDuration(t *testing.T) {
	start := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	fast := start.Add(42 * time.Millisecond)
	slow := start.Add(2340 * time.Millisecond)

	assert.Equal(t, "running", formatRunDuration(&state.Run{StartedAt: start}))
	assert.Equal(t, "42ms", formatRunDuration(&state.Run{StartedAt: start, CompletedAt: &fast}))
	assert.Equal(t, "2.3s", formatRunDuration(&state.Run{StartedAt: start, CompletedAt: &slow}))
}

func TestFormatResult(t *testing.T) {
	assert.Equal(t, "(skipped)", formatResult(state.EntryResult{Skipped: true, Value: "x"}))
	assert.Equal(t, "", formatResult(state.EntryResult{}))
	assert.Equal(t, "Alpha", formatResult(state.EntryResult{Value: "Alpha"}))
	assert.Equal(t, "[a, 2]", formatResult(state.EntryResult{Value: []any{"a", float64(2)}}))
	assert.Equal(t, "true", formatResult(state.EntryResult{Value: true}))
}

func TestStatusAndID(t *testing.T) {
	assert.Equal(t, "run-status--failed", statusClass(state.RunStatusFailed))
	assert.Equal(t, "12345678", truncateID("12345678-abcd"))
}
