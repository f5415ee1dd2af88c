package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/eachof/internal/cli/output"
	"github.com/leapstack-labs/eachof/pkg/core"
	"github.com/leapstack-labs/eachof/pkg/eachof"
	"github.com/spf13/cobra"
)

// ListEntry is one row of the list command.
type ListEntry struct {
	Key    string   `json:"key"`
	Path   string   `json:"path"`
	Title  string   `json:"title,omitempty"`
	Layout string   `json:"layout,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

// ListOutput is the JSON output of the list command.
type ListOutput struct {
	Collection string      `json:"collection"`
	Role       string      `json:"role"`
	Method     string      `json:"method"`
	Entries    []ListEntry `json:"entries"`
}

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <collection>",
		Short: "List the entries of a collection in iteration order",
		Long: `Iterate a collection with eachOf and print every entry in the order
the iteration visits it.

Output adapts to environment:
  - Terminal: table
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # List all pages
  eachof list pages

  # List a list collection through the list variant, as JSON
  eachof list nav --mode list --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, args[0])
		},
	}

	return cmd
}

func runList(cmd *cobra.Command, name string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	c, callName, err := cmdCtx.Capability(name)
	if err != nil {
		return err
	}

	var entries []ListEntry
	err = iterate(c, callName, func(item *core.Item, key string, next eachof.Next) {
		entries = append(entries, entryOf(item, key))
		next(nil)
	})
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		if entries == nil {
			entries = []ListEntry{}
		}
		return r.JSON(ListOutput{
			Collection: name,
			Role:       c.Role().String(),
			Method:     c.Method(),
			Entries:    entries,
		})
	default:
		r.Header(1, fmt.Sprintf("%s (%d entries)", name, len(entries)))
		rows := make([][]string, len(entries))
		for i, e := range entries {
			rows[i] = []string{fmt.Sprintf("%d", i+1), e.Key, e.Path, e.Title, strings.Join(e.Tags, ", ")}
		}
		r.Table([]string{"#", "Key", "Path", "Title", "Tags"}, rows)
		return nil
	}
}

func entryOf(item *core.Item, key string) ListEntry {
	e := ListEntry{Key: key}
	if item == nil {
		return e
	}
	e.Path = item.Path
	e.Layout = item.Layout
	e.Tags = item.Tags
	if title, ok := item.Data["title"].(string); ok {
		e.Title = title
	}
	return e
}
