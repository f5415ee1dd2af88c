package commands

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Query output formats.
var queryFormats = []string{"table", "json", "csv", "md"}

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Format string
	Input  string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Query the run history database",
		Long: `Run SQL against the run history database.

Tables:
  runs         one row per run (collection, method, status, counters)
  run_results  one row per visited entry, in iteration order

When invoked without arguments on a terminal, enters interactive REPL mode.`,
		Example: `  # Failed runs
  eachof query "SELECT id, collection, error FROM runs WHERE status = 'failed'"

  # Results of the last run as JSON
  eachof query "SELECT key, value FROM run_results WHERE run_id = (SELECT id FROM runs ORDER BY started_at DESC LIMIT 1)" --format json

  # Interactive mode
  eachof query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.Format, "format", "f", "table", "Output format: "+strings.Join(queryFormats, ", "))
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")

	cmd.AddCommand(newQueryTablesCommand(opts))
	cmd.AddCommand(newQuerySchemaCommand(opts))

	return cmd
}

// resolveStatePath returns the history database path, failing when history
// is disabled or nothing has been recorded yet.
func resolveStatePath(cmd *cobra.Command) (string, error) {
	cmdCtx, err := NewCommandContextWithoutProject(cmd)
	if err != nil {
		return "", err
	}
	path := cmdCtx.Cfg.ResolveStatePath()
	if path == "" {
		return "", ErrHistoryDisabled
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", fmt.Errorf("state database not found at %s (run 'eachof run' first)", path)
	}
	return path, nil
}

// openStateDBReadOnly opens the state database in read-only mode.
func openStateDBReadOnly(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func validFormat(format string) error {
	for _, f := range queryFormats {
		if format == f || (f == "md" && format == "markdown") {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q, must be one of: %s", format, strings.Join(queryFormats, ", "))
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	if err := validFormat(opts.Format); err != nil {
		return err
	}
	statePath, err := resolveStatePath(cmd)
	if err != nil {
		return err
	}

	var sqlQuery string
	switch {
	case len(args) > 0:
		sqlQuery = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		sqlQuery = string(content)
	case !term.IsTerminal(int(os.Stdin.Fd())):
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sqlQuery = string(content)
	default:
		return runQueryREPL(cmd, statePath, opts)
	}

	db, err := openStateDBReadOnly(statePath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	return executeAndRenderQuery(cmd.Context(), cmd.OutOrStdout(), db, sqlQuery, opts.Format)
}

// executeAndRenderQuery executes a query and renders its rows.
func executeAndRenderQuery(ctx context.Context, w io.Writer, db *sql.DB, query, format string) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return renderResults(w, rows, format)
}

func newQueryTablesCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables of the history database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStateDB(cmd, opts, func(db *sql.DB) error {
				return listTablesFromDB(cmd.Context(), cmd.OutOrStdout(), db, opts.Format)
			})
		},
	}
}

func newQuerySchemaCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema <table>",
		Short: "Show the columns of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStateDB(cmd, opts, func(db *sql.DB) error {
				return showSchemaFromDB(cmd.Context(), cmd.OutOrStdout(), db, args[0], opts.Format)
			})
		},
	}
}

func withStateDB(cmd *cobra.Command, opts *QueryOptions, fn func(db *sql.DB) error) error {
	if err := validFormat(opts.Format); err != nil {
		return err
	}
	statePath, err := resolveStatePath(cmd)
	if err != nil {
		return err
	}
	db, err := openStateDBReadOnly(statePath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return fn(db)
}
