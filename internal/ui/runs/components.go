package runs

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
	"github.com/leapstack-labs/eachof/internal/state"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"

const pageStyle = `
body { font-family: system-ui, sans-serif; margin: 2rem; color: #222; }
table { border-collapse: collapse; width: 100%; }
th, td { text-align: left; padding: .35rem .6rem; border-bottom: 1px solid #ddd; }
.run-status--success { color: #1a7f37; }
.run-status--running { color: #9a6700; }
.run-status--failed { color: #cf222e; }
.filters a { margin-right: .75rem; }
.filters a.active { font-weight: bold; }
pre.run-error { background: #fff0f0; padding: .5rem; white-space: pre-wrap; }
`

// RunsViewData is what the runs table renders.
type RunsViewData struct {
	Runs        []*state.Run
	Collections []string
	Collection  string
}

// RunDetailData is what the run detail page renders.
type RunDetailData struct {
	Run     *state.Run
	Results []state.EntryResult
}

// render adapts a string builder function to a templ component.
func render(build func(sb *strings.Builder)) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var sb strings.Builder
		build(&sb)
		_, err := io.WriteString(w, sb.String())
		return err
	})
}

func esc(s string) string {
	return templ.EscapeString(s)
}

// Page wraps body in the HTML document. updatesURL, when set, is opened as
// a long-lived datastar SSE stream.
func Page(title, updatesURL string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var sb strings.Builder
		sb.WriteString("<!doctype html>\n<html lang=\"en\"><head><meta charset=\"utf-8\">")
		fmt.Fprintf(&sb, "<title>%s - eachof</title>", esc(title))
		fmt.Fprintf(&sb, `<script type="module" src="%s"></script>`, datastarScript)
		fmt.Fprintf(&sb, "<style>%s</style></head><body>", pageStyle)
		sb.WriteString(`<nav><a href="/runs">Runs</a></nav>`)
		if updatesURL != "" {
			fmt.Fprintf(&sb, `<main id="ui-content" data-init="@get('%s')">`, esc(updatesURL))
		} else {
			sb.WriteString(`<main id="ui-content">`)
		}
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</main></body></html>\n")
		return err
	})
}

// RunsTable renders the run list. Its root id is the morph target of SSE
// updates.
func RunsTable(data RunsViewData) templ.Component {
	return render(func(sb *strings.Builder) {
		sb.WriteString(`<section id="runs-table">`)
		fmt.Fprintf(sb, "<h1>Runs (%d)</h1>", len(data.Runs))

		sb.WriteString(`<div class="filters">`)
		active := func(c string) string {
			if c == data.Collection {
				return ` class="active"`
			}
			return ""
		}
		fmt.Fprintf(sb, `<a href="/runs?collection=all"%s>all</a>`, active(""))
		for _, c := range data.Collections {
			fmt.Fprintf(sb, `<a href="/runs?collection=%s"%s>%s</a>`, esc(c), active(c), esc(c))
		}
		sb.WriteString("</div>")

		if len(data.Runs) == 0 {
			sb.WriteString(`<p class="empty">No runs recorded yet.</p></section>`)
			return
		}

		sb.WriteString("<table><thead><tr><th>ID</th><th>Started</th><th>Collection</th><th>Method</th><th>Status</th><th>Entries</th><th>Duration</th></tr></thead><tbody>")
		for _, run := range data.Runs {
			fmt.Fprintf(sb, `<tr id="run-%s">`, esc(run.ID))
			fmt.Fprintf(sb, `<td><a href="/runs/%s">%s</a></td>`, esc(run.ID), esc(truncateID(run.ID)))
			fmt.Fprintf(sb, "<td>%s</td>", esc(formatTimeAgo(run.StartedAt)))
			fmt.Fprintf(sb, "<td>%s</td><td><code>%s</code></td>", esc(run.Collection), esc(run.Method))
			fmt.Fprintf(sb, `<td class="%s">%s</td>`, statusClass(run.Status), esc(string(run.Status)))
			fmt.Fprintf(sb, "<td>%d/%d</td>", run.Entries-run.Skipped, run.Entries)
			fmt.Fprintf(sb, "<td>%s</td></tr>", esc(formatRunDuration(run)))
		}
		sb.WriteString("</tbody></table></section>")
	})
}

// RunDetail renders one run with its entry results.
func RunDetail(data RunDetailData) templ.Component {
	return render(func(sb *strings.Builder) {
		run := data.Run
		fmt.Fprintf(sb, `<section id="run-detail"><h1>Run %s</h1><dl>`, esc(truncateID(run.ID)))
		for _, kv := range [][2]string{
			{"ID", run.ID},
			{"Collection", run.Collection},
			{"Method", run.Method},
			{"Script", run.Script},
			{"Env", run.Env},
			{"Status", string(run.Status)},
			{"Duration", formatRunDuration(run)},
		} {
			fmt.Fprintf(sb, "<dt>%s</dt><dd>%s</dd>", kv[0], esc(kv[1]))
		}
		sb.WriteString("</dl>")
		if run.Error != "" {
			fmt.Fprintf(sb, `<pre class="run-error">%s</pre>`, esc(run.Error))
		}

		sb.WriteString("<table><thead><tr><th>#</th><th>Key</th><th>Result</th></tr></thead><tbody>")
		for _, r := range data.Results {
			fmt.Fprintf(sb, "<tr><td>%d</td><td>%s</td><td>%s</td></tr>", r.Position+1, esc(r.Key), esc(formatResult(r)))
		}
		sb.WriteString("</tbody></table></section>")
	})
}
