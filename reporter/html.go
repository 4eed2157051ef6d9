package reporter

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/jstemmer/go-junit-report/v2/gtr"
)

const reportStyles = `body { font-family: system-ui, sans-serif; margin: 2rem; color: #222; }
table { border-collapse: collapse; width: 100%; margin-bottom: 2rem; }
th, td { text-align: left; padding: .3rem .6rem; border-bottom: 1px solid #ddd; vertical-align: top; }
.ok { color: #1a7f37; } .FAIL { color: #cf222e; } .SKIP { color: #777; } .FLAKY { color: #bf8700; }
pre { margin: .3rem 0 0; white-space: pre-wrap; font-size: .85em; background: #f6f8fa; padding: .5rem; }
`

// WriteHTML renders a self-contained HTML report.
func WriteHTML(w io.Writer, reports []ProjectReport, generated time.Time) error {
	return HTMLReport(reports, generated).Render(context.Background(), w)
}

// HTMLReport is the HTML report as a component, so it can also be served.
func HTMLReport(reports []ProjectReport, generated time.Time) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		s := Summarize(reports)
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>E2E report</title>
<style>
%s</style>
</head>
<body>
<h1>E2E report</h1>
<p>Generated %s</p>
<p data-testid="summary">%d passed, %d failed, %d skipped, %d flaky (%d total)</p>
`, reportStyles, templ.EscapeString(generated.Format("2006-01-02 15:04:05 MST")),
			s.Passed, s.Failed, s.Skipped, s.Flaky, s.Total); err != nil {
			return err
		}

		for _, pr := range reports {
			if _, err := fmt.Fprintf(w, "<h2>%s</h2>\n", templ.EscapeString(pr.Project)); err != nil {
				return err
			}
			for _, pkg := range pr.Report.Packages {
				if err := packageTable(pkg).Render(ctx, w); err != nil {
					return err
				}
			}
		}

		_, err := io.WriteString(w, "</body>\n</html>\n")
		return err
	})
}

func packageTable(pkg gtr.Package) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, "<h3>%s</h3>\n", templ.EscapeString(pkg.Name))
		if pkg.BuildError.Name != "" {
			b.WriteString(`<pre class="FAIL">`)
			writeLines(&b, pkg.BuildError.Output)
			b.WriteString("</pre>\n")
		}
		b.WriteString("<table>\n  <thead><tr><th>Test</th><th>Status</th><th>Duration</th></tr></thead>\n  <tbody>\n")
		for _, t := range pkg.Tests {
			st := status(t)
			fmt.Fprintf(&b, "  <tr>\n    <td>%s", templ.EscapeString(t.Name))
			if t.Result == gtr.Fail {
				b.WriteString("<pre>")
				writeLines(&b, t.Output)
				b.WriteString("</pre>")
			}
			fmt.Fprintf(&b, "</td>\n    <td class=\"%s\">%s</td>\n    <td>%s</td>\n  </tr>\n",
				st, st, t.Duration.Round(time.Millisecond))
		}
		b.WriteString("  </tbody>\n</table>\n")

		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeLines(b *strings.Builder, lines []string) {
	for _, line := range lines {
		b.WriteString(templ.EscapeString(line))
		b.WriteByte('\n')
	}
}
