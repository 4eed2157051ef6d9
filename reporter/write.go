package reporter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jstemmer/go-junit-report/v2/gtr"
	"github.com/jstemmer/go-junit-report/v2/junit"
	"github.com/natefinch/atomic"

	"github.com/networkteam/e2ekit/config"
)

// WriteList prints one line per test and a summary.
func WriteList(w io.Writer, reports []ProjectReport) error {
	for _, pr := range reports {
		for _, pkg := range pr.Report.Packages {
			if pkg.BuildError.Name != "" {
				if _, err := fmt.Fprintf(w, "  ERROR [%s] %s: build failed\n%s\n", pr.Project, pkg.Name, strings.Join(pkg.BuildError.Output, "\n")); err != nil {
					return err
				}
				continue
			}
			for _, t := range pkg.Tests {
				if _, err := fmt.Fprintf(w, "  %-5s [%s] %s (%s)\n", status(t), pr.Project, t.Name, t.Duration.Round(time.Millisecond)); err != nil {
					return err
				}
				if t.Result == gtr.Fail {
					for _, line := range t.Output {
						if _, err := fmt.Fprintf(w, "        %s\n", line); err != nil {
							return err
						}
					}
				}
			}
			if pkg.RunError.Name != "" {
				if _, err := fmt.Fprintf(w, "  ERROR [%s] %s: %s\n", pr.Project, pkg.Name, pkg.RunError.Cause); err != nil {
					return err
				}
			}
		}
	}

	s := Summarize(reports)
	_, err := fmt.Fprintf(w, "\n  %d passed, %d failed, %d skipped, %d flaky (%d total)\n", s.Passed, s.Failed, s.Skipped, s.Flaky, s.Total)
	return err
}

func status(t gtr.Test) string {
	switch {
	case t.Result == gtr.Pass && IsFlaky(t):
		return "FLAKY"
	case t.Result == gtr.Pass:
		return "ok"
	case t.Result == gtr.Fail:
		return "FAIL"
	case t.Result == gtr.Skip:
		return "SKIP"
	}
	return "?"
}

// WriteJUnit writes JUnit XML. Suites are named "<project>/<package>".
func WriteJUnit(w io.Writer, reports []ProjectReport, hostname string) error {
	var all junit.Testsuites
	for _, pr := range reports {
		suites := junit.CreateFromReport(pr.Report, hostname)
		for _, suite := range suites.Suites {
			if pr.Project != "" {
				suite.Name = pr.Project + "/" + suite.Name
			}
			all.AddSuite(suite)
		}
	}
	return all.WriteXML(w)
}

type jsonTest struct {
	Project  string        `json:"project"`
	Package  string        `json:"package"`
	Name     string        `json:"name"`
	Result   string        `json:"result"`
	Flaky    bool          `json:"flaky,omitempty"`
	Duration time.Duration `json:"durationNs"`
	Output   []string      `json:"output,omitempty"`
}

type jsonReport struct {
	Summary Summary    `json:"summary"`
	Tests   []jsonTest `json:"tests"`
}

// WriteJSON writes a flat JSON document with every test and the summary.
func WriteJSON(w io.Writer, reports []ProjectReport) error {
	out := jsonReport{Summary: Summarize(reports), Tests: []jsonTest{}}
	for _, pr := range reports {
		for _, pkg := range pr.Report.Packages {
			for _, t := range pkg.Tests {
				jt := jsonTest{
					Project:  pr.Project,
					Package:  pkg.Name,
					Name:     t.Name,
					Result:   t.Result.String(),
					Flaky:    IsFlaky(t),
					Duration: t.Duration,
				}
				if t.Result == gtr.Fail {
					jt.Output = t.Output
				}
				out.Tests = append(out.Tests, jt)
			}
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// Files lists where WriteAll puts each reporter's output.
func Files(cfg config.Config) map[string]string {
	return map[string]string{
		config.ReporterJUnit: filepath.Join(cfg.OutputDir, "junit.xml"),
		config.ReporterJSON:  filepath.Join(cfg.OutputDir, "results.json"),
		config.ReporterHTML:  filepath.Join(cfg.ReportDir, "index.html"),
	}
}

// WriteAll runs every configured reporter. The list reporter prints to
// stdout, the others write files. Reports are written no matter whether
// the run passed.
func WriteAll(cfg config.Config, reports []ProjectReport, stdout io.Writer) error {
	files := Files(cfg)
	hostname, _ := os.Hostname()

	for _, name := range cfg.Reporters {
		if name == config.ReporterList {
			if err := WriteList(stdout, reports); err != nil {
				return fmt.Errorf("list reporter: %w", err)
			}
			continue
		}

		var b strings.Builder
		var err error
		switch name {
		case config.ReporterJUnit:
			err = WriteJUnit(&b, reports, hostname)
		case config.ReporterJSON:
			err = WriteJSON(&b, reports)
		case config.ReporterHTML:
			err = WriteHTML(&b, reports, time.Now())
		default:
			err = errors.New("unknown reporter")
		}
		if err != nil {
			return fmt.Errorf("%s reporter: %w", name, err)
		}

		path := files[name]
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("%s reporter: %w", name, err)
		}
		if err := atomic.WriteFile(path, strings.NewReader(b.String())); err != nil {
			return fmt.Errorf("%s reporter: %w", name, err)
		}
	}
	return nil
}
