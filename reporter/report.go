// Package reporter turns go test JSON output into run results and writes
// them as a list, JUnit XML, JSON or an HTML page.
package reporter

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jstemmer/go-junit-report/v2/gtr"
	"github.com/jstemmer/go-junit-report/v2/parser/gotest"
	"github.com/samber/lo"
)

// Keys of gtr.Test.Data set when merging retries.
const (
	DataAttempts = "attempts"
	DataFlaky    = "flaky"
)

// ProjectReport is the result of running the suite against one project.
type ProjectReport struct {
	Project string
	Report  gtr.Report
}

// Parse reads the output of go test -json.
func Parse(r io.Reader) (gtr.Report, error) {
	report, err := gotest.NewJSONParser().Parse(r)
	if err != nil {
		return gtr.Report{}, fmt.Errorf("parsing test output: %w", err)
	}
	return report, nil
}

// FailedTests returns the failed top-level tests per package. A subtest
// failure counts as failure of its top-level test, since only whole tests
// are rerun. Packages that failed to build are left out.
func FailedTests(report gtr.Report) map[string][]string {
	failed := make(map[string][]string)
	for _, pkg := range report.Packages {
		if pkg.BuildError.Name != "" {
			continue
		}
		for _, t := range pkg.Tests {
			if t.Result != gtr.Fail {
				continue
			}
			top := topLevel(t.Name)
			if !lo.Contains(failed[pkg.Name], top) {
				failed[pkg.Name] = append(failed[pkg.Name], top)
			}
		}
	}
	for _, names := range failed {
		sort.Strings(names)
	}
	return failed
}

// Merge replaces the results in base of every top-level test that rerun
// contains, including its subtests, with the results from rerun. Tests
// that failed before and pass now are marked flaky.
func Merge(base, rerun gtr.Report) gtr.Report {
	merged := gtr.Report{Packages: make([]gtr.Package, 0, len(base.Packages))}

	rerunByName := lo.KeyBy(rerun.Packages, func(p gtr.Package) string { return p.Name })

	for _, pkg := range base.Packages {
		again, ok := rerunByName[pkg.Name]
		if !ok {
			merged.Packages = append(merged.Packages, pkg)
			continue
		}

		retried := make(map[string]bool)
		for _, t := range again.Tests {
			retried[topLevel(t.Name)] = true
		}
		previouslyFailed := make(map[string]bool)
		for _, t := range pkg.Tests {
			if t.Result == gtr.Fail {
				previouslyFailed[t.Name] = true
			}
		}

		tests := lo.Filter(pkg.Tests, func(t gtr.Test, _ int) bool {
			return !retried[topLevel(t.Name)]
		})
		for _, t := range again.Tests {
			t.Data = copyData(t.Data)
			attempts := 1
			if prev, ok := lo.Find(pkg.Tests, func(p gtr.Test) bool { return p.Name == t.Name }); ok {
				attempts = attemptsOf(prev) + 1
			}
			t.Data[DataAttempts] = attempts
			if t.Result == gtr.Pass && previouslyFailed[t.Name] {
				t.Data[DataFlaky] = true
			}
			tests = append(tests, t)
		}

		pkg.Tests = tests
		pkg.Duration += again.Duration
		pkg.RunError = again.RunError
		pkg.Output = append(pkg.Output, again.Output...)
		merged.Packages = append(merged.Packages, pkg)
	}

	return merged
}

// Summary counts test results across projects.
type Summary struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
	Flaky   int
	// Errors counts packages that failed to build or run.
	Errors int
}

// Successful reports whether nothing failed.
func (s Summary) Successful() bool {
	return s.Failed == 0 && s.Errors == 0
}

// Summarize counts the results of reports.
func Summarize(reports []ProjectReport) Summary {
	var s Summary
	for _, pr := range reports {
		for _, pkg := range pr.Report.Packages {
			if pkg.BuildError.Name != "" || pkg.RunError.Name != "" {
				s.Errors++
			}
			for _, t := range pkg.Tests {
				s.Total++
				switch t.Result {
				case gtr.Pass:
					s.Passed++
					if IsFlaky(t) {
						s.Flaky++
					}
				case gtr.Fail:
					s.Failed++
				case gtr.Skip:
					s.Skipped++
				}
			}
		}
	}
	return s
}

// IsFlaky reports whether t passed only after a retry.
func IsFlaky(t gtr.Test) bool {
	flaky, _ := t.Data[DataFlaky].(bool)
	return flaky
}

func attemptsOf(t gtr.Test) int {
	if n, ok := t.Data[DataAttempts].(int); ok {
		return n
	}
	return 1
}

func copyData(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in)+2)
	for k, v := range in {
		out[k] = v
	}
	return out
}

func topLevel(name string) string {
	top, _, _ := strings.Cut(name, "/")
	return top
}
