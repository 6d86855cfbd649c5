// Package report renders run results: colored console lines while a suite
// runs, a summary at the end, and JUnit XML or Excel files for CI.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/brendan.keane/shopcheck/internal/harness"
)

var (
	passColor    = color.New(color.FgGreen)             //nolint:gochecknoglobals
	failColor    = color.New(color.FgRed)               //nolint:gochecknoglobals
	detailColor  = color.New(color.FgYellow)            //nolint:gochecknoglobals
	skipColor    = color.New(color.Faint, color.FgBlue) //nolint:gochecknoglobals
	verboseColor = color.New(color.Faint)               //nolint:gochecknoglobals
)

// Console prints one line per finished case. It implements harness.Observer.
type Console struct {
	out io.Writer
	// Verbose also prints the URL and response body of failed cases
	Verbose bool
}

// NewConsole writes to out.
func NewConsole(out io.Writer, verbose bool) *Console {
	return &Console{out: out, Verbose: verbose}
}

// CaseStarted is a no-op: with parallel runs, start lines would interleave
// with results.
func (c *Console) CaseStarted(harness.TestCase) {}

// CaseFinished prints PASS, FAIL or SKIP with the case name.
func (c *Console) CaseFinished(o harness.Outcome) {
	switch {
	case o.Skipped:
		_, _ = skipColor.Fprintf(c.out, "SKIP %s (%s)\n", o.Case.Name, o.SkipReason)
	case o.Passed:
		_, _ = passColor.Fprint(c.out, "PASS")
		fmt.Fprintf(c.out, " %s (%s)\n", o.Case.Name, roundDuration(o.Duration))
	default:
		_, _ = failColor.Fprint(c.out, "FAIL")
		fmt.Fprintf(c.out, " %s (%s)\n", o.Case.Name, roundDuration(o.Duration))
		for _, line := range o.Details() {
			_, _ = detailColor.Fprintf(c.out, "    %s\n", line)
		}
		if c.Verbose {
			c.printDebug(o)
		}
	}
}

func (c *Console) printDebug(o harness.Outcome) {
	if o.URL != "" {
		_, _ = verboseColor.Fprintf(c.out, "    %s %s\n", o.Case.HTTPMethod(), o.URL)
	}
	if o.Response != nil && o.Response.Body != "" {
		body := harness.Truncate(o.Response.Body, 500)
		for _, line := range strings.Split(body, "\n") {
			_, _ = verboseColor.Fprintf(c.out, "    | %s\n", line)
		}
	}
}

// PrintSummary prints the totals and the names of failed cases.
func PrintSummary(out io.Writer, results harness.Results) {
	pass, fail, skip := results.Counts()
	fmt.Fprintf(out, "\n%d passed, %d failed, %d skipped in %s\n", pass, fail, skip, roundDuration(results.Duration))

	if results.OK() {
		_, _ = passColor.Fprintln(out, "All cases passed")
		return
	}
	failures := results.Failures()
	_, _ = failColor.Fprintf(out, "FAILED CASES (%d):\n", len(failures))
	for _, o := range failures {
		_, _ = failColor.Fprintf(out, "  * %s\n", o.Case.Name)
	}
}

func roundDuration(d time.Duration) time.Duration {
	return d.Round(time.Millisecond)
}
