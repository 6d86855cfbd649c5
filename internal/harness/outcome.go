package harness

import (
	"fmt"
	"strings"
	"time"

	"github.com/brendan.keane/shopcheck/internal/errors"
)

// Mismatch records one failed check with enough detail to reproduce it.
type Mismatch struct {
	Check    string
	Expected string
	Actual   string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: expected %s, got %s", m.Check, m.Expected, m.Actual)
}

// Outcome is the result of running one TestCase.
type Outcome struct {
	Case   TestCase
	Passed bool
	// Skipped is set for scenario steps that never ran
	Skipped    bool
	SkipReason string
	// Kind classifies a failure: network, assertion or malformed_response
	Kind     errors.ErrorType
	Failures []Mismatch
	// Err is set for network and malformed_response failures
	Err      error
	URL      string
	Response *Response
	Duration time.Duration
}

// Failed reports whether the case ran and did not pass.
func (o Outcome) Failed() bool {
	return !o.Passed && !o.Skipped
}

// Error returns the failure as a CheckError, or nil when the case passed or
// was skipped.
func (o Outcome) Error() error {
	if !o.Failed() {
		return nil
	}
	if o.Err != nil {
		return o.Err
	}

	lines := make([]string, 0, len(o.Failures))
	for _, m := range o.Failures {
		lines = append(lines, m.String())
	}
	err := errors.New(errors.ErrorTypeAssertion, strings.Join(lines, "; "))
	if len(o.Failures) == 1 {
		err.WithContext("expected", o.Failures[0].Expected).
			WithContext("actual", o.Failures[0].Actual)
	}
	return err
}

// Details renders the expected/actual lines of a failed outcome.
func (o Outcome) Details() []string {
	if o.Err != nil {
		return []string{errors.UserMessage(o.Err)}
	}
	lines := make([]string, 0, len(o.Failures))
	for _, m := range o.Failures {
		lines = append(lines, m.String())
	}
	return lines
}

func passed(tc TestCase, url string, resp *Response, duration time.Duration) Outcome {
	return Outcome{Case: tc, Passed: true, URL: url, Response: resp, Duration: duration}
}

func failedWith(tc TestCase, url string, err error, duration time.Duration) Outcome {
	return Outcome{
		Case:     tc,
		Kind:     errors.GetType(err),
		Err:      err,
		URL:      url,
		Duration: duration,
	}
}

func skipped(tc TestCase, reason string) Outcome {
	return Outcome{Case: tc, Skipped: true, SkipReason: reason}
}

// Results aggregates the outcomes of a run in execution order.
type Results struct {
	Outcomes []Outcome
	Duration time.Duration
}

// OK reports whether no case failed.
func (r Results) OK() bool {
	return len(r.Failures()) == 0
}

// Failures returns the outcomes that ran and failed.
func (r Results) Failures() []Outcome {
	var failures []Outcome
	for _, o := range r.Outcomes {
		if o.Failed() {
			failures = append(failures, o)
		}
	}
	return failures
}

// Counts returns the number of passed, failed and skipped outcomes.
func (r Results) Counts() (pass, fail, skip int) {
	for _, o := range r.Outcomes {
		switch {
		case o.Skipped:
			skip++
		case o.Passed:
			pass++
		default:
			fail++
		}
	}
	return pass, fail, skip
}
