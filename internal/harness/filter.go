package harness

import (
	"regexp"
	"strings"

	"github.com/brendan.keane/shopcheck/internal/errors"
)

// Filter selects cases by name. A case runs when it matches any Include
// pattern (or Include is empty) and matches no Exclude pattern.
type Filter struct {
	Include []*regexp.Regexp
	Exclude []*regexp.Regexp
}

// NewFilter compiles include and exclude patterns.
func NewFilter(include, exclude []string) (Filter, error) {
	var f Filter
	var err error
	if f.Include, err = compileAll(include, "run"); err != nil {
		return Filter{}, err
	}
	if f.Exclude, err = compileAll(exclude, "skip"); err != nil {
		return Filter{}, err
	}
	return f, nil
}

func compileAll(patterns []string, field string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			continue
		}
		rx, err := regexp.Compile(p)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeValidation, "invalid name pattern").
				WithContext("field", field).
				WithContext("pattern", p)
		}
		out = append(out, rx)
	}
	return out, nil
}

// Match reports whether a case with the given name should run.
func (f Filter) Match(name string) bool {
	if len(f.Include) > 0 && !anyMatch(f.Include, name) {
		return false
	}
	return !anyMatch(f.Exclude, name)
}

// Apply returns the cases whose names match, in their original order.
func (f Filter) Apply(cases []TestCase) []TestCase {
	out := make([]TestCase, 0, len(cases))
	for _, tc := range cases {
		if f.Match(tc.Name) {
			out = append(out, tc)
		}
	}
	return out
}

func anyMatch(patterns []*regexp.Regexp, name string) bool {
	for _, rx := range patterns {
		if rx.MatchString(name) {
			return true
		}
	}
	return false
}
