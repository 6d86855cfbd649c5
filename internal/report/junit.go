package report

import (
	"encoding/xml"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/brendan.keane/shopcheck/internal/errors"
	"github.com/brendan.keane/shopcheck/internal/harness"
)

// Struct definitions for the JUnit XML schema - see https://github.com/jstemmer/go-junit-report

type jUnitXMLDocument struct {
	XMLName xml.Name            `xml:"testsuites"`
	Suites  []jUnitXMLTestSuite `xml:"testsuite"`
}

type jUnitXMLTestSuite struct {
	XMLName    xml.Name           `xml:"testsuite"`
	Tests      int                `xml:"tests,attr"`
	Failures   int                `xml:"failures,attr"`
	Skipped    int                `xml:"skipped,attr"`
	Time       string             `xml:"time,attr"`
	Name       string             `xml:"name,attr"`
	Properties []jUnitXMLProperty `xml:"properties>property,omitempty"`
	TestCases  []jUnitXMLTestCase `xml:"testcase"`
}

type jUnitXMLTestCase struct {
	XMLName     xml.Name             `xml:"testcase"`
	Classname   string               `xml:"classname,attr"`
	Name        string               `xml:"name,attr"`
	Time        string               `xml:"time,attr"`
	SkipMessage *jUnitXMLSkipMessage `xml:"skipped,omitempty"`
	Failure     *jUnitXMLFailure     `xml:"failure,omitempty"`
}

type jUnitXMLSkipMessage struct {
	Message string `xml:"message,attr"`
}

type jUnitXMLProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type jUnitXMLFailure struct {
	Message  string `xml:"message,attr"`
	Type     string `xml:"type,attr"`
	Contents string `xml:",chardata"`
}

// DefaultSuiteName holds the independent cases; scenario steps are grouped
// under their scenario's name.
const DefaultSuiteName = "shopcheck"

// WriteJUnit writes results as JUnit XML to path.
func WriteJUnit(path string, results harness.Results, properties map[string]string) error {
	data, err := MarshalJUnit(results, properties)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil { //nolint:gosec
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to write JUnit report").
			WithContext("path", path)
	}
	return nil
}

// MarshalJUnit renders results as an indented JUnit XML document.
func MarshalJUnit(results harness.Results, properties map[string]string) ([]byte, error) {
	var props []jUnitXMLProperty
	for _, name := range sortedKeys(properties) {
		props = append(props, jUnitXMLProperty{Name: name, Value: properties[name]})
	}

	var doc jUnitXMLDocument
	index := make(map[string]int)
	durations := make(map[string]time.Duration)

	for _, o := range results.Outcomes {
		suiteName, caseName := splitName(o.Case.Name)
		i, ok := index[suiteName]
		if !ok {
			i = len(doc.Suites)
			index[suiteName] = i
			doc.Suites = append(doc.Suites, jUnitXMLTestSuite{Name: suiteName, Properties: props})
		}
		suite := &doc.Suites[i]

		tc := jUnitXMLTestCase{
			Classname: suiteName,
			Name:      caseName,
			Time:      jUnitDurationString(o.Duration),
		}
		suite.Tests++
		durations[suiteName] += o.Duration

		switch {
		case o.Skipped:
			suite.Skipped++
			tc.SkipMessage = &jUnitXMLSkipMessage{Message: o.SkipReason}
		case o.Failed():
			suite.Failures++
			tc.Failure = &jUnitXMLFailure{
				Message:  strings.Join(o.Details(), "\n"),
				Type:     string(o.Kind),
				Contents: failureContents(o),
			}
		}
		suite.TestCases = append(suite.TestCases, tc)
	}

	for i := range doc.Suites {
		doc.Suites[i].Time = jUnitDurationString(durations[doc.Suites[i].Name])
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode JUnit report")
	}
	return append([]byte(xml.Header), append(data, '\n')...), nil
}

func failureContents(o harness.Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", o.Case.HTTPMethod(), o.URL)
	if o.Response != nil {
		fmt.Fprintf(&b, "status: %d\n%s", o.Response.StatusCode, o.Response.Body)
	}
	return b.String()
}

func splitName(name string) (suite, test string) {
	if i := strings.Index(name, "/"); i > 0 {
		return name[:i], name[i+1:]
	}
	return DefaultSuiteName, name
}

func jUnitDurationString(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
