// Package harness runs declarative HTTP test cases against a remote API and
// reports a pass/fail Outcome for each one.
//
// A TestCase is a literal request (method, path, headers, body) paired with
// literal expectations (status code, body predicates). Cases never share
// state: the base URI and default content type travel in a ClientConfig
// value passed to every run, and a case may override the base URI for its
// own request only.
package harness

import (
	"net/http"
	"strings"
	"time"

	"github.com/brendan.keane/shopcheck/internal/errors"
)

const (
	// DefaultTimeout bounds a single request, including reading the body
	DefaultTimeout = 30 * time.Second
	// DefaultContentType is applied to requests that carry a body but no explicit type
	DefaultContentType = "application/json"
)

// ClientConfig is the shared request configuration. It is passed by value
// into every run so that no case can observe another case's settings.
type ClientConfig struct {
	BaseURL     string
	ContentType string
	Timeout     time.Duration
	// Headers are sent with every request; case headers take precedence
	Headers map[string]string
}

// DefaultClientConfig returns a config for the given base URL with the default
// content type and timeout.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:     baseURL,
		ContentType: DefaultContentType,
		Timeout:     DefaultTimeout,
	}
}

// TestCase is a single declarative request/expectation pair.
type TestCase struct {
	Name string `yaml:"name"`
	// Method defaults to GET
	Method string `yaml:"method,omitempty"`
	// Path is resolved against BaseURL, or the config's base URL when BaseURL
	// is empty. An absolute URL is used verbatim.
	Path        string            `yaml:"path"`
	BaseURL     string            `yaml:"base_url,omitempty"`
	Query       map[string]string `yaml:"query,omitempty"`
	Headers     map[string]string `yaml:"headers,omitempty"`
	ContentType string            `yaml:"content_type,omitempty"`
	Body        Body              `yaml:"body,omitempty"`
	Expect      Expectation       `yaml:"expect"`
}

// HTTPMethod returns the upper-cased method, defaulting to GET.
func (tc TestCase) HTTPMethod() string {
	if tc.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(tc.Method)
}

// Body is the optional request payload. At most one field may be set.
type Body struct {
	// JSON is encoded as a JSON object
	JSON map[string]interface{} `yaml:"json,omitempty"`
	// Form is encoded as application/x-www-form-urlencoded
	Form map[string]string `yaml:"form,omitempty"`
	// Raw is sent as-is
	Raw string `yaml:"raw,omitempty"`
}

// IsEmpty reports whether the body carries no payload.
func (b Body) IsEmpty() bool {
	return b.JSON == nil && b.Form == nil && b.Raw == ""
}

// Validate rejects a body that sets more than one of json, form and raw.
func (b Body) Validate() error {
	var set []string
	if b.JSON != nil {
		set = append(set, "json")
	}
	if b.Form != nil {
		set = append(set, "form")
	}
	if b.Raw != "" {
		set = append(set, "raw")
	}
	if len(set) > 1 {
		return errors.Newf(errors.ErrorTypeValidation, "body sets %s; pick one", strings.Join(set, " and ")).
			WithContext("field", "body")
	}
	return nil
}

// JSONBody is shorthand for a Body holding a JSON object.
func JSONBody(fields map[string]interface{}) Body {
	return Body{JSON: fields}
}

// FormBody is shorthand for a form-encoded Body.
func FormBody(fields map[string]string) Body {
	return Body{Form: fields}
}

// Expectation describes what a response must look like for the case to pass.
type Expectation struct {
	// Status is the expected HTTP status code; nil skips the check
	Status *int            `yaml:"status,omitempty"`
	Body   []BodyPredicate `yaml:"body,omitempty"`
}

// Expect builds an Expectation with the given status code and predicates.
func Expect(status int, predicates ...BodyPredicate) Expectation {
	return Expectation{Status: &status, Body: predicates}
}

// ExpectBody builds an Expectation that only checks the body.
func ExpectBody(predicates ...BodyPredicate) Expectation {
	return Expectation{Body: predicates}
}

// Scenario is an ordered list of steps executed as one unit. A scenario
// seeds whatever data it needs in its own first steps; once a step fails the
// remaining steps are skipped.
type Scenario struct {
	Name  string     `yaml:"name"`
	Steps []TestCase `yaml:"steps"`
}
