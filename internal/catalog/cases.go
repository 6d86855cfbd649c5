// Package catalog holds the declarative list of cases run against the
// automationexercise.com demo API, plus loaders for YAML case files and an
// OpenAPI coverage check.
package catalog

import (
	"strings"

	"github.com/brendan.keane/shopcheck/internal/harness"
)

// SiteURL is the root of the demo shop. The API lives under /api.
const SiteURL = "https://automationexercise.com"

// Messages the demo API embeds in its response bodies
const (
	MsgMethodNotSupported = "This request method is not supported."
	MsgLoginMissing       = "Bad request, email or password parameter is missing in POST request."
	MsgUserNotFound       = "User not found!"
)

// Catalog is a named set of cases and scenarios sharing a default base URL.
type Catalog struct {
	BaseURL   string             `yaml:"base_url"`
	Cases     []harness.TestCase `yaml:"cases"`
	Scenarios []harness.Scenario `yaml:"scenarios,omitempty"`
}

// APIURL returns the API base for a site root.
func APIURL(site string) string {
	return strings.TrimRight(site, "/") + "/api"
}

// SiteFromAPI is the inverse of APIURL. A base without the /api suffix is
// returned unchanged.
func SiteFromAPI(base string) string {
	return strings.TrimSuffix(strings.TrimRight(base, "/"), "/api")
}

// Builtin returns the fourteen endpoint checks for the shop at site, plus
// the account lifecycle scenario. The login and account cases carry their
// own base URL (the site root) and /api/... paths, so they run the same no
// matter what the suite-wide base is.
func Builtin(site string) Catalog {
	site = strings.TrimRight(site, "/")
	api := APIURL(site)

	product := map[string]interface{}{
		"name":     "Sample Product",
		"price":    100,
		"category": "electronics",
	}

	return Catalog{
		BaseURL: api,
		Cases: []harness.TestCase{
			{
				Name:   "get all products list",
				Path:   "productsList",
				Expect: harness.Expect(200),
			},
			{
				Name:   "post to all products list",
				Method: "POST",
				Path:   "productsList",
				Body:   harness.JSONBody(product),
				Expect: harness.ExpectBody(harness.Contains("This request method is not supported")),
			},
			{
				Name:   "get all brands list",
				Path:   "brandsList",
				Expect: harness.Expect(200),
			},
			{
				Name:   "put to all brands list",
				Method: "PUT",
				Path:   "brandsList",
				Body:   harness.JSONBody(product),
				Expect: harness.ExpectBody(harness.Contains("This request method is not supported")),
			},
			{
				Name:   "search product",
				Method: "POST",
				Path:   "searchProduct",
				Body:   harness.JSONBody(map[string]interface{}{"search_product": "top"}),
				Expect: harness.Expect(200),
			},
			{
				Name:        "search product without search_product parameter",
				Method:      "POST",
				Path:        "/searchProduct",
				ContentType: "application/json",
				Expect:      harness.ExpectBody(harness.FieldEquals("responseCode", 400)),
			},
			{
				Name:    "verify login with valid details",
				Method:  "POST",
				BaseURL: site,
				Path:    "/api/verifyLogin",
				Body:    credentials("test@test.com", "test12345"),
				Expect:  harness.Expect(200),
			},
			{
				Name:    "verify login without email parameter",
				Method:  "POST",
				BaseURL: site,
				Path:    "/api/verifyLogin",
				Body:    harness.JSONBody(map[string]interface{}{"password": "test12345"}),
				Expect:  harness.Expect(200, harness.Contains(MsgLoginMissing)),
			},
			{
				Name:        "delete to verify login",
				Method:      "DELETE",
				BaseURL:     site,
				Path:        "/api/verifyLogin",
				ContentType: "application/json",
				Expect:      harness.Expect(200, harness.Contains(MsgMethodNotSupported)),
			},
			{
				Name:    "verify login with invalid details",
				Method:  "POST",
				BaseURL: site,
				Path:    "/api/verifyLogin",
				Body:    credentials("t@test.com", "tt2025"),
				Expect:  harness.Expect(200, harness.NotContains(MsgUserNotFound)),
			},
			{
				Name:    "create user account",
				Method:  "POST",
				BaseURL: site,
				Path:    "/api/createAccount",
				Body:    harness.JSONBody(jsonFields(JohnDoe())),
				Expect:  harness.Expect(200),
			},
			{
				Name:    "delete user account",
				Method:  "DELETE",
				BaseURL: site,
				Path:    "/api/deleteAccount",
				Body:    credentials("test@test.com", "test12345"),
				Expect:  harness.Expect(200),
			},
			{
				Name:    "update user account",
				Method:  "PUT",
				BaseURL: site,
				Path:    "/api/updateAccount/" + johnDoeEmail,
				Body:    harness.JSONBody(jsonFields(JohnDoeUpdated())),
				Expect:  harness.Expect(404),
			},
			{
				Name:    "get user account detail by email",
				BaseURL: api,
				Path:    "/getUserDetailByEmail?email=registered_user@example.com",
				Expect:  harness.Expect(200),
			},
		},
		Scenarios: []harness.Scenario{
			AccountLifecycle(NewAccount(UniqueEmail())),
		},
	}
}

func credentials(email, password string) harness.Body {
	return harness.JSONBody(map[string]interface{}{
		"email":    email,
		"password": password,
	})
}

// Names returns the case names in declaration order, scenarios excluded.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c.Cases))
	for _, tc := range c.Cases {
		names = append(names, tc.Name)
	}
	return names
}

// Find returns the case called name.
func (c Catalog) Find(name string) (harness.TestCase, bool) {
	for _, tc := range c.Cases {
		if tc.Name == name {
			return tc, true
		}
	}
	return harness.TestCase{}, false
}

// FindScenario returns the scenario called name.
func (c Catalog) FindScenario(name string) (harness.Scenario, bool) {
	for _, sc := range c.Scenarios {
		if sc.Name == name {
			return sc, true
		}
	}
	return harness.Scenario{}, false
}

// Select narrows the catalog to the cases and scenarios f matches. A
// scenario is kept or dropped as a whole, by its own name.
func (c Catalog) Select(f harness.Filter) Catalog {
	out := Catalog{BaseURL: c.BaseURL, Cases: f.Apply(c.Cases)}
	for _, sc := range c.Scenarios {
		if f.Match(sc.Name) {
			out.Scenarios = append(out.Scenarios, sc)
		}
	}
	return out
}

// Validate checks that every case is runnable: names are unique and present,
// and every body predicate is well formed.
func (c Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Cases))
	check := func(tc harness.TestCase) error {
		if tc.Name == "" {
			return invalid("case without a name", tc)
		}
		if tc.Path == "" {
			return invalid("case without a path", tc)
		}
		if err := tc.Body.Validate(); err != nil {
			return withCase(err, tc)
		}
		for _, p := range tc.Expect.Body {
			if err := p.Validate(); err != nil {
				return withCase(err, tc)
			}
		}
		return nil
	}

	for _, tc := range c.Cases {
		if err := check(tc); err != nil {
			return err
		}
		if seen[tc.Name] {
			return invalid("duplicate case name", tc)
		}
		seen[tc.Name] = true
	}
	for _, sc := range c.Scenarios {
		if sc.Name == "" || len(sc.Steps) == 0 {
			return invalid("scenario needs a name and at least one step", harness.TestCase{Name: sc.Name})
		}
		for _, step := range sc.Steps {
			if err := check(step); err != nil {
				return err
			}
		}
	}
	return nil
}
