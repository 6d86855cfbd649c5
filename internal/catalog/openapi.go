package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/pb33f/libopenapi"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"

	"github.com/brendan.keane/shopcheck/internal/errors"
	"github.com/brendan.keane/shopcheck/internal/harness"
)

// Operation is one method+path pair described by an OpenAPI document. Path
// includes the path of the document's first server, e.g. /api/brandsList.
type Operation struct {
	Method  string
	Path    string
	Summary string
}

// Spec is a parsed OpenAPI v3 document.
type Spec struct {
	model      *libopenapi.DocumentModel[v3.Document]
	serverPath string
}

// LoadSpec reads an OpenAPI document from a local file, a file:// URI or an
// http(s) URL fetched through client.
func LoadSpec(ctx context.Context, client harness.HTTPClientProvider, location string) (*Spec, error) {
	parsed, err := url.Parse(location)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		path := location
		if err == nil && parsed.Scheme == "file" {
			path = parsed.Host + parsed.Path
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to read OpenAPI document").
				WithContext("config_type", "openapi").
				WithContext("path", path)
		}
		return ParseSpec(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, "invalid OpenAPI URL").
			WithContext("url", location)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeNetwork, "failed to fetch OpenAPI document").
			WithContext("url", location)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.ErrorTypeNetwork, "unexpected status code: %d", resp.StatusCode).
			WithContext("url", location).
			WithContext("status", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeNetwork, "failed to read OpenAPI document").
			WithContext("url", location)
	}
	return ParseSpec(data)
}

// ParseSpec builds a v3 model from raw YAML or JSON.
func ParseSpec(data []byte) (*Spec, error) {
	document, err := libopenapi.NewDocument(data)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, "failed to parse OpenAPI document")
	}

	model, errs := document.BuildV3Model()
	if len(errs) > 0 {
		return nil, errors.Newf(errors.ErrorTypeValidation, "building v3 model: %v", errs)
	}

	spec := &Spec{model: model}
	if servers := model.Model.Servers; len(servers) > 0 {
		if u, err := url.Parse(servers[0].URL); err == nil {
			spec.serverPath = strings.TrimRight(u.Path, "/")
		}
	}
	return spec, nil
}

// Operations lists every documented operation, sorted by path then method.
func (s *Spec) Operations() []Operation {
	var ops []Operation
	if s.model.Model.Paths == nil || s.model.Model.Paths.PathItems == nil {
		return ops
	}

	for pattern, item := range s.model.Model.Paths.PathItems.FromOldest() {
		for method, op := range pathOperations(item) {
			ops = append(ops, Operation{
				Method:  method,
				Path:    s.serverPath + pattern,
				Summary: op.Summary,
			})
		}
	}

	sort.Slice(ops, func(i, j int) bool {
		if ops[i].Path != ops[j].Path {
			return ops[i].Path < ops[j].Path
		}
		return methodOrder(ops[i].Method) < methodOrder(ops[j].Method)
	})
	return ops
}

// Describes reports whether the document has an operation for method and
// path. Templated segments such as {email} match any single segment.
func (s *Spec) Describes(method, path string) bool {
	for _, op := range s.Operations() {
		if strings.EqualFold(op.Method, method) && templateMatches(op.Path, path) {
			return true
		}
	}
	return false
}

// Gap is a catalog case whose operation the OpenAPI document does not describe.
type Gap struct {
	Case   string
	Method string
	Path   string
}

func (g Gap) String() string {
	return fmt.Sprintf("%s: %s %s is not documented", g.Case, g.Method, g.Path)
}

// Lint returns the cases in cat, scenario steps included, that exercise an
// operation spec does not describe.
func Lint(cat Catalog, spec *Spec) ([]Gap, error) {
	var gaps []Gap

	check := func(tc harness.TestCase) error {
		base := tc.BaseURL
		if base == "" {
			base = cat.BaseURL
		}
		target, err := harness.ResolveURL(base, tc.Path, nil)
		if err != nil {
			return err
		}
		u, err := url.Parse(target)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeValidation, "invalid case URL").
				WithContext("case", tc.Name)
		}
		if !spec.Describes(tc.HTTPMethod(), u.Path) {
			gaps = append(gaps, Gap{Case: tc.Name, Method: tc.HTTPMethod(), Path: u.Path})
		}
		return nil
	}

	for _, tc := range cat.Cases {
		if err := check(tc); err != nil {
			return nil, err
		}
	}
	for _, sc := range cat.Scenarios {
		for _, step := range sc.Steps {
			step.Name = sc.Name + "/" + step.Name
			if err := check(step); err != nil {
				return nil, err
			}
		}
	}
	return gaps, nil
}

func templateMatches(pattern, path string) bool {
	want := strings.Split(strings.Trim(pattern, "/"), "/")
	got := strings.Split(strings.Trim(path, "/"), "/")
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if strings.HasPrefix(want[i], "{") && strings.HasSuffix(want[i], "}") {
			continue
		}
		if want[i] != got[i] {
			return false
		}
	}
	return true
}

func pathOperations(item *v3.PathItem) map[string]*v3.Operation {
	ops := make(map[string]*v3.Operation)
	if item.Get != nil {
		ops["GET"] = item.Get
	}
	if item.Post != nil {
		ops["POST"] = item.Post
	}
	if item.Put != nil {
		ops["PUT"] = item.Put
	}
	if item.Patch != nil {
		ops["PATCH"] = item.Patch
	}
	if item.Delete != nil {
		ops["DELETE"] = item.Delete
	}
	return ops
}

func methodOrder(method string) int {
	order := map[string]int{"GET": 0, "POST": 1, "PUT": 2, "PATCH": 3, "DELETE": 4}
	if v, ok := order[method]; ok {
		return v
	}
	return 999
}
