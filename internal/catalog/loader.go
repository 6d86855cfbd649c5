package catalog

import (
	"bytes"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/brendan.keane/shopcheck/internal/errors"
)

// LoadFile reads a catalog from a YAML (or JSON) case file.
func LoadFile(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, errors.Wrap(err, errors.ErrorTypeConfig, "failed to read case file").
			WithContext("config_type", "cases").
			WithContext("path", path)
	}

	cat, err := Parse(data)
	if err != nil {
		if ce, ok := err.(*errors.CheckError); ok {
			ce.WithContext("path", path)
		}
		return Catalog{}, err
	}
	return cat, nil
}

// Parse decodes and validates a catalog document. Unknown keys are rejected
// so that a misspelled expectation cannot silently pass.
//
//	base_url: https://automationexercise.com/api
//	cases:
//	  - name: search product
//	    method: POST
//	    path: /searchProduct
//	    body:
//	      form: {search_product: top}
//	    expect:
//	      status: 200
//	      body:
//	        - {kind: json_field, path: responseCode, equals: 200}
func Parse(data []byte) (Catalog, error) {
	var cat Catalog

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cat); err != nil {
		return Catalog{}, errors.Wrap(err, errors.ErrorTypeValidation, "failed to parse case file")
	}

	if len(cat.Cases) == 0 && len(cat.Scenarios) == 0 {
		return Catalog{}, errors.New(errors.ErrorTypeValidation, "case file defines no cases")
	}
	if err := cat.Validate(); err != nil {
		return Catalog{}, err
	}
	return cat, nil
}
