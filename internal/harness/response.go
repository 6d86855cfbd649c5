package harness

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/buger/jsonparser"

	"github.com/brendan.keane/shopcheck/internal/errors"
)

// Response is the captured result of one request. It is produced once and
// read-only afterwards; the JSON view is validated lazily on first use.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       string
	Duration   time.Duration

	jsonOnce  sync.Once
	jsonValid bool
}

// NewResponse captures a status, headers and body.
func NewResponse(statusCode int, header http.Header, body string, duration time.Duration) *Response {
	return &Response{
		StatusCode: statusCode,
		Header:     header,
		Body:       body,
		Duration:   duration,
	}
}

// IsJSON reports whether the body is a valid JSON document.
func (r *Response) IsJSON() bool {
	r.jsonOnce.Do(func() {
		r.jsonValid = json.Valid([]byte(r.Body))
	})
	return r.jsonValid
}

// Field extracts the value at a dotted JSON path. found is false when the
// path does not exist. A body that is not JSON yields a malformed_response
// error.
func (r *Response) Field(path string) (value interface{}, found bool, err error) {
	if !r.IsJSON() {
		return nil, false, errors.New(errors.ErrorTypeMalformedResponse, "response body is not valid JSON").
			WithContext("json_path", path).
			WithContext("body", excerpt(r.Body))
	}

	raw, dataType, _, err := jsonparser.Get([]byte(r.Body), jsonKeys(path)...)
	if err == jsonparser.KeyPathNotFoundError {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, errors.ErrorTypeMalformedResponse, "failed to extract JSON field").
			WithContext("json_path", path)
	}

	value, err = decodeValue(raw, dataType)
	if err != nil {
		return nil, false, errors.Wrap(err, errors.ErrorTypeMalformedResponse, "failed to decode JSON field").
			WithContext("json_path", path)
	}
	return value, true, nil
}
