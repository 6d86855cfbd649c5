package testutil

import (
	"io"
	"net/http"
	"strings"
	"sync"
)

// MockHTTPClient returns a canned response (or error) and records requests.
type MockHTTPClient struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Error      error

	mu       sync.Mutex
	Requests []*http.Request
	Bodies   []string
}

// NewMockHTTPClient creates a mock HTTP client with the given response and error
func NewMockHTTPClient(body string, statusCode int, headers map[string]string, err error) *MockHTTPClient {
	return &MockHTTPClient{
		StatusCode: statusCode,
		Body:       body,
		Headers:    headers,
		Error:      err,
	}
}

// Do implements harness.HTTPClientProvider. Each call gets a fresh body.
func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	var sent string
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		sent = string(b)
	}

	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.Bodies = append(m.Bodies, sent)
	m.mu.Unlock()

	if m.Error != nil {
		return nil, m.Error
	}

	resp := &http.Response{
		StatusCode: m.StatusCode,
		Status:     http.StatusText(m.StatusCode),
		Body:       io.NopCloser(strings.NewReader(m.Body)),
		Header:     make(http.Header),
		Request:    req,
	}
	for key, value := range m.Headers {
		resp.Header.Set(key, value)
	}
	return resp, nil
}

// LastRequest returns the most recent request, or nil.
func (m *MockHTTPClient) LastRequest() *http.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Requests) == 0 {
		return nil
	}
	return m.Requests[len(m.Requests)-1]
}

// LastBody returns the body of the most recent request.
func (m *MockHTTPClient) LastBody() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Bodies) == 0 {
		return ""
	}
	return m.Bodies[len(m.Bodies)-1]
}
