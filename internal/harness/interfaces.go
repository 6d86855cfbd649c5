package harness

import (
	"context"
	"net/http"
)

// HTTPClientProvider is the transport the executor sends requests through.
// *http.Client and transport.Client both satisfy it.
type HTTPClientProvider interface {
	Do(req *http.Request) (*http.Response, error)
}

// RequestSigner mutates a fully built request before it is sent, e.g. to add
// an AWS SigV4 signature. body is the encoded payload (nil when empty).
type RequestSigner interface {
	Sign(ctx context.Context, req *http.Request, body []byte) error
}

// Observer is notified as cases start and finish. Calls may arrive from
// several goroutines when a suite runs in parallel; the suite serializes them.
type Observer interface {
	CaseStarted(tc TestCase)
	CaseFinished(outcome Outcome)
}
