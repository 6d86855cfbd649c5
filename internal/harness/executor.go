package harness

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/brendan.keane/shopcheck/internal/errors"
	"github.com/brendan.keane/shopcheck/internal/logger"
)

// Executor runs single test cases. It holds no per-case state and is safe
// for concurrent use.
type Executor struct {
	logger         zerolog.Logger
	httpClient     HTTPClientProvider
	requestBuilder *RequestBuilder
}

// ExecutorOption customizes an Executor
type ExecutorOption func(*executorOptions)

type executorOptions struct {
	signer RequestSigner
}

// WithSigner signs every request before it is sent.
func WithSigner(signer RequestSigner) ExecutorOption {
	return func(o *executorOptions) {
		o.signer = signer
	}
}

// NewExecutor creates an executor that sends requests through httpClient.
func NewExecutor(log zerolog.Logger, httpClient HTTPClientProvider, opts ...ExecutorOption) *Executor {
	var o executorOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Executor{
		logger:         logger.ForComponent(log, "executor"),
		httpClient:     httpClient,
		requestBuilder: NewRequestBuilder(log, o.signer),
	}
}

// RunCase executes tc against httpClient with a nop logger.
func RunCase(ctx context.Context, httpClient HTTPClientProvider, cfg ClientConfig, tc TestCase) Outcome {
	return NewExecutor(zerolog.Nop(), httpClient).RunCase(ctx, cfg, tc)
}

// RunCase builds the request for tc, sends it under cfg.Timeout, and
// evaluates the expectation. It never returns an error: every failure is
// reported in the Outcome.
func (e *Executor) RunCase(ctx context.Context, cfg ClientConfig, tc TestCase) Outcome {
	log := logger.ForCase(e.logger, tc.Name, tc.HTTPMethod(), tc.Path)
	start := time.Now()

	baseURL := cfg.BaseURL
	if tc.BaseURL != "" {
		baseURL = tc.BaseURL
	}
	targetURL, err := ResolveURL(baseURL, tc.Path, tc.Query)
	if err != nil {
		log.Error().Err(err).Msg("failed to resolve target URL")
		return failedWith(tc, "", err, time.Since(start))
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := e.requestBuilder.Build(ctx, cfg, tc, targetURL)
	if err != nil {
		log.Error().Err(err).Msg("failed to build HTTP request")
		return failedWith(tc, targetURL, err, time.Since(start))
	}

	log.Debug().Str("target_url", targetURL).Dur("timeout", timeout).Msg("sending request")

	resp, err := e.send(ctx, req, targetURL)
	duration := time.Since(start)
	if err != nil {
		log.Info().Err(err).Dur("duration", duration).Msg("HTTP request failed")
		return failedWith(tc, targetURL, err, duration)
	}

	log.Debug().
		Int("status", resp.StatusCode).
		Int("body_length", len(resp.Body)).
		Dur("duration", duration).
		Msg("HTTP request completed")

	outcome := Evaluate(tc, resp)
	outcome.URL = targetURL
	outcome.Duration = duration

	if outcome.Passed {
		log.Info().Dur("duration", duration).Msg("case passed")
	} else {
		log.Info().Str("kind", string(outcome.Kind)).Strs("details", outcome.Details()).Msg("case failed")
	}
	return outcome
}

// send performs the request and reads the whole body while ctx is live, so
// a timeout during the body read is reported as a network error too.
func (e *Executor) send(ctx context.Context, req *http.Request, targetURL string) (*Response, error) {
	start := time.Now()
	httpResp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(networkCause(ctx, err), errors.ErrorTypeNetwork, "HTTP request failed").
			WithContext("url", targetURL).
			WithContext("duration", time.Since(start))
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.Wrap(networkCause(ctx, err), errors.ErrorTypeNetwork, "failed to read response body").
			WithContext("url", targetURL).
			WithContext("status", httpResp.StatusCode)
	}

	return NewResponse(httpResp.StatusCode, httpResp.Header, string(body), time.Since(start)), nil
}

// networkCause prefers the context error when the deadline fired, so
// timeouts read as "context deadline exceeded" rather than a wrapped url.Error.
func networkCause(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// Evaluate checks resp against the expectation of tc.
func Evaluate(tc TestCase, resp *Response) Outcome {
	var failures []Mismatch

	if want := tc.Expect.Status; want != nil && resp.StatusCode != *want {
		failures = append(failures, Mismatch{
			Check:    "status code",
			Expected: strconv.Itoa(*want),
			Actual:   strconv.Itoa(resp.StatusCode),
		})
	}

	for _, predicate := range tc.Expect.Body {
		mismatch, err := predicate.Evaluate(resp)
		if err != nil {
			outcome := failedWith(tc, "", err, resp.Duration)
			outcome.Response = resp
			outcome.Failures = failures
			return outcome
		}
		if mismatch != nil {
			failures = append(failures, *mismatch)
		}
	}

	if len(failures) > 0 {
		return Outcome{
			Case:     tc,
			Kind:     errors.ErrorTypeAssertion,
			Failures: failures,
			Response: resp,
			Duration: resp.Duration,
		}
	}
	return passed(tc, "", resp, resp.Duration)
}
