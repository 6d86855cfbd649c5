package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/brendan.keane/shopcheck/internal/errors"
)

const userAgent = "shopcheck"

// RequestBuilder turns a TestCase into an *http.Request
type RequestBuilder struct {
	logger zerolog.Logger
	signer RequestSigner
}

// NewRequestBuilder creates a new request builder. signer may be nil.
func NewRequestBuilder(logger zerolog.Logger, signer RequestSigner) *RequestBuilder {
	return &RequestBuilder{
		logger: logger.With().Str("component", "request_builder").Logger(),
		signer: signer,
	}
}

// Build creates the request for tc against targetURL with headers, body and
// content type applied.
func (b *RequestBuilder) Build(ctx context.Context, cfg ClientConfig, tc TestCase, targetURL string) (*http.Request, error) {
	method := tc.HTTPMethod()
	logger := b.logger.With().
		Str("method", method).
		Str("target_url", targetURL).
		Logger()

	payload, bodyType, err := encodeBody(tc.Body)
	if err != nil {
		return nil, err
	}

	var requestBody io.Reader
	if payload != nil {
		requestBody = bytes.NewReader(payload)
		logger.Debug().
			Int("body_length", len(payload)).
			Msg("request body added")
	}

	req, err := http.NewRequestWithContext(ctx, method, targetURL, requestBody)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, "failed to create HTTP request").
			WithContext("method", method).
			WithContext("url", targetURL)
	}

	req.Header.Set("User-Agent", userAgent)
	for name, value := range cfg.Headers {
		req.Header.Set(name, value)
	}
	for name, value := range tc.Headers {
		req.Header.Set(name, value)
	}

	// An explicit content type is sent even without a body
	if req.Header.Get("Content-Type") == "" {
		contentType := tc.ContentType
		if contentType == "" && payload != nil {
			contentType = bodyType
			if contentType == "" {
				contentType = cfg.ContentType
			}
			if contentType == "" {
				contentType = detectContentType(string(payload))
			}
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
			logger.Debug().Str("content_type", contentType).Msg("content type set")
		}
	}

	if b.signer != nil {
		if err := b.signer.Sign(ctx, req, payload); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to sign request").
				WithContext("config_type", "auth")
		}
		logger.Debug().Msg("request signed")
	}

	return req, nil
}

// encodeBody returns the payload bytes and, for structured bodies, the
// content type that describes them.
func encodeBody(body Body) ([]byte, string, error) {
	switch {
	case body.JSON != nil:
		payload, err := json.Marshal(body.JSON)
		if err != nil {
			return nil, "", errors.Wrap(err, errors.ErrorTypeValidation, "failed to encode JSON body")
		}
		return payload, "application/json", nil
	case body.Form != nil:
		values := url.Values{}
		for key, value := range body.Form {
			values.Set(key, value)
		}
		return []byte(values.Encode()), "application/x-www-form-urlencoded", nil
	case body.Raw != "":
		return []byte(body.Raw), "", nil
	}
	return nil, "", nil
}

// detectContentType guesses the Content-Type of a raw body
func detectContentType(data string) string {
	trimmed := strings.TrimSpace(data)

	if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
		return "application/json"
	}

	return "application/x-www-form-urlencoded"
}
