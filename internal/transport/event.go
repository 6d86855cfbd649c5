package transport

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"

	"github.com/brendan.keane/shopcheck/internal/errors"
)

// requestToEvent converts req into an API Gateway v2 HTTP proxy event. Bodies
// that are not valid UTF-8 are sent base64-encoded.
func requestToEvent(req *http.Request, now time.Time) (*events.APIGatewayV2HTTPRequest, error) {
	var body string
	var encoded bool
	if req.Body != nil {
		data, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to read request body")
		}
		req.Body = io.NopCloser(bytes.NewReader(data))
		if utf8.Valid(data) {
			body = string(data)
		} else {
			body = base64.StdEncoding.EncodeToString(data)
			encoded = true
		}
	}

	headers := make(map[string]string, len(req.Header))
	for key, values := range req.Header {
		headers[strings.ToLower(key)] = strings.Join(values, ",")
	}

	query := make(map[string]string)
	for key, values := range req.URL.Query() {
		query[key] = strings.Join(values, ",")
	}

	path := req.URL.Path
	if path == "" {
		path = "/"
	}
	routeKey := fmt.Sprintf("%s %s", req.Method, path)

	return &events.APIGatewayV2HTTPRequest{
		Version:               "2.0",
		RouteKey:              routeKey,
		RawPath:               path,
		RawQueryString:        req.URL.RawQuery,
		Headers:               headers,
		QueryStringParameters: query,
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			APIID:        "shopcheck",
			DomainName:   req.URL.Host,
			DomainPrefix: req.URL.Host,
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method:    req.Method,
				Path:      path,
				Protocol:  "HTTP/1.1",
				SourceIP:  "127.0.0.1",
				UserAgent: req.UserAgent(),
			},
			RequestID: fmt.Sprintf("shopcheck-%d", now.UnixNano()),
			RouteKey:  routeKey,
			Stage:     "$default",
			Time:      now.Format("02/Jan/2006:15:04:05 -0700"),
			TimeEpoch: now.UnixMilli(),
		},
		Body:            body,
		IsBase64Encoded: encoded,
	}, nil
}

// eventToResponse converts a proxy response payload into an *http.Response.
func eventToResponse(payload []byte) (*http.Response, error) {
	var out events.APIGatewayV2HTTPResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeMalformedResponse, "failed to parse Lambda response").
			WithContext("payload", string(payload))
	}

	body := []byte(out.Body)
	if out.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(out.Body)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeMalformedResponse, "failed to decode base64 Lambda body")
		}
		body = decoded
	}

	status := out.StatusCode
	if status == 0 {
		status = http.StatusOK
	}

	resp := &http.Response{
		StatusCode:    status,
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Header:        make(http.Header),
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
	}
	for key, value := range out.Headers {
		resp.Header.Set(key, value)
	}
	for key, values := range out.MultiValueHeaders {
		for _, v := range values {
			resp.Header.Add(key, v)
		}
	}
	for _, cookie := range out.Cookies {
		resp.Header.Add("Set-Cookie", cookie)
	}
	return resp, nil
}
