package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brendan.keane/shopcheck/internal/errors"
	"github.com/brendan.keane/shopcheck/internal/testutil"
)

func TestExecutor_RunCase(t *testing.T) {
	tests := []struct {
		name       string
		tc         TestCase
		mockStatus int
		mockBody   string
		mockError  error
		passed     bool
		kind       errors.ErrorType
	}{
		{
			name:       "status matches",
			tc:         TestCase{Name: "list", Path: "/productsList", Expect: Expect(200)},
			mockStatus: 200,
			mockBody:   `{"responseCode": 200}`,
			passed:     true,
		},
		{
			name:       "status differs",
			tc:         TestCase{Name: "update", Method: "PUT", Path: "/updateAccount/x", Expect: Expect(404)},
			mockStatus: 200,
			mockBody:   `{}`,
			kind:       errors.ErrorTypeAssertion,
		},
		{
			name:       "body field in error object",
			tc:         TestCase{Name: "search", Method: "POST", Path: "/searchProduct", Expect: ExpectBody(FieldEquals("responseCode", 400))},
			mockStatus: 200,
			mockBody:   searchMissingBody,
			passed:     true,
		},
		{
			name:       "json field on html body",
			tc:         TestCase{Name: "search", Method: "POST", Path: "/searchProduct", Expect: ExpectBody(FieldEquals("responseCode", 400))},
			mockStatus: 502,
			mockBody:   "<html>Bad Gateway</html>",
			kind:       errors.ErrorTypeMalformedResponse,
		},
		{
			name:      "transport error",
			tc:        TestCase{Name: "list", Path: "/productsList", Expect: Expect(200)},
			mockError: fmt.Errorf("dial tcp: lookup automationexercise.com: no such host"),
			kind:      errors.ErrorTypeNetwork,
		},
		{
			name: "no base url",
			tc:   TestCase{Name: "list", BaseURL: "", Path: "relative", Expect: Expect(200)},
			kind: errors.ErrorTypeConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testutil.NewMockHTTPClient(tt.mockBody, tt.mockStatus, nil, tt.mockError)
			cfg := DefaultClientConfig("https://automationexercise.com/api")
			if tt.kind == errors.ErrorTypeConfig {
				cfg.BaseURL = ""
			}

			outcome := NewExecutor(zerolog.Nop(), client).RunCase(context.Background(), cfg, tt.tc)

			assert.Equal(t, tt.passed, outcome.Passed, "passed; details: %v", outcome.Details())
			assert.Equal(t, tt.kind, outcome.Kind)
			if tt.passed {
				assert.NoError(t, outcome.Error())
			} else {
				require.Error(t, outcome.Error())
				assert.True(t, errors.IsType(outcome.Error(), tt.kind))
				assert.NotEmpty(t, outcome.Details())
			}
		})
	}
}

func TestExecutor_ReportsExpectedAndActual(t *testing.T) {
	client := testutil.NewMockHTTPClient(`{"responseCode": 404, "message": "User not found!"}`, 200, nil, nil)
	tc := TestCase{
		Name:   "verify login with invalid details",
		Method: http.MethodPost,
		Path:   "/verifyLogin",
		Expect: Expect(404, NotContains("User not found!"), FieldEquals("responseCode", 200)),
	}

	outcome := RunCase(context.Background(), client, DefaultClientConfig("https://automationexercise.com/api"), tc)

	require.False(t, outcome.Passed)
	require.Len(t, outcome.Failures, 3)
	assert.Equal(t, Mismatch{Check: "status code", Expected: "404", Actual: "200"}, outcome.Failures[0])
	assert.Equal(t, "absent", outcome.Failures[1].Expected)
	assert.Equal(t, "body field responseCode: expected 200, got 404", outcome.Failures[2].String())
	assert.Equal(t, "https://automationexercise.com/api/verifyLogin", outcome.URL)
	require.NotNil(t, outcome.Response)
	assert.Equal(t, 200, outcome.Response.StatusCode)
}

func TestRequestBuilder_Bodies(t *testing.T) {
	tests := []struct {
		name        string
		tc          TestCase
		contentType string
		body        string
	}{
		{
			name:        "json body",
			tc:          TestCase{Method: "POST", Path: "/searchProduct", Body: JSONBody(map[string]interface{}{"search_product": "top"})},
			contentType: "application/json",
			body:        `{"search_product":"top"}`,
		},
		{
			name:        "form body",
			tc:          TestCase{Method: "POST", Path: "/searchProduct", Body: FormBody(map[string]string{"search_product": "top"})},
			contentType: "application/x-www-form-urlencoded",
			body:        "search_product=top",
		},
		{
			name:        "raw body uses config default",
			tc:          TestCase{Method: "PUT", Path: "/brandsList", Body: Body{Raw: `{"name":"Sample Product"}`}},
			contentType: "application/json",
			body:        `{"name":"Sample Product"}`,
		},
		{
			name:        "explicit content type without body",
			tc:          TestCase{Method: "DELETE", Path: "/verifyLogin", ContentType: "application/json"},
			contentType: "application/json",
		},
		{
			name: "no body no content type",
			tc:   TestCase{Path: "/productsList"},
		},
		{
			name:        "header overrides content type",
			tc:          TestCase{Method: "POST", Path: "/x", Headers: map[string]string{"Content-Type": "text/plain"}, Body: Body{Raw: "hi"}},
			contentType: "text/plain",
			body:        "hi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testutil.NewMockHTTPClient(`{}`, 200, nil, nil)
			RunCase(context.Background(), client, DefaultClientConfig("https://automationexercise.com/api"), tt.tc)

			req := client.LastRequest()
			require.NotNil(t, req)
			assert.Equal(t, tt.contentType, req.Header.Get("Content-Type"))
			assert.Equal(t, tt.body, client.LastBody())
			assert.Equal(t, "shopcheck", req.Header.Get("User-Agent"))
		})
	}
}

func TestRequestBuilder_HeaderPrecedence(t *testing.T) {
	client := testutil.NewMockHTTPClient(`{}`, 200, nil, nil)
	cfg := DefaultClientConfig("https://automationexercise.com/api")
	cfg.Headers = map[string]string{"X-Env": "ci", "Accept": "text/plain"}
	tc := TestCase{Path: "/productsList", Headers: map[string]string{"Accept": "application/json"}}

	RunCase(context.Background(), client, cfg, tc)

	req := client.LastRequest()
	assert.Equal(t, "ci", req.Header.Get("X-Env"))
	assert.Equal(t, "application/json", req.Header.Get("Accept"))
}

type recordingSigner struct {
	bodies []string
}

func (s *recordingSigner) Sign(ctx context.Context, req *http.Request, body []byte) error {
	s.bodies = append(s.bodies, string(body))
	req.Header.Set("Authorization", "signed")
	return nil
}

func TestExecutor_WithSigner(t *testing.T) {
	client := testutil.NewMockHTTPClient(`{}`, 200, nil, nil)
	signer := &recordingSigner{}
	exec := NewExecutor(zerolog.Nop(), client, WithSigner(signer))

	tc := TestCase{Method: "POST", Path: "/searchProduct", Body: JSONBody(map[string]interface{}{"search_product": "top"})}
	outcome := exec.RunCase(context.Background(), DefaultClientConfig("https://automationexercise.com/api"), tc)

	assert.True(t, outcome.Passed)
	assert.Equal(t, []string{`{"search_product":"top"}`}, signer.bodies)
	assert.Equal(t, "signed", client.LastRequest().Header.Get("Authorization"))
}

func TestExecutor_TimeoutIsNetworkError(t *testing.T) {
	server := testutil.NewSlowServer(5 * time.Second)
	defer server.Close()

	cfg := DefaultClientConfig(server.URL)
	cfg.Timeout = 100 * time.Millisecond

	start := time.Now()
	outcome := RunCase(context.Background(), http.DefaultClient, cfg, TestCase{Name: "slow", Path: "/slow", Expect: Expect(200)})
	elapsed := time.Since(start)

	assert.False(t, outcome.Passed)
	assert.Equal(t, errors.ErrorTypeNetwork, outcome.Kind)
	assert.ErrorIs(t, outcome.Err, context.DeadlineExceeded)
	assert.Less(t, elapsed, 2*time.Second, "run must be bounded by the timeout")
}

func TestExecutor_ConnectionRefused(t *testing.T) {
	server := testutil.NewTextServer(200, "ok")
	url := server.URL
	server.Close()

	outcome := RunCase(context.Background(), http.DefaultClient, DefaultClientConfig(url), TestCase{Name: "gone", Path: "/", Expect: Expect(200)})

	assert.Equal(t, errors.ErrorTypeNetwork, outcome.Kind)
	assert.Equal(t, url+"/", outcome.URL)
}

func TestExecutor_ShopServer(t *testing.T) {
	shop := testutil.NewShopServer()
	defer shop.Close()
	cfg := DefaultClientConfig(shop.APIURL())

	t.Run("search with form body finds products", func(t *testing.T) {
		tc := TestCase{
			Name:   "search",
			Method: "POST",
			Path:   "/searchProduct",
			Body:   FormBody(map[string]string{"search_product": "top"}),
			Expect: Expect(200, FieldEquals("responseCode", 200), FieldEquals("products[0].name", "Blue Top")),
		}
		outcome := RunCase(context.Background(), http.DefaultClient, cfg, tc)
		assert.True(t, outcome.Passed, outcome.Details())
	})

	t.Run("per-case base url does not leak into config", func(t *testing.T) {
		tc := TestCase{Name: "brands", BaseURL: shop.URL, Path: "/api/brandsList", Expect: Expect(200)}
		outcome := RunCase(context.Background(), http.DefaultClient, cfg, tc)
		assert.True(t, outcome.Passed, outcome.Details())
		assert.Equal(t, shop.APIURL(), cfg.BaseURL)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(outcome.Response.Body), &body))
		assert.Contains(t, body, "brands")
	})
}
