package transport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brendan.keane/shopcheck/internal/errors"
	"github.com/brendan.keane/shopcheck/internal/harness"
	"github.com/brendan.keane/shopcheck/internal/testutil"
)

type fakeInvoker struct {
	response events.APIGatewayV2HTTPResponse
	funcErr  *string
	err      error

	inputs []*lambda.InvokeInput
}

func (f *fakeInvoker) Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	payload, err := json.Marshal(f.response)
	if err != nil {
		return nil, err
	}
	return &lambda.InvokeOutput{StatusCode: 200, Payload: payload, FunctionError: f.funcErr}, nil
}

func (f *fakeInvoker) lastEvent(t *testing.T) events.APIGatewayV2HTTPRequest {
	t.Helper()
	require.NotEmpty(t, f.inputs)
	var event events.APIGatewayV2HTTPRequest
	require.NoError(t, json.Unmarshal(f.inputs[len(f.inputs)-1].Payload, &event))
	return event
}

func TestClient_HTTP(t *testing.T) {
	shop := testutil.NewShopServer()
	defer shop.Close()

	client := NewClient(zerolog.Nop(), WithTimeout(5*time.Second), WithAWSConfigLoader(func(ctx context.Context) (aws.Config, error) {
		t.Fatal("plain HTTP must not load AWS configuration")
		return aws.Config{}, nil
	}))

	req, err := http.NewRequest(http.MethodGet, shop.APIURL()+"/brandsList", nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Polo")
}

func TestClient_CustomHTTPClient(t *testing.T) {
	srv := testutil.NewSlowServer(2 * time.Second)
	defer srv.Close()

	client := NewClient(zerolog.Nop(), WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	_, err = client.Do(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Client.Timeout")
}

func TestClient_Lambda(t *testing.T) {
	invoker := &fakeInvoker{response: events.APIGatewayV2HTTPResponse{
		StatusCode: 200,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       `{"responseCode": 200, "brands": []}`,
	}}
	client := NewClient(zerolog.Nop(), WithLambdaInvoker(invoker))

	req, err := http.NewRequest(http.MethodPost, "lambda://shop-api/api/searchProduct?page=2", strings.NewReader("search_product=top"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, `{"responseCode": 200, "brands": []}`, string(body))

	require.Len(t, invoker.inputs, 1)
	assert.Equal(t, "shop-api", aws.ToString(invoker.inputs[0].FunctionName))

	event := invoker.lastEvent(t)
	assert.Equal(t, "POST /api/searchProduct", event.RouteKey)
	assert.Equal(t, "/api/searchProduct", event.RawPath)
	assert.Equal(t, "page=2", event.RawQueryString)
	assert.Equal(t, "2", event.QueryStringParameters["page"])
	assert.Equal(t, "search_product=top", event.Body)
	assert.False(t, event.IsBase64Encoded)
	assert.Equal(t, "application/x-www-form-urlencoded", event.Headers["content-type"])
	assert.Equal(t, "POST", event.RequestContext.HTTP.Method)
}

func TestClient_LambdaThroughExecutor(t *testing.T) {
	invoker := &fakeInvoker{response: events.APIGatewayV2HTTPResponse{
		StatusCode: 200,
		Body:       `{"responseCode": 405, "message": "This request method is not supported."}`,
	}}
	client := NewClient(zerolog.Nop(), WithLambdaInvoker(invoker))

	tc := harness.TestCase{
		Name:   "put to all brands list",
		Method: "PUT",
		Path:   "/api/brandsList",
		Expect: harness.Expect(200, harness.FieldEquals("responseCode", 405)),
	}
	outcome := harness.RunCase(context.Background(), client, harness.DefaultClientConfig("lambda://shop-api"), tc)

	assert.True(t, outcome.Passed, outcome.Details())
	assert.Equal(t, "lambda://shop-api/api/brandsList", outcome.URL)
	assert.Equal(t, "PUT /api/brandsList", invoker.lastEvent(t).RouteKey)
}

func TestClient_LambdaErrors(t *testing.T) {
	unhandled := "Unhandled"

	tests := []struct {
		name    string
		url     string
		invoker *fakeInvoker
		loadErr error
		errType errors.ErrorType
	}{
		{
			name:    "missing function name",
			url:     "lambda:///api/brandsList",
			invoker: &fakeInvoker{},
			errType: errors.ErrorTypeValidation,
		},
		{
			name:    "invoke failure",
			url:     "lambda://shop-api/api/brandsList",
			invoker: &fakeInvoker{err: fmt.Errorf("AccessDeniedException")},
			errType: errors.ErrorTypeNetwork,
		},
		{
			name:    "function error",
			url:     "lambda://shop-api/api/brandsList",
			invoker: &fakeInvoker{funcErr: &unhandled},
			errType: errors.ErrorTypeNetwork,
		},
		{
			name:    "no aws config",
			url:     "lambda://shop-api/api/brandsList",
			loadErr: fmt.Errorf("no region"),
			errType: errors.ErrorTypeConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := []Option{WithAWSConfigLoader(func(ctx context.Context) (aws.Config, error) {
				return aws.Config{}, tt.loadErr
			})}
			if tt.invoker != nil {
				opts = append(opts, WithLambdaInvoker(tt.invoker))
			}
			client := NewClient(zerolog.Nop(), opts...)

			req, err := http.NewRequest(http.MethodGet, tt.url, nil)
			require.NoError(t, err)
			_, err = client.Do(req)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.errType), "got %v", err)
		})
	}
}

func TestEventToResponse(t *testing.T) {
	t.Run("base64 body", func(t *testing.T) {
		payload, _ := json.Marshal(events.APIGatewayV2HTTPResponse{
			StatusCode:      201,
			Body:            base64.StdEncoding.EncodeToString([]byte("User created!")),
			IsBase64Encoded: true,
			Cookies:         []string{"session=abc"},
		})
		resp, err := eventToResponse(payload)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "User created!", string(body))
		assert.Equal(t, 201, resp.StatusCode)
		assert.Equal(t, "session=abc", resp.Header.Get("Set-Cookie"))
	})

	t.Run("missing status defaults to 200", func(t *testing.T) {
		resp, err := eventToResponse([]byte(`{"body": "ok"}`))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("not a proxy response", func(t *testing.T) {
		_, err := eventToResponse([]byte("Task timed out"))
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeMalformedResponse))
	})
}

func TestRequestToEvent_BinaryBody(t *testing.T) {
	data := []byte{0xff, 0xfe, 0x00}
	req, err := http.NewRequest(http.MethodPut, "lambda://fn/upload", strings.NewReader(string(data)))
	require.NoError(t, err)

	event, err := requestToEvent(req, time.Unix(0, 0))
	require.NoError(t, err)
	assert.True(t, event.IsBase64Encoded)
	assert.Equal(t, base64.StdEncoding.EncodeToString(data), event.Body)

	// body is restored for the caller
	again, _ := io.ReadAll(req.Body)
	assert.Equal(t, data, again)
}
