// Package transport sends harness requests over HTTP, or straight to an AWS
// Lambda function when the target URL uses the lambda:// scheme.
//
//	lambda://<function-name>/<path>?<query>
//
// Lambda requests are converted to API Gateway v2 HTTP proxy events and the
// function's proxy response is converted back into an *http.Response, so the
// harness cannot tell the two apart.
package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/rs/zerolog"

	"github.com/brendan.keane/shopcheck/internal/errors"
	"github.com/brendan.keane/shopcheck/internal/logger"
)

// LambdaScheme routes a request to a Lambda function instead of the network
const LambdaScheme = "lambda"

// LambdaInvoker is the part of the Lambda API the client needs.
// *lambda.Client satisfies it.
type LambdaInvoker interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// AWSConfigLoader loads the shared AWS configuration
type AWSConfigLoader func(ctx context.Context) (aws.Config, error)

// LoadAWSConfig loads the default AWS configuration chain: environment,
// shared config files, then instance metadata.
func LoadAWSConfig(ctx context.Context) (aws.Config, error) {
	return config.LoadDefaultConfig(ctx)
}

// Client implements harness.HTTPClientProvider.
type Client struct {
	http   *http.Client
	logger zerolog.Logger

	loadAWS    AWSConfigLoader
	invokeOnce sync.Once
	invoker    LambdaInvoker
	invokeErr  error
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.http = c
	}
}

// WithTimeout bounds every plain HTTP request.
func WithTimeout(d time.Duration) Option {
	return func(client *Client) {
		if d > 0 {
			client.http = &http.Client{Timeout: d, Transport: client.http.Transport}
		}
	}
}

// WithLambdaInvoker uses invoker for lambda:// requests instead of a client
// built from the default AWS configuration.
func WithLambdaInvoker(invoker LambdaInvoker) Option {
	return func(client *Client) {
		client.invoker = invoker
	}
}

// WithAWSConfigLoader overrides how the AWS configuration is loaded.
func WithAWSConfigLoader(loader AWSConfigLoader) Option {
	return func(client *Client) {
		client.loadAWS = loader
	}
}

// NewClient creates a client. AWS configuration is only loaded the first
// time a lambda:// URL is requested, so plain HTTP runs need no credentials.
func NewClient(log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{},
		logger:  logger.ForComponent(log, "transport"),
		loadAWS: LoadAWSConfig,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do performs the request, routing on the URL scheme.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme == LambdaScheme {
		return c.doLambda(req)
	}
	return c.http.Do(req)
}

func (c *Client) lambdaInvoker(ctx context.Context) (LambdaInvoker, error) {
	c.invokeOnce.Do(func() {
		if c.invoker != nil {
			return
		}
		cfg, err := c.loadAWS(ctx)
		if err != nil {
			c.invokeErr = errors.Wrap(err, errors.ErrorTypeConfig, "failed to load AWS configuration").
				WithContext("config_type", "aws").
				WithContext("suggestion", "ensure AWS credentials and region are configured")
			return
		}
		c.invoker = lambda.NewFromConfig(cfg)
	})
	return c.invoker, c.invokeErr
}

func (c *Client) doLambda(req *http.Request) (*http.Response, error) {
	functionName := req.URL.Host
	if functionName == "" {
		return nil, errors.New(errors.ErrorTypeValidation, "lambda URL missing function name").
			WithContext("url", req.URL.String())
	}

	ctx := req.Context()
	invoker, err := c.lambdaInvoker(ctx)
	if err != nil {
		return nil, err
	}

	event, err := requestToEvent(req, time.Now())
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode Lambda event")
	}

	log := c.logger.With().Str("function", functionName).Str("path", req.URL.Path).Logger()
	log.Debug().Int("payload_length", len(payload)).Msg("invoking Lambda function")

	output, err := invoker.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(functionName),
		InvocationType: types.InvocationTypeRequestResponse,
		Payload:        payload,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeNetwork, "failed to invoke Lambda function").
			WithContext("function", functionName)
	}
	if output.FunctionError != nil {
		return nil, errors.Newf(errors.ErrorTypeNetwork, "Lambda function error: %s", *output.FunctionError).
			WithContext("function", functionName).
			WithContext("payload", string(output.Payload))
	}

	resp, err := eventToResponse(output.Payload)
	if err != nil {
		return nil, err
	}
	resp.Request = req
	log.Debug().Int("status", resp.StatusCode).Msg("Lambda function returned")
	return resp, nil
}
