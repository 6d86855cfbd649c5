package transport

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brendan.keane/shopcheck/internal/errors"
	"github.com/brendan.keane/shopcheck/internal/harness"
	"github.com/brendan.keane/shopcheck/internal/testutil"
)

func staticCredentials() aws.CredentialsProvider {
	return aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
		return aws.Credentials{AccessKeyID: "AKIDEXAMPLE", SecretAccessKey: "secret", Source: "test"}, nil
	})
}

func TestSigV4Signer_Sign(t *testing.T) {
	signer := NewSigV4SignerWithCredentials(zerolog.Nop(), staticCredentials(), "eu-west-1", "")
	signer.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	req, err := http.NewRequest(http.MethodPost, "https://abc.execute-api.eu-west-1.amazonaws.com/api/searchProduct", nil)
	require.NoError(t, err)

	require.NoError(t, signer.Sign(context.Background(), req, []byte("search_product=top")))

	auth := req.Header.Get("Authorization")
	assert.True(t, strings.HasPrefix(auth, "AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/20250102/eu-west-1/execute-api/aws4_request"), auth)
	assert.Contains(t, auth, "SignedHeaders=")
	assert.Equal(t, "20250102T030405Z", req.Header.Get("X-Amz-Date"))
}

func TestSigV4Signer_SkipsLambda(t *testing.T) {
	signer := NewSigV4SignerWithCredentials(zerolog.Nop(), staticCredentials(), "eu-west-1", "lambda")

	req, err := http.NewRequest(http.MethodGet, "lambda://shop-api/api/brandsList", nil)
	require.NoError(t, err)
	require.NoError(t, signer.Sign(context.Background(), req, nil))
	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestSigV4Signer_Errors(t *testing.T) {
	t.Run("credentials", func(t *testing.T) {
		failing := aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{}, fmt.Errorf("no credentials")
		})
		signer := NewSigV4SignerWithCredentials(zerolog.Nop(), failing, "eu-west-1", "execute-api")
		req, _ := http.NewRequest(http.MethodGet, "https://example.com/", nil)

		err := signer.Sign(context.Background(), req, nil)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	})

	t.Run("region", func(t *testing.T) {
		_, err := NewSigV4Signer(context.Background(), zerolog.Nop(), "execute-api", func(ctx context.Context) (aws.Config, error) {
			return aws.Config{Credentials: staticCredentials()}, nil
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "region")
	})

	t.Run("loader", func(t *testing.T) {
		_, err := NewSigV4Signer(context.Background(), zerolog.Nop(), "execute-api", func(ctx context.Context) (aws.Config, error) {
			return aws.Config{}, fmt.Errorf("broken profile")
		})
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	})
}

func TestSigV4Signer_ThroughExecutor(t *testing.T) {
	shop := testutil.NewShopServer()
	defer shop.Close()

	signer := NewSigV4SignerWithCredentials(zerolog.Nop(), staticCredentials(), "us-east-1", "")
	exec := harness.NewExecutor(zerolog.Nop(), NewClient(zerolog.Nop()), harness.WithSigner(signer))

	tc := harness.TestCase{
		Name:   "search product",
		Method: "POST",
		Path:   "/searchProduct",
		Body:   harness.FormBody(map[string]string{"search_product": "top"}),
		Expect: harness.Expect(200, harness.FieldEquals("responseCode", 200)),
	}
	outcome := exec.RunCase(context.Background(), harness.DefaultClientConfig(shop.APIURL()), tc)
	assert.True(t, outcome.Passed, outcome.Details())
}
