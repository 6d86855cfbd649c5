package transport

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/rs/zerolog"

	"github.com/brendan.keane/shopcheck/internal/errors"
	"github.com/brendan.keane/shopcheck/internal/logger"
)

// DefaultSigV4Service is the signing name for API Gateway endpoints
const DefaultSigV4Service = "execute-api"

// SigV4Signer signs requests with AWS Signature Version 4. It implements
// harness.RequestSigner.
type SigV4Signer struct {
	service     string
	region      string
	credentials aws.CredentialsProvider
	signer      *v4.Signer
	now         func() time.Time
	logger      zerolog.Logger
}

// NewSigV4Signer loads credentials and region from the default AWS chain.
func NewSigV4Signer(ctx context.Context, log zerolog.Logger, service string, loader AWSConfigLoader) (*SigV4Signer, error) {
	cfg, err := loader(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to load AWS configuration").
			WithContext("config_type", "auth").
			WithContext("suggestion", "ensure AWS credentials are configured")
	}
	if cfg.Region == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "AWS region not configured").
			WithContext("config_type", "auth").
			WithContext("suggestion", "set AWS_REGION or AWS_DEFAULT_REGION environment variable")
	}
	return NewSigV4SignerWithCredentials(log, cfg.Credentials, cfg.Region, service), nil
}

// NewSigV4SignerWithCredentials creates a signer with explicit credentials.
func NewSigV4SignerWithCredentials(log zerolog.Logger, creds aws.CredentialsProvider, region, service string) *SigV4Signer {
	if service == "" {
		service = DefaultSigV4Service
	}
	return &SigV4Signer{
		service:     service,
		region:      region,
		credentials: creds,
		signer:      v4.NewSigner(),
		now:         time.Now,
		logger:      logger.ForComponent(log, "sigv4"),
	}
}

// Sign adds the SigV4 Authorization header to req. Direct Lambda
// invocations are authorized by the SDK client and are left unsigned.
func (s *SigV4Signer) Sign(ctx context.Context, req *http.Request, body []byte) error {
	if req.URL.Scheme == LambdaScheme {
		s.logger.Debug().Msg("lambda URL detected, skipping SigV4")
		return nil
	}

	creds, err := s.credentials.Retrieve(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to retrieve AWS credentials").
			WithContext("config_type", "auth").
			WithContext("suggestion", "check AWS credential configuration")
	}

	sum := sha256.Sum256(body)
	payloadHash := hex.EncodeToString(sum[:])

	if err := s.signer.SignHTTP(ctx, creds, req, payloadHash, s.service, s.region, s.now()); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to sign request with SigV4").
			WithContext("config_type", "auth").
			WithContext("service", s.service).
			WithContext("region", s.region)
	}

	s.logger.Debug().
		Str("service", s.service).
		Str("region", s.region).
		Msg("SigV4 signature applied")
	return nil
}
