package config

import (
	"context"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/brendan.keane/shopcheck/internal/errors"
	"github.com/brendan.keane/shopcheck/internal/harness"
	"github.com/brendan.keane/shopcheck/internal/logger"
)

// Environment variables consulted when the matching flag is not set
const (
	EnvBaseURL = "SHOPCHECK_BASE_URL"
	EnvTimeout = "SHOPCHECK_TIMEOUT"
	EnvCases   = "SHOPCHECK_CASES"
	EnvOpenAPI = "SHOPCHECK_OPENAPI"
)

// Log output formats
const (
	LogFormatPretty = logger.FormatPretty
	LogFormatJSON   = logger.FormatJSON
)

// Config holds the settings of a run
type Config struct {
	// Target
	BaseURL     string
	ContentType string
	Timeout     time.Duration
	Headers     []string

	// Selection
	CasesFile string
	Run       []string
	Skip      []string
	Scenarios bool
	Parallel  int

	// Reports
	JUnitPath string
	ExcelPath string

	// Authentication
	SigV4Enabled bool
	SigV4Service string

	// Output
	Verbose   bool
	Debug     bool
	LogFormat string

	// OpenAPIURL is the document lint checks the catalog against
	OpenAPIURL string
}

// contextKey is a custom type for context keys
type contextKey string

// configKey is the context key for storing config
const configKey contextKey = "config"

// WithConfig adds config to context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) (*Config, bool) {
	cfg, ok := ctx.Value(configKey).(*Config)
	return cfg, ok
}

// NewConfig creates a Config with default values
func NewConfig() *Config {
	return &Config{
		ContentType: harness.DefaultContentType,
		Timeout:     harness.DefaultTimeout,
		Parallel:    1,
		Scenarios:   true,
		LogFormat:   LogFormatPretty,
	}
}

// RegisterOutputFlags adds the logging flags shared by every command.
func RegisterOutputFlags(flags *pflag.FlagSet) {
	flags.BoolP("verbose", "v", false, "Verbose output (request URLs and bodies of failed cases, info logs)")
	flags.Bool("debug", false, "Debug logging")
	flags.String("log-format", LogFormatPretty, "Log format: pretty or json")
}

// RegisterCatalogFlags adds the flags that choose which catalog is used and
// where it points.
func RegisterCatalogFlags(flags *pflag.FlagSet) {
	flags.String("base-url", "", "API base URL, e.g. https://automationexercise.com/api or lambda://fn/api (env: "+EnvBaseURL+")")
	flags.String("cases", "", "YAML case file to use instead of the built-in catalog (env: "+EnvCases+")")
}

// RegisterTargetFlags adds the flags that describe where and how requests
// are sent.
func RegisterTargetFlags(flags *pflag.FlagSet) {
	RegisterCatalogFlags(flags)
	flags.String("content-type", harness.DefaultContentType, "Content-Type for case bodies without an explicit type")
	flags.Duration("timeout", harness.DefaultTimeout, "Per-request timeout (env: "+EnvTimeout+")")
	flags.StringSliceP("header", "H", nil, "Extra header sent with every request, 'Name: value' (repeatable)")
	flags.Bool("sig-v4", false, "Sign requests with AWS SigV4")
	flags.String("sig-v4-service", "execute-api", "AWS service name for SigV4 signing")
}

// RegisterRunFlags adds every flag the run command understands.
func RegisterRunFlags(flags *pflag.FlagSet) {
	RegisterTargetFlags(flags)
	flags.StringArray("run", nil, "Only run cases whose name matches this regex (repeatable)")
	flags.StringArray("skip", nil, "Skip cases whose name matches this regex (repeatable)")
	flags.Bool("scenarios", true, "Run multi-step scenarios after the independent cases")
	flags.Int("parallel", 1, "Number of cases to run at once")
	flags.String("junit", "", "Write a JUnit XML report to this file")
	flags.String("xlsx", "", "Write an Excel report to this file")
}

// RegisterLintFlags adds the flags of the lint command.
func RegisterLintFlags(flags *pflag.FlagSet) {
	RegisterCatalogFlags(flags)
	flags.String("openapi", "", "OpenAPI document to check the catalog against, file or URL (env: "+EnvOpenAPI+")")
	flags.Duration("timeout", harness.DefaultTimeout, "Timeout for fetching the OpenAPI document")
}

// LoadFromFlags creates a Config from command line flags. Flags that were
// not registered on the set keep their defaults.
func LoadFromFlags(flags *pflag.FlagSet) (*Config, error) {
	config := NewConfig()
	var err error

	if config.BaseURL, err = getString(flags, "base-url", config.BaseURL); err != nil {
		return nil, err
	}
	if config.ContentType, err = getString(flags, "content-type", config.ContentType); err != nil {
		return nil, err
	}
	if config.CasesFile, err = getString(flags, "cases", config.CasesFile); err != nil {
		return nil, err
	}
	if config.SigV4Service, err = getString(flags, "sig-v4-service", "execute-api"); err != nil {
		return nil, err
	}
	if config.JUnitPath, err = getString(flags, "junit", ""); err != nil {
		return nil, err
	}
	if config.ExcelPath, err = getString(flags, "xlsx", ""); err != nil {
		return nil, err
	}
	if config.LogFormat, err = getString(flags, "log-format", config.LogFormat); err != nil {
		return nil, err
	}
	if config.OpenAPIURL, err = getString(flags, "openapi", ""); err != nil {
		return nil, err
	}

	if flags.Lookup("timeout") != nil {
		if config.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to get timeout flag")
		}
	}
	if flags.Lookup("parallel") != nil {
		if config.Parallel, err = flags.GetInt("parallel"); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to get parallel flag")
		}
	}
	if flags.Lookup("header") != nil {
		if config.Headers, err = flags.GetStringSlice("header"); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to get header flag")
		}
	}
	if flags.Lookup("run") != nil {
		if config.Run, err = flags.GetStringArray("run"); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to get run flag")
		}
	}
	if flags.Lookup("skip") != nil {
		if config.Skip, err = flags.GetStringArray("skip"); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to get skip flag")
		}
	}

	if config.Scenarios, err = getBool(flags, "scenarios", config.Scenarios); err != nil {
		return nil, err
	}
	if config.SigV4Enabled, err = getBool(flags, "sig-v4", false); err != nil {
		return nil, err
	}
	if config.Verbose, err = getBool(flags, "verbose", false); err != nil {
		return nil, err
	}
	if config.Debug, err = getBool(flags, "debug", false); err != nil {
		return nil, err
	}

	if err := config.applyEnvironment(flags); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnvironment fills settings whose flag was not given on the command
// line from SHOPCHECK_* variables.
func (c *Config) applyEnvironment(flags *pflag.FlagSet) error {
	if !flags.Changed("base-url") {
		if v := os.Getenv(EnvBaseURL); v != "" {
			c.BaseURL = v
		}
	}
	if !flags.Changed("cases") {
		if v := os.Getenv(EnvCases); v != "" {
			c.CasesFile = v
		}
	}
	if !flags.Changed("openapi") {
		if v := os.Getenv(EnvOpenAPI); v != "" {
			c.OpenAPIURL = v
		}
	}
	if !flags.Changed("timeout") {
		if v := os.Getenv(EnvTimeout); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return errors.Wrap(err, errors.ErrorTypeConfig, "invalid "+EnvTimeout).
					WithContext("config_type", "env").
					WithContext("value", v).
					WithContext("suggestion", "use a Go duration such as 10s or 1m")
			}
			c.Timeout = d
		}
	}
	return nil
}

func getString(flags *pflag.FlagSet, name, fallback string) (string, error) {
	if flags.Lookup(name) == nil {
		return fallback, nil
	}
	v, err := flags.GetString(name)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrorTypeConfig, "failed to get %s flag", name)
	}
	return v, nil
}

func getBool(flags *pflag.FlagSet, name string, fallback bool) (bool, error) {
	if flags.Lookup(name) == nil {
		return fallback, nil
	}
	v, err := flags.GetBool(name)
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrorTypeConfig, "failed to get %s flag", name)
	}
	return v, nil
}

// Validate ensures the configuration is valid
func (c *Config) Validate() error {
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Host == "" {
			return errors.New(errors.ErrorTypeValidation, "base URL must be absolute").
				WithContext("field", "base-url").
				WithContext("value", c.BaseURL)
		}
		switch u.Scheme {
		case "http", "https", "lambda":
		default:
			return errors.New(errors.ErrorTypeValidation, "unsupported base URL scheme").
				WithContext("field", "base-url").
				WithContext("value", c.BaseURL).
				WithContext("suggestion", "use http://, https:// or lambda://")
		}
	}

	if c.Timeout <= 0 {
		return errors.New(errors.ErrorTypeValidation, "timeout must be positive").
			WithContext("field", "timeout").
			WithContext("value", c.Timeout.String())
	}

	if c.Parallel < 1 {
		return errors.New(errors.ErrorTypeValidation, "parallel must be at least 1").
			WithContext("field", "parallel").
			WithContext("value", c.Parallel)
	}

	if c.LogFormat != LogFormatPretty && c.LogFormat != LogFormatJSON {
		return errors.New(errors.ErrorTypeValidation, "unknown log format").
			WithContext("field", "log-format").
			WithContext("value", c.LogFormat)
	}

	if _, err := c.HeaderMap(); err != nil {
		return err
	}
	if _, err := c.Filter(); err != nil {
		return err
	}
	return nil
}

// HeaderMap parses the -H values into a header map.
func (c *Config) HeaderMap() (map[string]string, error) {
	headers := make(map[string]string, len(c.Headers))
	for _, h := range c.Headers {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, errors.New(errors.ErrorTypeValidation, "header must be 'Name: value'").
				WithContext("field", "header").
				WithContext("value", h)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}

// Filter compiles the --run and --skip patterns.
func (c *Config) Filter() (harness.Filter, error) {
	return harness.NewFilter(c.Run, c.Skip)
}

// ClientConfig builds the per-run request configuration. baseURL is used
// when no base URL was configured.
func (c *Config) ClientConfig(baseURL string) (harness.ClientConfig, error) {
	headers, err := c.HeaderMap()
	if err != nil {
		return harness.ClientConfig{}, err
	}
	if c.BaseURL != "" {
		baseURL = c.BaseURL
	}
	return harness.ClientConfig{
		BaseURL:     baseURL,
		ContentType: c.ContentType,
		Timeout:     c.Timeout,
		Headers:     headers,
	}, nil
}
