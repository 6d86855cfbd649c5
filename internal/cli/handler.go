// Package cli implements the shopcheck commands on top of cobra.
package cli

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/brendan.keane/shopcheck/internal/catalog"
	"github.com/brendan.keane/shopcheck/internal/config"
	"github.com/brendan.keane/shopcheck/internal/errors"
	"github.com/brendan.keane/shopcheck/internal/harness"
	"github.com/brendan.keane/shopcheck/internal/transport"
)

// loadConfig returns the config stored on the command context, falling back
// to parsing the command's flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if cfg, ok := config.FromContext(commandContext(cmd)); ok {
		return cfg, nil
	}
	cfg, err := config.LoadFromFlags(cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// loadCatalog returns the case file named by --cases, or the built-in
// catalog pointed at the site behind --base-url. Both "https://host" and
// "https://host/api" select the same site.
func loadCatalog(cfg *config.Config) (catalog.Catalog, error) {
	if cfg.CasesFile != "" {
		return catalog.LoadFile(cfg.CasesFile)
	}
	site := catalog.SiteURL
	if cfg.BaseURL != "" {
		site = catalog.SiteFromAPI(cfg.BaseURL)
	}
	return catalog.Builtin(site), nil
}

// target is everything needed to send catalog requests.
type target struct {
	executor *harness.Executor
	config   harness.ClientConfig
}

func (h *handler) newTarget(ctx context.Context, cfg *config.Config, cat catalog.Catalog) (*target, error) {
	clientCfg, err := cfg.ClientConfig(cat.BaseURL)
	if err != nil {
		return nil, err
	}
	if cfg.CasesFile == "" {
		// the built-in catalog derived its API base from --base-url already
		clientCfg.BaseURL = cat.BaseURL
	}
	if clientCfg.BaseURL == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "no base URL").
			WithContext("config_type", "target").
			WithContext("suggestion", "set base_url in the case file, pass --base-url or set "+config.EnvBaseURL)
	}

	client := transport.NewClient(h.logger, transport.WithTimeout(cfg.Timeout), transport.WithAWSConfigLoader(h.awsConfig))

	var opts []harness.ExecutorOption
	if cfg.SigV4Enabled {
		signer, err := transport.NewSigV4Signer(ctx, h.logger, cfg.SigV4Service, h.awsConfig)
		if err != nil {
			return nil, err
		}
		opts = append(opts, harness.WithSigner(signer))
	}

	return &target{
		executor: harness.NewExecutor(h.logger, client, opts...),
		config:   clientCfg,
	}, nil
}

// handler holds what every command handler shares.
type handler struct {
	logger    zerolog.Logger
	awsConfig transport.AWSConfigLoader
}

// HandlerOption customizes a command handler
type HandlerOption func(*handler)

// WithAWSConfigLoader overrides how AWS configuration is loaded for
// lambda:// targets and SigV4 signing.
func WithAWSConfigLoader(loader transport.AWSConfigLoader) HandlerOption {
	return func(h *handler) {
		h.awsConfig = loader
	}
}

func newHandler(log zerolog.Logger, name string, opts ...HandlerOption) handler {
	h := handler{
		logger:    log.With().Str("handler", name).Logger(),
		awsConfig: transport.LoadAWSConfig,
	}
	for _, opt := range opts {
		opt(&h)
	}
	return h
}

// CaseNames lists the case and scenario names of the configured catalog.
func CaseNames(cfg *config.Config) ([]string, error) {
	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}
	names := cat.Names()
	for _, sc := range cat.Scenarios {
		names = append(names, sc.Name)
	}
	return names, nil
}
