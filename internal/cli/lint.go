package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/brendan.keane/shopcheck/internal/catalog"
	"github.com/brendan.keane/shopcheck/internal/config"
	"github.com/brendan.keane/shopcheck/internal/errors"
	"github.com/brendan.keane/shopcheck/internal/report"
	"github.com/brendan.keane/shopcheck/internal/transport"
)

// LintHandler checks the catalog against an OpenAPI document
type LintHandler struct {
	handler
}

// NewLintHandler creates a new lint command handler
func NewLintHandler(logger zerolog.Logger) *LintHandler {
	return &LintHandler{handler: newHandler(logger, "lint")}
}

// Execute lists catalog operations the OpenAPI document does not describe
// and fails when there are any.
func (h *LintHandler) Execute(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.OpenAPIURL == "" {
		return errors.New(errors.ErrorTypeConfig, "OpenAPI document is required").
			WithContext("config_type", "lint").
			WithContext("suggestion", "use --openapi or set "+config.EnvOpenAPI)
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(commandContext(cmd), cfg.Timeout)
	defer cancel()

	client := transport.NewClient(h.logger, transport.WithTimeout(cfg.Timeout))
	spec, err := catalog.LoadSpec(ctx, client, cfg.OpenAPIURL)
	if err != nil {
		h.logger.Error().Err(err).Str("openapi", cfg.OpenAPIURL).Msg("failed to load OpenAPI document")
		return err
	}
	h.logger.Debug().Int("operations", len(spec.Operations())).Msg("loaded OpenAPI document")

	gaps, err := catalog.Lint(cat, spec)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprint(cmd.OutOrStdout(), report.RenderGaps(gaps)); err != nil {
		return err
	}
	if len(gaps) > 0 {
		return errors.Newf(errors.ErrorTypeValidation, "%d catalog operations are not documented", len(gaps)).
			WithContext("openapi", cfg.OpenAPIURL)
	}
	return nil
}
