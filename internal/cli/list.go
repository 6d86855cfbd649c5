package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/brendan.keane/shopcheck/internal/report"
)

// ListHandler prints the catalog
type ListHandler struct {
	handler
}

// NewListHandler creates a new list command handler
func NewListHandler(logger zerolog.Logger) *ListHandler {
	return &ListHandler{handler: newHandler(logger, "list")}
}

// Execute prints every case and scenario step with its expectation.
func (h *ListHandler) Execute(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load catalog")
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), report.RenderCatalog(cat))
	return err
}
