package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/brendan.keane/shopcheck/internal/mcp"
)

// MCPHandler handles MCP server commands
type MCPHandler struct {
	handler
}

// NewMCPHandler creates a new MCP command handler
func NewMCPHandler(logger zerolog.Logger, opts ...HandlerOption) *MCPHandler {
	return &MCPHandler{handler: newHandler(logger, "mcp", opts...)}
}

// Server builds the MCP server for the configured catalog and target.
func (h *MCPHandler) Server(cmd *cobra.Command) (*mcp.Server, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load configuration")
		return nil, err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}
	filter, err := cfg.Filter()
	if err != nil {
		return nil, err
	}
	cat = cat.Select(filter)

	tgt, err := h.newTarget(commandContext(cmd), cfg, cat)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to set up target")
		return nil, err
	}

	h.logger.Debug().
		Str("base_url", tgt.config.BaseURL).
		Int("cases", len(cat.Cases)).
		Bool("sigv4", cfg.SigV4Enabled).
		Msg("starting MCP server")

	return mcp.NewServer(h.logger, cat, tgt.config, tgt.executor), nil
}

// Execute serves MCP over stdio until stdin closes.
func (h *MCPHandler) Execute(cmd *cobra.Command, _ []string) error {
	server, err := h.Server(cmd)
	if err != nil {
		return err
	}
	return server.Start()
}
