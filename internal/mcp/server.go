// Package mcp exposes the case catalog as Model Context Protocol tools, so an
// assistant can list cases and run them against the configured API.
package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/brendan.keane/shopcheck/internal/catalog"
	"github.com/brendan.keane/shopcheck/internal/errors"
	"github.com/brendan.keane/shopcheck/internal/harness"
	"github.com/brendan.keane/shopcheck/internal/logger"
	"github.com/brendan.keane/shopcheck/internal/report"
)

// Version is reported in the MCP initialize handshake.
const Version = "1.0.0"

// maxBody caps the response body echoed in a failed outcome
const maxBody = 2000

// Server serves the catalog over MCP.
type Server struct {
	logger   zerolog.Logger
	catalog  catalog.Catalog
	config   harness.ClientConfig
	executor *harness.Executor
	mcp      *server.MCPServer
}

// NewServer registers the list_cases, run_case and run_suite tools.
func NewServer(log zerolog.Logger, cat catalog.Catalog, cfg harness.ClientConfig, executor *harness.Executor) *Server {
	s := &Server{
		logger:   logger.ForComponent(log, "mcp_server"),
		catalog:  cat,
		config:   cfg,
		executor: executor,
		mcp:      server.NewMCPServer("shopcheck", Version, server.WithToolCapabilities(false)),
	}

	s.mcp.AddTool(mcp.NewTool("list_cases",
		mcp.WithDescription("List every case and scenario in the catalog with its method, path and expectation."),
	), s.handleListCases)

	s.mcp.AddTool(mcp.NewTool("run_case",
		mcp.WithDescription("Run one case or scenario by name against "+cfg.BaseURL+" and report pass or fail with the mismatches."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Case or scenario name, as returned by list_cases"),
		),
	), s.handleRunCase)

	s.mcp.AddTool(mcp.NewTool("run_suite",
		mcp.WithDescription("Run the whole catalog, optionally narrowed by name regexes, and report a summary."),
		mcp.WithString("run", mcp.Description("Only run cases whose name matches this regex")),
		mcp.WithString("skip", mcp.Description("Skip cases whose name matches this regex")),
	), s.handleRunSuite)

	return s
}

// Start serves MCP over stdin and stdout until stdin closes.
func (s *Server) Start() error {
	s.logger.Debug().
		Int("cases", len(s.catalog.Cases)).
		Str("base_url", s.config.BaseURL).
		Msg("MCP server started, reading from stdin")

	if err := server.ServeStdio(s.mcp); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "MCP server stopped")
	}
	return nil
}

func (s *Server) handleListCases(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "base: %s\n", s.catalog.BaseURL)
	for _, tc := range s.catalog.Cases {
		writeCaseLine(&b, "", tc)
	}
	for _, sc := range s.catalog.Scenarios {
		fmt.Fprintf(&b, "scenario: %s\n", sc.Name)
		for _, step := range sc.Steps {
			writeCaseLine(&b, "  ", step)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func writeCaseLine(b *strings.Builder, indent string, tc harness.TestCase) {
	fmt.Fprintf(b, "%s- %s: %s %s (%s)\n", indent, tc.Name, tc.HTTPMethod(), tc.Path, report.DescribeExpectation(tc.Expect))
}

func (s *Server) handleRunCase(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log := s.logger.With().Str("tool", "run_case").Str("case", name).Logger()

	if tc, ok := s.catalog.Find(name); ok {
		log.Debug().Msg("running case")
		outcome := s.executor.RunCase(ctx, s.config, tc)
		return mcp.NewToolResultText(formatOutcome(outcome)), nil
	}
	if sc, ok := s.catalog.FindScenario(name); ok {
		log.Debug().Int("steps", len(sc.Steps)).Msg("running scenario")
		suite := harness.NewSuite(s.logger, s.executor, s.config)
		var b strings.Builder
		for _, o := range suite.RunScenario(ctx, sc) {
			b.WriteString(formatOutcome(o))
		}
		return mcp.NewToolResultText(b.String()), nil
	}

	log.Warn().Msg("unknown case")
	return mcp.NewToolResultError(fmt.Sprintf("no case or scenario named %q; call list_cases for the names", name)), nil
}

func (s *Server) handleRunSuite(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var include, exclude []string
	if run := req.GetString("run", ""); run != "" {
		include = append(include, run)
	}
	if skip := req.GetString("skip", ""); skip != "" {
		exclude = append(exclude, skip)
	}
	filter, err := harness.NewFilter(include, exclude)
	if err != nil {
		return mcp.NewToolResultError(errors.UserMessage(err)), nil
	}

	selected := s.catalog.Select(filter)
	s.logger.Debug().
		Str("tool", "run_suite").
		Int("cases", len(selected.Cases)).
		Int("scenarios", len(selected.Scenarios)).
		Msg("running suite")

	suite := harness.NewSuite(s.logger, s.executor, s.config)
	results := suite.Run(ctx, selected.Cases, selected.Scenarios)

	var b strings.Builder
	for _, o := range results.Outcomes {
		b.WriteString(formatOutcome(o))
	}
	report.PrintSummary(&b, results)
	return mcp.NewToolResultText(b.String()), nil
}

// formatOutcome renders one outcome the way the console does, without color.
func formatOutcome(o harness.Outcome) string {
	switch {
	case o.Skipped:
		return fmt.Sprintf("SKIP %s (%s)\n", o.Case.Name, o.SkipReason)
	case o.Passed:
		return fmt.Sprintf("PASS %s (%s %s, status %d)\n", o.Case.Name, o.Case.HTTPMethod(), o.URL, o.Response.StatusCode)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "FAIL %s (%s %s)\n", o.Case.Name, o.Case.HTTPMethod(), o.URL)
	for _, line := range o.Details() {
		fmt.Fprintf(&b, "  %s\n", line)
	}
	if o.Response != nil && o.Response.Body != "" {
		fmt.Fprintf(&b, "  body: %s\n", harness.Truncate(o.Response.Body, maxBody))
	}
	return b.String()
}
