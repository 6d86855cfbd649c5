package cli

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/brendan.keane/shopcheck/internal/config"
	"github.com/brendan.keane/shopcheck/internal/errors"
	"github.com/brendan.keane/shopcheck/internal/harness"
	"github.com/brendan.keane/shopcheck/internal/report"
)

// RunHandler runs the catalog and reports the results
type RunHandler struct {
	handler
}

// NewRunHandler creates a new run command handler
func NewRunHandler(logger zerolog.Logger, opts ...HandlerOption) *RunHandler {
	return &RunHandler{handler: newHandler(logger, "run", opts...)}
}

// Execute runs every selected case, prints a line per case and a summary,
// and writes the requested report files. It returns an assertion error when
// any case failed.
func (h *RunHandler) Execute(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load configuration")
		return err
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	filter, err := cfg.Filter()
	if err != nil {
		return err
	}
	selected := cat.Select(filter)
	if !cfg.Scenarios {
		selected.Scenarios = nil
	}
	if len(selected.Cases) == 0 && len(selected.Scenarios) == 0 {
		return errors.New(errors.ErrorTypeValidation, "no cases match the name filters").
			WithContext("field", "run").
			WithContext("run", cfg.Run).
			WithContext("skip", cfg.Skip).
			WithContext("suggestion", "use 'shopcheck list' to see case names")
	}

	ctx := commandContext(cmd)
	tgt, err := h.newTarget(ctx, cfg, cat)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to set up target")
		return err
	}

	out := cmd.OutOrStdout()
	var observer harness.Observer = report.NewConsole(out, cfg.Verbose)
	switch {
	case cfg.LogFormat == config.LogFormatJSON:
		observer = report.LogObserver{Logger: h.logger}
	case cfg.Debug:
		observer = report.Observers{observer, report.LogObserver{Logger: h.logger}}
	}

	h.logger.Debug().
		Str("base_url", tgt.config.BaseURL).
		Int("cases", len(selected.Cases)).
		Int("scenarios", len(selected.Scenarios)).
		Int("parallel", cfg.Parallel).
		Bool("sigv4", cfg.SigV4Enabled).
		Msg("running catalog")

	suite := harness.NewSuite(h.logger, tgt.executor, tgt.config,
		harness.WithParallelism(cfg.Parallel),
		harness.WithObserver(observer),
	)

	started := time.Now()
	results := suite.Run(ctx, selected.Cases, selected.Scenarios)
	report.PrintSummary(out, results)

	if cfg.JUnitPath != "" {
		props := map[string]string{"base_url": tgt.config.BaseURL}
		if err := report.WriteJUnit(cfg.JUnitPath, results, props); err != nil {
			return err
		}
		h.logger.Info().Str("path", cfg.JUnitPath).Msg("wrote JUnit report")
	}
	if cfg.ExcelPath != "" {
		if err := report.WriteExcel(cfg.ExcelPath, results, started); err != nil {
			return err
		}
		h.logger.Info().Str("path", cfg.ExcelPath).Msg("wrote Excel report")
	}

	if failures := results.Failures(); len(failures) > 0 {
		return errors.Newf(errors.ErrorTypeAssertion, "%d of %d cases failed", len(failures), len(results.Outcomes)).
			WithContext("failed", len(failures))
	}
	return nil
}
