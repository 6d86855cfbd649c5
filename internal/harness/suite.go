package harness

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/brendan.keane/shopcheck/internal/logger"
)

// Suite runs a list of independent cases and scenarios. A failing case never
// stops the run.
type Suite struct {
	logger   zerolog.Logger
	executor *Executor
	config   ClientConfig
	parallel int
	observer Observer
	mu       sync.Mutex
}

// SuiteOption customizes a Suite
type SuiteOption func(*Suite)

// WithParallelism runs up to n cases at once. Values below 1 mean sequential.
func WithParallelism(n int) SuiteOption {
	return func(s *Suite) {
		s.parallel = n
	}
}

// WithObserver reports case progress to o.
func WithObserver(o Observer) SuiteOption {
	return func(s *Suite) {
		s.observer = o
	}
}

// NewSuite creates a suite that runs cases through executor using cfg.
func NewSuite(log zerolog.Logger, executor *Executor, cfg ClientConfig, opts ...SuiteOption) *Suite {
	s := &Suite{
		logger:   logger.ForComponent(log, "suite"),
		executor: executor,
		config:   cfg,
		parallel: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.parallel < 1 {
		s.parallel = 1
	}
	return s
}

// Run executes cases and then scenarios, returning outcomes in declaration
// order regardless of parallelism.
func (s *Suite) Run(ctx context.Context, cases []TestCase, scenarios []Scenario) Results {
	start := time.Now()
	s.logger.Debug().
		Int("cases", len(cases)).
		Int("scenarios", len(scenarios)).
		Int("parallel", s.parallel).
		Msg("starting run")

	outcomes := s.runCases(ctx, cases)
	for _, sc := range scenarios {
		outcomes = append(outcomes, s.RunScenario(ctx, sc)...)
	}

	results := Results{Outcomes: outcomes, Duration: time.Since(start)}
	pass, fail, skip := results.Counts()
	s.logger.Info().
		Int("passed", pass).
		Int("failed", fail).
		Int("skipped", skip).
		Dur("duration", results.Duration).
		Msg("run finished")
	return results
}

func (s *Suite) runCases(ctx context.Context, cases []TestCase) []Outcome {
	outcomes := make([]Outcome, len(cases))

	if s.parallel == 1 {
		for i, tc := range cases {
			outcomes[i] = s.runOne(ctx, tc)
		}
		return outcomes
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < s.parallel; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = s.runOne(ctx, cases[i])
			}
		}()
	}
	for i := range cases {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

// RunScenario executes the steps of sc in order. Steps after the first
// failure are reported as skipped.
func (s *Suite) RunScenario(ctx context.Context, sc Scenario) []Outcome {
	outcomes := make([]Outcome, 0, len(sc.Steps))
	var failedStep string

	for _, step := range sc.Steps {
		step.Name = sc.Name + "/" + step.Name
		if failedStep != "" {
			outcome := skipped(step, "previous step failed: "+failedStep)
			s.notifyStarted(step)
			s.notifyFinished(outcome)
			outcomes = append(outcomes, outcome)
			continue
		}

		outcome := s.runOne(ctx, step)
		if outcome.Failed() {
			failedStep = step.Name
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (s *Suite) runOne(ctx context.Context, tc TestCase) Outcome {
	s.notifyStarted(tc)
	outcome := s.executor.RunCase(ctx, s.config, tc)
	s.notifyFinished(outcome)
	return outcome
}

func (s *Suite) notifyStarted(tc TestCase) {
	if s.observer == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer.CaseStarted(tc)
}

func (s *Suite) notifyFinished(o Outcome) {
	if s.observer == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer.CaseFinished(o)
}
