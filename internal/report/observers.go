package report

import (
	"github.com/rs/zerolog"

	"github.com/brendan.keane/shopcheck/internal/harness"
)

// Observers fans case events out to several observers in order.
type Observers []harness.Observer

func (obs Observers) CaseStarted(tc harness.TestCase) {
	for _, o := range obs {
		o.CaseStarted(tc)
	}
}

func (obs Observers) CaseFinished(outcome harness.Outcome) {
	for _, o := range obs {
		o.CaseFinished(outcome)
	}
}

// LogObserver writes case events to a zerolog logger. Used with JSON log
// output, where colored console lines would corrupt the stream.
type LogObserver struct {
	Logger zerolog.Logger
}

func (l LogObserver) CaseStarted(tc harness.TestCase) {
	l.Logger.Debug().Str("case", tc.Name).Msg("case started")
}

func (l LogObserver) CaseFinished(o harness.Outcome) {
	switch {
	case o.Skipped:
		l.Logger.Info().Str("case", o.Case.Name).Str("result", "skip").Str("reason", o.SkipReason).Msg("case finished")
	case o.Passed:
		l.Logger.Info().Str("case", o.Case.Name).Str("result", "pass").Dur("duration", o.Duration).Msg("case finished")
	default:
		l.Logger.Error().
			Str("case", o.Case.Name).
			Str("result", "fail").
			Str("kind", string(o.Kind)).
			Strs("details", o.Details()).
			Dur("duration", o.Duration).
			Msg("case finished")
	}
}
