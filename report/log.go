package report

import (
	"github.com/pithecene-io/keyspace/log"
	"github.com/pithecene-io/keyspace/types"
)

// RedactedValue replaces candidate values in log output.
const RedactedValue = "[redacted]"

// LogReporter writes outcomes to a structured logger: rejected at debug,
// transient and gave_up at warn, accepted and terminal at info.
type LogReporter struct {
	logger *log.Logger
	// ShowWinner logs the accepted value in clear text.
	ShowWinner bool
}

// NewLogReporter creates a LogReporter. A nil logger discards output.
func NewLogReporter(logger *log.Logger, showWinner bool) *LogReporter {
	return &LogReporter{logger: logger, ShowWinner: showWinner}
}

// OnOutcome implements Reporter.
func (r *LogReporter) OnOutcome(o types.Outcome) {
	fields := map[string]any{
		"seq":     o.Candidate.Seq,
		"kind":    string(o.Kind),
		"attempt": o.Attempt,
	}
	if o.Cause != nil {
		fields["cause"] = o.Cause.Error()
	}

	switch o.Kind {
	case types.OutcomeAccepted:
		fields["value"] = r.value(o.Candidate)
		fields["evidence_bytes"] = len(o.Evidence)
		r.logger.Info("candidate accepted", fields)
	case types.OutcomeTransient:
		fields["stale"] = types.IsStale(o.Cause)
		r.logger.Warn("transient probe failure", fields)
	case types.OutcomeGaveUp:
		r.logger.Warn("candidate gave up after retries", fields)
	default:
		r.logger.Debug("candidate rejected", fields)
	}
}

// OnTerminal implements Reporter.
func (r *LogReporter) OnTerminal(state types.RunState, winner *types.Candidate) {
	fields := map[string]any{"state": string(state)}
	if winner != nil {
		fields["winner_seq"] = winner.Seq
		fields["winner"] = r.value(*winner)
	}
	r.logger.Info("run finished", fields)
}

func (r *LogReporter) value(c types.Candidate) string {
	if r.ShowWinner {
		return c.Value
	}
	return RedactedValue
}

var _ Reporter = (*LogReporter)(nil)
