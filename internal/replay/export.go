package replay

import (
	"encoding/json"

	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/logging"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/orchestrator"
)

// #region export

// FromDecisions builds a fixture from logged decisions, oldest first. Each
// decision becomes a chat turn expecting the recorded tier, handling and
// action. Feature switches come from the first routing record that has them.
// UI events are not logged, so widget registrations must be added by hand.
func FromDecisions(description string, entries []logging.DecisionEntry) *Fixture {
	f := &Fixture{Description: description}
	for _, e := range entries {
		if f.Features == nil && e.RoutingJSON != "" {
			var rec logging.RoutingRecord
			if err := json.Unmarshal([]byte(e.RoutingJSON), &rec); err == nil {
				f.Features = &orchestrator.Features{
					FocusLatch:      rec.Flags.FocusLatch,
					SemanticAnswers: rec.Flags.SemanticAnswers,
					LLMFallback:     rec.Flags.LLMFallback,
				}
			}
		}
		handled := e.Handled
		f.Steps = append(f.Steps, Step{
			Say: e.Input,
			Expect: &Expectation{
				Tier:    e.TierLabel,
				Handled: &handled,
				Action:  e.ActionType,
				Target:  e.TargetID,
			},
		})
	}
	return f
}

// #endregion export
