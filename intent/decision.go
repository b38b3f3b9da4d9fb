package intent

import "strings"

// Action is the reevaluation verdict the model returns after a plan
// step completes.
type Action string

const (
	ActionContinue   Action = "continue"
	ActionUpdatePlan Action = "update_plan"
	ActionComplete   Action = "complete"
	ActionAbort      Action = "abort"
)

// Decision is the model's judgement of plan progress after one step.
type Decision struct {
	Action      Action
	Reason      string
	UpdatedPlan *Plan
}

// ParseDecision extracts a reevaluation decision from a model reply.
// This is a deliberately narrower parser than Normalize: it looks for
// the DECISION token and, for update_plan, delegates to the shared plan
// matcher. A missing or unrecognizable decision defaults to continue —
// aborting a plan on a parse hiccup would be worse than proceeding.
func ParseDecision(raw string) Decision {
	dirs := tokenize(stripMarkup(raw))

	decision := Decision{Action: ActionContinue}
	for _, d := range dirs {
		switch d.kind {
		case dirDecision:
			switch strings.ToLower(firstLine(d.value)) {
			case "continue":
				decision.Action = ActionContinue
			case "update_plan":
				decision.Action = ActionUpdatePlan
			case "complete":
				decision.Action = ActionComplete
			case "abort":
				decision.Action = ActionAbort
			}
		case dirReason:
			decision.Reason = firstLine(d.value)
		}
	}

	if decision.Action == ActionUpdatePlan {
		// A replacement plan may legitimately have a single step.
		decision.UpdatedPlan = matchPlan(dirs, 1)
	}
	return decision
}
