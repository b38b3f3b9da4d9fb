package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/adder-cli/adder/conversation"
	"github.com/adder-cli/adder/intent"
	"github.com/adder-cli/adder/llm"
)

// ExecutionStatus classifies how a plan run ended.
type ExecutionStatus int

const (
	// StatusCompleted means every executed step succeeded and the plan
	// ran to its end (or the model declared it complete early).
	StatusCompleted ExecutionStatus = iota
	// StatusCancelled means the user declined the plan or a step.
	StatusCancelled
	// StatusFailed means a step failed and no recovery was possible.
	StatusFailed
	// StatusAborted means the model decided to abandon the plan.
	StatusAborted
)

// StepResult pairs a plan step with its invocation outcome.
type StepResult struct {
	Step   intent.PlanStep
	Result Result
}

// ExecutionResult summarizes one plan run. When a failed plan was
// replaced mid-run the counts and step results describe the
// replacement; a replacement after a success extends them instead.
type ExecutionResult struct {
	PlanName        string
	Status          ExecutionStatus
	Reason          string
	TotalSteps      int
	SuccessfulSteps int
	StepResults     []StepResult
}

// PlanExecutor runs a plan one step at a time through the gateway,
// asking the model to reevaluate after each step when enabled. The
// model can continue, replace the plan, declare it complete, or abort;
// a step failure triggers the same reevaluation as a recovery probe.
type PlanExecutor struct {
	gateway     *Gateway
	client      llm.Client
	reevaluate  bool
	confirm     ConfirmFunc
	onStep      func(step intent.PlanStep, res Result)
	log         *slog.Logger
}

func NewPlanExecutor(gateway *Gateway, client llm.Client, reevaluate bool, confirm ConfirmFunc, onStep func(intent.PlanStep, Result), log *slog.Logger) *PlanExecutor {
	if log == nil {
		log = slog.Default()
	}
	return &PlanExecutor{
		gateway:    gateway,
		client:     client,
		reevaluate: reevaluate,
		confirm:    confirm,
		onStep:     onStep,
		log:        log,
	}
}

// Execute runs the plan. The conversation is read for reevaluation
// context but never mutated; recording results is the caller's job.
func (e *PlanExecutor) Execute(ctx context.Context, conv *conversation.Conversation, plan *intent.Plan) ExecutionResult {
	res := ExecutionResult{PlanName: plan.Name, TotalSteps: len(plan.Steps)}

	if e.confirm != nil && !e.confirm(describePlan(plan)) {
		res.Status = StatusCancelled
		res.Reason = "plan declined by user"
		return res
	}

	steps := plan.Steps
	i := 0
	for i < len(steps) {
		if err := ctx.Err(); err != nil {
			res.Status = StatusAborted
			res.Reason = err.Error()
			return res
		}

		step := steps[i]
		stepRes := e.gateway.Invoke(ctx, intent.ToolCall{
			ID:   fmt.Sprintf("step_%d", step.Number),
			Name: step.Tool,
			Args: step.Args,
		})
		if e.onStep != nil {
			e.onStep(step, stepRes)
		}
		res.StepResults = append(res.StepResults, StepResult{Step: step, Result: stepRes})

		if stepRes.Cancelled {
			res.Status = StatusCancelled
			res.Reason = "step declined by user"
			return res
		}

		if stepRes.Succeeded() {
			res.SuccessfulSteps++
			i++
			if i >= len(steps) || !e.reevaluate {
				continue
			}
		} else if !e.reevaluate {
			res.Status = StatusFailed
			res.Reason = fmt.Sprintf("step %d failed: %v", step.Number, stepRes.Err)
			return res
		}

		decision := e.decide(ctx, conv, &res, step, stepRes, steps[i:])
		switch decision.Action {
		case intent.ActionComplete:
			res.Status = StatusCompleted
			res.Reason = decision.Reason
			return res
		case intent.ActionAbort:
			res.Status = StatusAborted
			res.Reason = decision.Reason
			return res
		case intent.ActionUpdatePlan:
			confirmed := decision.UpdatedPlan != nil &&
				(e.confirm == nil || e.confirm(describePlan(decision.UpdatedPlan)))
			if !confirmed {
				if stepRes.Succeeded() {
					res.Status = StatusCancelled
					res.Reason = "plan update was missing or declined"
				} else {
					res.Status = StatusFailed
					res.Reason = fmt.Sprintf("step %d failed: %v", step.Number, stepRes.Err)
				}
				return res
			}
			e.log.Info("plan updated",
				"old", res.PlanName, "new", decision.UpdatedPlan.Name,
				"steps", len(decision.UpdatedPlan.Steps))
			res.PlanName = decision.UpdatedPlan.Name
			if stepRes.Succeeded() {
				// The replacement is the new remainder; completed steps stand.
				res.TotalSteps = res.SuccessfulSteps + len(decision.UpdatedPlan.Steps)
			} else {
				// Recovery from a failed step is a full restart; the
				// superseded attempt is discarded.
				res.TotalSteps = len(decision.UpdatedPlan.Steps)
				res.SuccessfulSteps = 0
				res.StepResults = nil
			}
			steps = decision.UpdatedPlan.Steps
			i = 0
			continue
		}

		// continue: a failed step without a recovery plan halts.
		if !stepRes.Succeeded() {
			res.Status = StatusFailed
			res.Reason = fmt.Sprintf("step %d failed: %v", step.Number, stepRes.Err)
			return res
		}
	}

	res.Status = StatusCompleted
	return res
}

// decide asks the model to judge execution progress. Reevaluation is a
// control-flow probe, not user-facing output, so it is never streamed.
// Any transport failure degrades to continue.
func (e *PlanExecutor) decide(ctx context.Context, conv *conversation.Conversation, res *ExecutionResult, step intent.PlanStep, stepRes Result, remaining []intent.PlanStep) intent.Decision {
	outcome := "succeeded"
	detail := stepRes.Output
	if stepRes.Err != nil {
		outcome = "failed"
		detail = stepRes.Err.Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Plan %q: step %d of %d just %s.\n", res.PlanName, step.Number, res.TotalSteps, outcome)
	fmt.Fprintf(&b, "Step: %s\nTool: %s\nResult: %s\n", step.Description, step.Tool, detail)
	b.WriteString("\nResults so far:\n")
	for _, sr := range res.StepResults {
		status := "ok"
		if sr.Result.Err != nil {
			status = "ERROR: " + sr.Result.Err.Error()
		}
		fmt.Fprintf(&b, "  %d. %s: %s\n", sr.Step.Number, sr.Step.Description, status)
	}
	if len(remaining) > 0 {
		b.WriteString("Remaining steps:\n")
		for _, s := range remaining {
			fmt.Fprintf(&b, "  %d. %s (%s)\n", s.Number, s.Description, s.Tool)
		}
	}
	b.WriteString("\nReevaluate the plan. Reply with the DECISION grammar (CONTINUE, UPDATE_PLAN, COMPLETE, or ABORT). For UPDATE_PLAN include the replacement plan.")

	messages := append(append([]conversation.Message(nil), conv.Messages...), conversation.Message{
		Role:    conversation.RoleUser,
		Content: b.String(),
	})
	reply, err := e.client.Chat(ctx, messages, nil)
	if err != nil {
		e.log.Warn("reevaluation request failed, continuing", "error", err)
		return intent.Decision{Action: intent.ActionContinue}
	}
	return intent.ParseDecision(reply)
}

func describePlan(p *intent.Plan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Execute plan %q (%d steps)?\n", p.Name, len(p.Steps))
	for _, s := range p.Steps {
		fmt.Fprintf(&b, "  %d. %s (%s)\n", s.Number, s.Description, s.Tool)
	}
	return b.String()
}
