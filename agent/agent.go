// Package agent ties the model, the tools, and the conversation store
// into the interactive loop: normalize what the model said, execute
// what it asked for, feed results back, and know when to stop.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/adder-cli/adder/config"
	"github.com/adder-cli/adder/conversation"
	"github.com/adder-cli/adder/errors"
	"github.com/adder-cli/adder/intent"
	"github.com/adder-cli/adder/llm"
	"github.com/adder-cli/adder/tokens"
	"github.com/adder-cli/adder/tools"
)

// Callbacks connects the agent to its user interface. Any field may be
// nil; the agent then proceeds without that interaction.
type Callbacks struct {
	// Stream receives incremental model output for display.
	Stream llm.StreamFunc
	// Confirm asks the user to approve a tool call or plan.
	Confirm ConfirmFunc
	// OnTool reports each completed tool invocation.
	OnTool func(call intent.ToolCall, res Result)
}

// Agent drives one conversation against the model.
type Agent struct {
	cfg      *config.Config
	client   llm.Client
	registry *tools.Registry
	store    *conversation.Store
	gateway  *Gateway
	executor *PlanExecutor
	context  *ContextManager
	counter  *tokens.Counter
	cb       Callbacks
	conv     *conversation.Conversation
	log      *slog.Logger
}

func New(cfg *config.Config, client llm.Client, registry *tools.Registry, store *conversation.Store, cb Callbacks, log *slog.Logger) *Agent {
	if log == nil {
		log = slog.Default()
	}
	counter := tokens.NewCounter(cfg.Model)
	gateway := NewGateway(registry, cfg.Policy, cb.Confirm, log)
	onStep := func(step intent.PlanStep, res Result) {
		if cb.OnTool != nil {
			cb.OnTool(intent.ToolCall{Name: step.Tool, Args: step.Args}, res)
		}
	}
	return &Agent{
		cfg:      cfg,
		client:   client,
		registry: registry,
		store:    store,
		gateway:  gateway,
		executor: NewPlanExecutor(gateway, client, cfg.ReevaluationEnabled, cb.Confirm, onStep, log),
		context:  NewContextManager(client, counter, cfg.Context, log),
		counter:  counter,
		cb:       cb,
		conv:     nil,
		log:      log,
	}
}

// SetConversation makes conv the active conversation.
func (a *Agent) SetConversation(conv *conversation.Conversation) {
	a.conv = conv
}

// Conversation returns the active conversation, creating one if none
// is active yet.
func (a *Agent) Conversation() *conversation.Conversation {
	if a.conv == nil {
		a.conv = a.store.Create("New conversation", SystemPrompt(a.registry))
	}
	return a.conv
}

// Usage reports the active conversation's token cost and the window.
func (a *Agent) Usage() (cost, window int) {
	return a.context.Usage(a.Conversation())
}

// ProcessMessage runs one user turn to completion: the model may chain
// tool batches and plans across several exchanges before producing the
// final answer. The loop is bounded by the retry budget, so a model
// stuck on failing tools cannot spin forever.
func (a *Agent) ProcessMessage(ctx context.Context, input string) (string, error) {
	conv := a.Conversation()
	if conv.Title == "New conversation" {
		conv.Title = conversation.TitleFor(input)
	}
	a.record(conv, conversation.RoleUser, input)

	retries := 0
	for {
		if err := ctx.Err(); err != nil {
			return "", errors.Wrapf(err, "processing interrupted")
		}

		a.context.Manage(ctx, conv)

		var stream llm.StreamFunc
		if a.cfg.ShowStreaming {
			stream = a.cb.Stream
		}
		reply, err := a.client.Chat(ctx, conv.Messages, stream)
		if err != nil {
			return "", errors.Wrapf(err, "model request failed")
		}
		a.record(conv, conversation.RoleAssistant, reply)

		in := intent.Normalize(reply)
		switch in.Kind {
		case intent.KindResponse:
			return in.Content, nil

		case intent.KindToolCalls:
			results := a.runBatch(ctx, in.Calls)
			a.record(conv, conversation.RoleSystem, formatResults(results))
			if failures := countFailures(results); failures > 0 {
				if retries >= a.cfg.MaxRetries {
					return a.giveUp(conv, retries), nil
				}
				retries++
				a.record(conv, conversation.RoleUser,
					"Some tool calls failed; see the results above. Retry with a corrected approach or explain what went wrong.")
				continue
			}
			retries = 0
			a.record(conv, conversation.RoleUser,
				"All tool calls completed; see the results above. Summarize the results for the user or continue the task.")

		case intent.KindPlan:
			exec := a.executor.Execute(ctx, conv, in.Plan)
			a.record(conv, conversation.RoleSystem, formatExecution(exec))
			switch exec.Status {
			case StatusCompleted:
				retries = 0
				a.record(conv, conversation.RoleUser,
					"The plan completed; see the results above. Summarize the outcome for the user.")
			case StatusCancelled:
				return fmt.Sprintf("Plan %q was cancelled: %s", exec.PlanName, exec.Reason), nil
			case StatusAborted:
				return fmt.Sprintf("Plan %q was abandoned: %s", exec.PlanName, exec.Reason), nil
			case StatusFailed:
				// A failed plan ends the turn; the recorded execution
				// summary tells the model what happened next turn.
				return fmt.Sprintf("Plan %q failed after %d of %d steps: %s",
					exec.PlanName, exec.SuccessfulSteps, exec.TotalSteps, exec.Reason), nil
			}
		}
	}
}

func (a *Agent) runBatch(ctx context.Context, calls []intent.ToolCall) []Result {
	results := make([]Result, 0, len(calls))
	for _, call := range calls {
		res := a.gateway.Invoke(ctx, call)
		if a.cb.OnTool != nil {
			a.cb.OnTool(call, res)
		}
		results = append(results, res)
	}
	return results
}

// giveUp records the terminal notice and produces the user-facing
// failure message once the retry budget is spent.
func (a *Agent) giveUp(conv *conversation.Conversation, retries int) string {
	a.record(conv, conversation.RoleSystem,
		fmt.Sprintf("[Tool execution abandoned after %d retries]", retries))
	a.log.Warn("retry budget exhausted", "retries", retries)
	return fmt.Sprintf("I could not complete the requested tool actions after %d attempts; see the errors above for details.", retries)
}

// record appends and persists. Persistence is best effort: a failed
// save must not interrupt the conversation.
func (a *Agent) record(conv *conversation.Conversation, role, content string) {
	conv.Append(role, content)
	if err := a.store.Save(); err != nil {
		a.log.Warn("failed to persist conversation", "error", err)
	}
}

func formatResults(results []Result) string {
	var b strings.Builder
	b.WriteString("[Tool results]\n")
	for _, r := range results {
		switch {
		case r.Cancelled:
			fmt.Fprintf(&b, "%s: cancelled by user\n", r.Call.Name)
		case r.Err != nil:
			fmt.Fprintf(&b, "%s: ERROR: %v\n", r.Call.Name, r.Err)
		default:
			fmt.Fprintf(&b, "%s: %s\n", r.Call.Name, r.Output)
		}
	}
	return b.String()
}

func formatExecution(exec ExecutionResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[Plan %q: %d/%d steps succeeded]\n", exec.PlanName, exec.SuccessfulSteps, exec.TotalSteps)
	for _, sr := range exec.StepResults {
		switch {
		case sr.Result.Cancelled:
			fmt.Fprintf(&b, "step %d (%s): cancelled by user\n", sr.Step.Number, sr.Step.Tool)
		case sr.Result.Err != nil:
			fmt.Fprintf(&b, "step %d (%s): ERROR: %v\n", sr.Step.Number, sr.Step.Tool, sr.Result.Err)
		default:
			fmt.Fprintf(&b, "step %d (%s): %s\n", sr.Step.Number, sr.Step.Tool, sr.Result.Output)
		}
	}
	if exec.Reason != "" {
		fmt.Fprintf(&b, "outcome: %s\n", exec.Reason)
	}
	return b.String()
}

// countFailures counts execution errors. A user cancellation is not a
// failure: retrying it would just re-prompt the user.
func countFailures(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
