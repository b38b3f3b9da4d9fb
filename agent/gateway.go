package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/adder-cli/adder/config"
	"github.com/adder-cli/adder/errors"
	"github.com/adder-cli/adder/intent"
	"github.com/adder-cli/adder/tools"
)

// ConfirmFunc asks the user to approve an action. Implementations
// block until the user answers; returning false declines.
type ConfirmFunc func(prompt string) bool

// Result is the outcome of one tool invocation. The gateway never
// returns an error to its caller: every failure mode is folded into
// a Result so the conversation loop can report it to the model.
type Result struct {
	Call      intent.ToolCall
	Output    string
	Err       error
	Cancelled bool
}

// Succeeded reports whether the invocation ran and produced output.
func (r Result) Succeeded() bool {
	return r.Err == nil && !r.Cancelled
}

// Gateway executes tool calls under the configured approval policy.
// Destructiveness is taken from the registry's method spec, never from
// the model's claim.
type Gateway struct {
	registry *tools.Registry
	policy   config.Policy
	confirm  ConfirmFunc
	log      *slog.Logger
}

func NewGateway(registry *tools.Registry, policy config.Policy, confirm ConfirmFunc, log *slog.Logger) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{registry: registry, policy: policy, confirm: confirm, log: log}
}

// Invoke resolves, authorizes, and executes a single tool call.
func (g *Gateway) Invoke(ctx context.Context, call intent.ToolCall) Result {
	res := Result{Call: call}

	if !g.policy.ToolsEnabled {
		res.Err = errors.New("tool execution is disabled by configuration")
		return g.logged(res, false)
	}

	toolName, method, ok := strings.Cut(call.Name, intent.Separator)
	if !ok {
		res.Err = errors.New("invalid tool name '%s': expected TOOL%smethod", call.Name, intent.Separator)
		return g.logged(res, false)
	}

	tool, found := g.registry.Get(toolName)
	if !found {
		res.Err = errors.New("unknown tool '%s'", toolName)
		return g.logged(res, false)
	}
	spec, found := tool.Spec().Method(method)
	if !found {
		res.Err = errors.New("tool '%s' has no method '%s'", toolName, method)
		return g.logged(res, false)
	}

	approved, auto := g.authorized(spec, call)
	if !approved {
		res.Cancelled = true
		res.Output = "cancelled by user"
		return g.logged(res, auto)
	}

	res.Output, res.Err = g.execute(ctx, tool, method, call.Args)
	return g.logged(res, auto)
}

// authorized reports whether the call may run, and whether the approval
// came from policy (auto) rather than an operator confirmation.
func (g *Gateway) authorized(spec tools.MethodSpec, call intent.ToolCall) (approved, auto bool) {
	auto = g.policy.AutoExecuteNonDestructive
	if spec.Destructive {
		auto = g.policy.AutoExecuteDestructive
	}
	if auto {
		return true, true
	}
	if g.confirm == nil {
		return false, false
	}
	kind := ""
	if spec.Destructive {
		kind = " [destructive]"
	}
	return g.confirm(fmt.Sprintf("Run %s%s with args %v?", call.Name, kind, call.Args)), false
}

// execute shields the caller from panicking tool implementations.
func (g *Gateway) execute(ctx context.Context, tool tools.Tool, method string, args map[string]interface{}) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("tool panicked: %v", r)
		}
	}()
	return tool.Execute(ctx, method, args)
}

func (g *Gateway) logged(res Result, auto bool) Result {
	if res.Err != nil {
		g.log.Warn("tool invocation failed", "tool", res.Call.Name, "auto", auto, "error", res.Err)
	} else if res.Cancelled {
		g.log.Info("tool invocation cancelled", "tool", res.Call.Name, "auto", auto)
	} else {
		g.log.Info("tool invocation completed", "tool", res.Call.Name, "auto", auto)
	}
	return res
}
