package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/adder-cli/adder/intent"
	"github.com/adder-cli/adder/tools"
)

// SystemPrompt renders the instructions that teach the model the
// directive grammar and advertise the registered tools. The grammar
// here must stay in lockstep with the intent package's parser.
func SystemPrompt(registry *tools.Registry) string {
	var b strings.Builder
	b.WriteString(`You are a helpful assistant running in a terminal. You can answer directly, or use the tools listed below to act on the user's behalf.

To answer directly, reply with:
RESPONSE: <your answer>

To call one or more tools, reply with:
THOUGHT: <why these calls>
TOOL: <TOOL__method>
ARGS: <JSON object>

Repeat the TOOL/ARGS pair for each call. For a multi-step task, propose a plan instead:
THOUGHT: <why this plan>
PLAN: <short plan name>
STEP: <what this step does>
TOOL: <TOOL__method>
ARGS: <JSON object>

Each STEP must be immediately followed by its TOOL line. After each executed step you may be asked to reevaluate; answer with:
DECISION: CONTINUE | UPDATE_PLAN | COMPLETE | ABORT
REASON: <one line>

For UPDATE_PLAN, include the replacement plan in the same reply using the PLAN/STEP grammar.

Tool and method names are joined with "` + intent.Separator + `". Use only the tools listed below. Methods marked DESTRUCTIVE modify or delete state and require user approval.
`)

	specs := registry.Specs()
	if len(specs) == 0 {
		b.WriteString("\nNo tools are currently available; answer with RESPONSE only.\n")
		return b.String()
	}

	b.WriteString("\nAvailable tools:\n")
	for _, spec := range specs {
		fmt.Fprintf(&b, "\n%s: %s\n", spec.ToolName, spec.Description)
		for _, m := range spec.Methods {
			name := spec.ToolName + intent.Separator + m.Name
			if m.Destructive {
				fmt.Fprintf(&b, "  %s (DESTRUCTIVE): %s\n", name, m.Description)
			} else {
				fmt.Fprintf(&b, "  %s: %s\n", name, m.Description)
			}
			if len(m.Parameters) > 0 {
				params, err := json.Marshal(m.Parameters)
				if err == nil {
					fmt.Fprintf(&b, "    parameters: %s\n", params)
				}
			}
		}
	}
	return b.String()
}
