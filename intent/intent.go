// Package intent converts raw model output into a canonical intent:
// a tool-call batch, a multi-step plan, or a plain response. Parsing is
// total; anything unrecognizable degrades to a plain response carrying
// the cleaned text, never an error.
package intent

// Separator joins a tool name and a method name into the qualified
// directive name the model emits, e.g. "FILE_EXPLORER__read_file".
const Separator = "__"

// Kind selects the active variant of an Intent.
type Kind int

const (
	// KindResponse is a plain natural-language answer.
	KindResponse Kind = iota
	// KindToolCalls is a batch of standalone tool invocations.
	KindToolCalls
	// KindPlan is a named, ordered multi-step plan.
	KindPlan
)

// ToolCall is one requested tool invocation. Name is the qualified
// TOOL__method form; splitting and validation happen at the gateway so
// a malformed name surfaces as an execution error, not a parse error.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]interface{}
}

// PlanStep is one step of a plan. Numbers are dense and 1-based within
// a plan version.
type PlanStep struct {
	Number      int
	Description string
	Tool        string
	Args        map[string]interface{}
}

// Plan is an ordered sequence of tool invocations.
type Plan struct {
	Name  string
	Steps []PlanStep
}

// Intent is the canonical meaning of one model turn. Exactly one
// variant is active, selected by Kind.
type Intent struct {
	Kind    Kind
	Thought string
	Content string
	Calls   []ToolCall
	Plan    *Plan
}
