package intent

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

type directiveKind int

const (
	dirThought directiveKind = iota
	dirPlan
	dirStep
	dirTool
	dirArgs
	dirResponse
	dirDecision
	dirReason
)

var directiveKinds = map[string]directiveKind{
	"THOUGHT":  dirThought,
	"PLAN":     dirPlan,
	"STEP":     dirStep,
	"TOOL":     dirTool,
	"ARGS":     dirArgs,
	"RESPONSE": dirResponse,
	"DECISION": dirDecision,
	"REASON":   dirReason,
}

var directiveHeadPattern = regexp.MustCompile(`(?i)\b(THOUGHT|PLAN|STEP|TOOL|ARGS|RESPONSE|DECISION|REASON)[ \t]*:`)

// directive is one recognized instruction fragment of the model text.
type directive struct {
	kind  directiveKind
	value string
}

// tokenize splits cleaned model text into a directive stream. An ARGS
// value is captured by balanced-brace scanning, which may swallow text
// that superficially looks like a later directive head (JSON strings
// containing "TOOL:" and the like).
func tokenize(text string) []directive {
	heads := directiveHeadPattern.FindAllStringSubmatchIndex(text, -1)
	if heads == nil {
		return nil
	}

	var dirs []directive
	pos := 0
	for i, head := range heads {
		start, end := head[0], head[1]
		if start < pos {
			// Consumed by a preceding ARGS object.
			continue
		}
		kind := directiveKinds[strings.ToUpper(text[head[2]:head[3]])]

		valueEnd := len(text)
		for j := i + 1; j < len(heads); j++ {
			if heads[j][0] >= end {
				valueEnd = heads[j][0]
				break
			}
		}

		if kind == dirArgs {
			// The opening brace must precede the next directive head, or
			// this ARGS value would steal a later directive's object. The
			// balanced scan itself may still run past valueEnd when a JSON
			// string legitimately contains directive-like text.
			if objStart := strings.IndexByte(text[end:valueEnd], '{'); objStart >= 0 {
				if obj, ok := scanJSONObject(text, end+objStart); ok {
					dirs = append(dirs, directive{kind: dirArgs, value: obj})
					pos = end + objStart + len(obj)
					continue
				}
			}
			// No balanced object; keep the raw slice so the matcher can
			// coerce it to an empty argument set.
			dirs = append(dirs, directive{kind: dirArgs, value: strings.TrimSpace(text[end:valueEnd])})
			pos = valueEnd
			continue
		}

		dirs = append(dirs, directive{kind: kind, value: strings.TrimSpace(text[end:valueEnd])})
		pos = valueEnd
	}
	return dirs
}

// Normalize parses raw model output into a canonical Intent. It is
// total: on irrecoverable ambiguity the cleaned text comes back as a
// plain response, never an error and never silently dropped content.
func Normalize(raw string) Intent {
	text := stripMarkup(raw)
	dirs := tokenize(text)

	thought := firstValue(dirs, dirThought)

	// Plans take priority over loose tool directives in the same
	// response.
	if plan := matchPlan(dirs, 2); plan != nil {
		return Intent{Kind: KindPlan, Thought: thought, Plan: plan}
	}

	if calls := matchToolCalls(dirs); len(calls) > 0 {
		return Intent{Kind: KindToolCalls, Thought: thought, Calls: calls}
	}

	if in, ok := matchWireJSON(text); ok {
		in.Thought = thought
		return in
	}

	for _, d := range dirs {
		if d.kind == dirResponse {
			return Intent{Kind: KindResponse, Thought: thought, Content: d.value}
		}
	}

	return Intent{Kind: KindResponse, Thought: thought, Content: text}
}

// matchPlan builds a plan from the directive stream: a PLAN header
// followed by STEP blocks each carrying exactly one TOOL directive.
// Returns nil when fewer than minSteps valid steps exist.
func matchPlan(dirs []directive, minSteps int) *Plan {
	planIdx := -1
	for i, d := range dirs {
		if d.kind == dirPlan {
			planIdx = i
			break
		}
	}
	if planIdx < 0 {
		return nil
	}

	name := firstLine(dirs[planIdx].value)
	if name == "" {
		name = "Unnamed Plan"
	}

	var steps []PlanStep
	for i := planIdx + 1; i < len(dirs); i++ {
		if dirs[i].kind != dirStep {
			continue
		}
		if i+1 >= len(dirs) || dirs[i+1].kind != dirTool {
			continue
		}
		step := PlanStep{
			Number:      len(steps) + 1,
			Description: firstLine(dirs[i].value),
			Tool:        toolName(dirs[i+1].value),
			Args:        map[string]interface{}{},
		}
		if i+2 < len(dirs) && dirs[i+2].kind == dirArgs {
			// An individual step with invalid argument JSON keeps an
			// empty argument set; the failure surfaces at execution,
			// not as a parse error.
			step.Args = parseArgs(dirs[i+2].value)
		}
		steps = append(steps, step)
	}

	if len(steps) < minSteps {
		return nil
	}
	return &Plan{Name: name, Steps: steps}
}

// matchToolCalls builds a batch from standalone TOOL directives, each
// optionally followed by an ARGS directive.
func matchToolCalls(dirs []directive) []ToolCall {
	var calls []ToolCall
	for i, d := range dirs {
		if d.kind != dirTool {
			continue
		}
		call := ToolCall{
			ID:   fmt.Sprintf("call_%d", len(calls)+1),
			Name: toolName(d.value),
			Args: map[string]interface{}{},
		}
		if i+1 < len(dirs) && dirs[i+1].kind == dirArgs {
			call.Args = parseArgs(dirs[i+1].value)
		}
		calls = append(calls, call)
	}
	return calls
}

// wireResponse is the externally defined tool-calling wire shape some
// models emit directly as JSON.
type wireResponse struct {
	Content   string `json:"content"`
	Response  string `json:"response"`
	ToolCalls []struct {
		ID       string `json:"id"`
		Function struct {
			Name      string          `json:"name"`
			Arguments json.RawMessage `json:"arguments"`
		} `json:"function"`
	} `json:"tool_calls"`
	Plan *struct {
		Name  string `json:"name"`
		Steps []struct {
			Description string          `json:"description"`
			Name        string          `json:"name"`
			Tool        string          `json:"tool"`
			Arguments   json.RawMessage `json:"arguments"`
		} `json:"steps"`
	} `json:"plan"`
}

// matchWireJSON handles responses that are themselves valid JSON in the
// vendor-standard tool-calling format, passing them through after
// re-serialization into the canonical Intent.
func matchWireJSON(text string) (Intent, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return Intent{}, false
	}
	obj, ok := scanJSONObject(trimmed, 0)
	if !ok {
		return Intent{}, false
	}

	var wire wireResponse
	if err := json.Unmarshal([]byte(obj), &wire); err != nil {
		return Intent{}, false
	}

	if len(wire.ToolCalls) > 0 {
		calls := make([]ToolCall, 0, len(wire.ToolCalls))
		for i, tc := range wire.ToolCalls {
			id := tc.ID
			if id == "" {
				id = fmt.Sprintf("call_%d", i+1)
			}
			calls = append(calls, ToolCall{
				ID:   id,
				Name: tc.Function.Name,
				Args: rawArgs(tc.Function.Arguments),
			})
		}
		return Intent{Kind: KindToolCalls, Calls: calls}, true
	}

	if wire.Plan != nil && len(wire.Plan.Steps) > 0 {
		plan := &Plan{Name: wire.Plan.Name}
		for i, s := range wire.Plan.Steps {
			desc := s.Description
			if desc == "" {
				desc = s.Name
			}
			plan.Steps = append(plan.Steps, PlanStep{
				Number:      i + 1,
				Description: desc,
				Tool:        s.Tool,
				Args:        rawArgs(s.Arguments),
			})
		}
		return Intent{Kind: KindPlan, Plan: plan}, true
	}

	if answer, ok := finalAnswer(wire); ok {
		return Intent{Kind: KindResponse, Content: answer}, true
	}
	return Intent{}, false
}

// finalAnswer extracts the final-answer field, unwrapping one level of
// double-encoded output (a JSON answer whose value is itself a JSON
// object carrying a final-answer field — an observed model failure
// mode).
func finalAnswer(wire wireResponse) (string, bool) {
	answer := wire.Response
	if answer == "" {
		answer = wire.Content
	}
	if answer == "" {
		return "", false
	}

	inner := strings.TrimSpace(answer)
	if strings.HasPrefix(inner, "{") {
		var nested wireResponse
		if err := json.Unmarshal([]byte(inner), &nested); err == nil {
			if nestedAnswer := nested.Response; nestedAnswer != "" {
				return nestedAnswer, true
			}
			if nestedAnswer := nested.Content; nestedAnswer != "" {
				return nestedAnswer, true
			}
		}
	}
	return answer, true
}

// rawArgs decodes a JSON arguments value that may be an object or a
// string-encoded object. Anything invalid coerces to an empty set.
func rawArgs(raw json.RawMessage) map[string]interface{} {
	if len(raw) == 0 {
		return map[string]interface{}{}
	}
	var args map[string]interface{}
	if err := json.Unmarshal(raw, &args); err == nil && args != nil {
		return args
	}
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		return parseArgs(encoded)
	}
	return map[string]interface{}{}
}

// parseArgs parses a directive argument string, coercing invalid JSON
// to an empty argument set.
func parseArgs(value string) map[string]interface{} {
	args := map[string]interface{}{}
	if value == "" {
		return args
	}
	if err := json.Unmarshal([]byte(value), &args); err != nil {
		return map[string]interface{}{}
	}
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// toolName extracts the qualified tool name from a TOOL directive
// value: the first whitespace-delimited token, stripped of trailing
// punctuation.
func toolName(value string) string {
	name := firstLine(value)
	if i := strings.IndexAny(name, " \t"); i >= 0 {
		name = name[:i]
	}
	return strings.TrimRight(name, ".,;:")
}

func firstValue(dirs []directive, kind directiveKind) string {
	for _, d := range dirs {
		if d.kind == kind {
			return d.value
		}
	}
	return ""
}

func firstLine(value string) string {
	if i := strings.IndexByte(value, '\n'); i >= 0 {
		value = value[:i]
	}
	return strings.TrimSpace(value)
}
