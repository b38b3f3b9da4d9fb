package intent

import (
	"regexp"
	"strings"
)

// Vendor channel markup as emitted by gpt-oss style models. The final
// answer lives after a "final" channel marker; tool directives may be
// encoded as "commentary to=NAME {...}" headers.
var (
	finalChannelPattern = regexp.MustCompile(`(?s)<\|channel\|>final.*?<\|message\|>(.+)$`)
	toolHeaderPattern   = regexp.MustCompile(`(?i)\bto=([A-Za-z0-9_]+)(?:\s*<\|constrain\|>\w+)?(?:\s*<\|message\|>)?`)
	controlTokenPattern = regexp.MustCompile(`<\|[^|]+\|>`)
)

// stripMarkup removes vendor reasoning/channel markup and rewrites any
// embedded "to=TOOL" directives into canonical TOOL:/ARGS: lines, so
// everything downstream of the tokenizer is markup-agnostic.
func stripMarkup(raw string) string {
	text := raw

	// Keep only the final-channel output when the response is split
	// into analysis/commentary/final channels.
	if m := finalChannelPattern.FindStringSubmatch(text); m != nil {
		text = m[1]
	}

	text = rewriteToolHeaders(text)
	text = controlTokenPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// rewriteToolHeaders converts each "to=NAME ... {json}" header into
// "TOOL: NAME\nARGS: {json}" lines. The argument object is captured by
// balanced-brace scanning so nested JSON survives.
func rewriteToolHeaders(text string) string {
	matches := toolHeaderPattern.FindAllStringSubmatchIndex(text, -1)
	if matches == nil {
		return text
	}

	var b strings.Builder
	pos := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if start < pos {
			continue
		}
		name := text[m[2]:m[3]]

		argsStart := end
		for argsStart < len(text) && (text[argsStart] == ' ' || text[argsStart] == '\t' || text[argsStart] == '\n') {
			argsStart++
		}
		if argsStart >= len(text) || text[argsStart] != '{' {
			// A header with no argument object is left untouched.
			continue
		}
		obj, ok := scanJSONObject(text, argsStart)
		if !ok {
			continue
		}

		b.WriteString(text[pos:start])
		b.WriteString("\nTOOL: ")
		b.WriteString(name)
		b.WriteString("\nARGS: ")
		b.WriteString(obj)
		b.WriteString("\n")
		pos = argsStart + len(obj)
	}
	b.WriteString(text[pos:])
	return b.String()
}

// scanJSONObject returns the balanced JSON object starting at start
// (which must index a '{'), tolerating nested objects and braces inside
// string literals.
func scanJSONObject(s string, start int) (string, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
