package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// DecodeLLMJSON unmarshals a model reply into target. Besides plain JSON it
// accepts a Markdown code fence and prose surrounding a single object or array.
func DecodeLLMJSON(content string, target any) error {
	text := strings.TrimSpace(content)
	if text == "" {
		return errors.New("llm json: empty payload")
	}
	var first error
	for _, candidate := range jsonCandidates(text) {
		err := json.Unmarshal([]byte(candidate), target)
		if err == nil {
			return nil
		}
		if first == nil {
			first = err
		}
	}
	return fmt.Errorf("llm json: %w (payload snippet: %s)", first, snippet(text))
}

// jsonCandidates lists distinct decodable views of text, most literal first.
func jsonCandidates(text string) []string {
	unfenced := unfence(text)
	views := []string{text, unfenced, enclosed(unfenced, '{', '}'), enclosed(unfenced, '[', ']')}
	out := views[:0]
	seen := make(map[string]bool, len(views))
	for _, v := range views {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func unfence(text string) string {
	body, ok := strings.CutPrefix(text, "```")
	if !ok {
		return text
	}
	body = strings.TrimLeft(body, " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
	}
	if end := strings.LastIndex(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// enclosed returns the span from the first open to the last close delimiter.
func enclosed(text string, opening, closing byte) string {
	start := strings.IndexByte(text, opening)
	end := strings.LastIndexByte(text, closing)
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

// snippet collapses whitespace and truncates text for error messages.
func snippet(text string) string {
	clean := strings.Join(strings.Fields(text), " ")
	if clean == "" {
		return "<empty>"
	}
	const limit = 160
	if r := []rune(clean); len(r) > limit {
		return string(r[:limit]) + "..."
	}
	return clean
}
