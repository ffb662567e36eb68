package parser

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoJSON is returned when no candidate in the text decodes into the target
var ErrNoJSON = errors.New("could not parse or extract valid JSON from the response")

var (
	jsonFence    = regexp.MustCompile("```json\\s*\\n([\\s\\S]*?)\\n\\s*```")
	genericFence = regexp.MustCompile("```\\s*\\n([\\s\\S]*?)\\n\\s*```")
	lazyObject   = regexp.MustCompile(`\{[\s\S]*?\}`)
)

// ExtractJSON decodes the first JSON candidate found in text into v
func ExtractJSON(text string, v any) error {
	for _, candidate := range jsonCandidates(text) {
		if err := json.Unmarshal([]byte(candidate), v); err == nil {
			return nil
		}
	}
	return ErrNoJSON
}

func jsonCandidates(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	out := []string{trimmed}
	if m := jsonFence.FindStringSubmatch(text); m != nil {
		out = append(out, cleanFence(m[1]))
	}
	if m := genericFence.FindStringSubmatch(text); m != nil {
		out = append(out, cleanFence(m[1]))
	}
	if m := lazyObject.FindString(text); m != "" {
		out = append(out, m)
	}
	// nested objects defeat the lazy match
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		out = append(out, text[start:end+1])
	}
	return out
}

func cleanFence(s string) string {
	s = strings.ReplaceAll(s, "```json\n", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
