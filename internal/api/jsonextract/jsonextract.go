// Package jsonextract pulls a JSON object out of free-form LLM output.
//
// Generators wrap JSON in markdown fences, prepend prose, or leave trailing
// commas. Each recovery technique is a Strategy; callers pick an ordered list
// and the first strategy that yields a decodable object wins.
package jsonextract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoJSON is returned when no strategy produced a decodable object.
var ErrNoJSON = errors.New("no JSON object found in response")

// Strategy is one named extraction technique. Extract returns a candidate
// JSON document and false when the technique does not apply.
type Strategy struct {
	Name    string
	Extract func(text string) (string, bool)
}

var (
	fencedBlockRe   = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)\\s*```")
	trailingObjRe   = regexp.MustCompile(`,\s*}`)
	trailingArrayRe = regexp.MustCompile(`,\s*]`)
)

var (
	// Direct treats the whole response as JSON.
	Direct = Strategy{Name: "direct", Extract: func(text string) (string, bool) {
		text = strings.TrimSpace(text)
		return text, text != ""
	}}

	// FencedBlock reads the body of the first ``` or ```json block.
	FencedBlock = Strategy{Name: "fenced_block", Extract: func(text string) (string, bool) {
		m := fencedBlockRe.FindStringSubmatch(text)
		if len(m) < 2 {
			return "", false
		}
		return m[1], true
	}}

	// BareObject takes everything between the first '{' and the last '}'.
	BareObject = Strategy{Name: "bare_object", Extract: func(text string) (string, bool) {
		first := strings.Index(text, "{")
		last := strings.LastIndex(text, "}")
		if first == -1 || last <= first {
			return "", false
		}
		return text[first : last+1], true
	}}

	// BraceScan walks from the first '{' and stops at its matching '}',
	// ignoring braces inside string literals.
	BraceScan = Strategy{Name: "brace_scan", Extract: func(text string) (string, bool) {
		return scanBalanced(text)
	}}

	// TrailingCommaRepair strips ",}" and ",]" and retries the balanced
	// object, or the whole text when no object boundary is found.
	TrailingCommaRepair = Strategy{Name: "trailing_comma_repair", Extract: func(text string) (string, bool) {
		fixed := trailingObjRe.ReplaceAllString(text, "}")
		fixed = trailingArrayRe.ReplaceAllString(fixed, "]")
		if obj, ok := scanBalanced(fixed); ok {
			return obj, true
		}
		fixed = strings.TrimSpace(fixed)
		return fixed, fixed != ""
	}}
)

// ClassifierStrategies is the order used for short structured answers.
var ClassifierStrategies = []Strategy{FencedBlock, BareObject, BraceScan}

// DocumentStrategies is the order used for long generated documents.
var DocumentStrategies = []Strategy{Direct, FencedBlock, BraceScan, TrailingCommaRepair}

// Extract returns the first candidate that parses as a JSON object, together
// with the name of the strategy that produced it.
func Extract(text string, strategies ...Strategy) (json.RawMessage, string, error) {
	if len(strategies) == 0 {
		strategies = ClassifierStrategies
	}
	for _, s := range strategies {
		candidate, ok := s.Extract(text)
		if !ok {
			continue
		}
		candidate = strings.TrimSpace(candidate)
		if !strings.HasPrefix(candidate, "{") {
			continue
		}
		var probe map[string]json.RawMessage
		if err := json.Unmarshal([]byte(candidate), &probe); err != nil {
			continue
		}
		return json.RawMessage(candidate), s.Name, nil
	}
	return nil, "", ErrNoJSON
}

// Decode extracts a JSON object and unmarshals it into dst.
func Decode(text string, dst any, strategies ...Strategy) (string, error) {
	raw, name, err := Extract(text, strategies...)
	if err != nil {
		return "", err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return name, fmt.Errorf("failed to decode %s JSON: %w", name, err)
	}
	return name, nil
}

func scanBalanced(text string) (string, bool) {
	start := strings.Index(text, "{")
	if start == -1 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
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
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
