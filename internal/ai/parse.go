package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Result is the structured diagnosis returned by the model.
type Result struct {
	Disease     string `json:"disease"`
	Probability string `json:"probability"`
	Advice      string `json:"advice"`
	Medicines   string `json:"medicines"`
}

var errMissingDisease = errors.New(`AI response has no "disease"`)

// ParseResult decodes the model's message content. Markdown fences and text
// around the outermost JSON object are tolerated; values may be strings,
// numbers or arrays.
func ParseResult(content string) (*Result, error) {
	content = stripFences(strings.TrimSpace(content))

	var raw map[string]any
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		start := strings.Index(content, "{")
		end := strings.LastIndex(content, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("failed to parse AI response: %w", err)
		}
		if err2 := json.Unmarshal([]byte(content[start:end+1]), &raw); err2 != nil {
			return nil, fmt.Errorf("failed to parse AI response: %w", err2)
		}
	}
	if raw == nil {
		return nil, errors.New("failed to parse AI response: not a JSON object")
	}

	result := &Result{
		Disease:     stringify(raw["disease"]),
		Probability: stringify(raw["probability"]),
		Advice:      stringify(raw["advice"]),
		Medicines:   stringify(raw["medicines"]),
	}
	if result.Disease == "" {
		return nil, errMissingDisease
	}
	return result, nil
}

func stripFences(content string) string {
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
	} else {
		return content
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(content), "```"))
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := stringify(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
