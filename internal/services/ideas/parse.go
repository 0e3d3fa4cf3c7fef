package ideas

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoValidStructure means no strategy recovered a non-empty tutorial list
var ErrNoValidStructure = errors.New("no valid tutorial structure found in response")

type rawCost struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type rawItem struct {
	ID             any      `json:"id"`
	Title          string   `json:"title"`
	Summary        string   `json:"summary"`
	Outline        []string `json:"outline"`
	Steps          []string `json:"steps"`
	Difficulty     string   `json:"difficulty"`
	EstimatedCost  *rawCost `json:"estimatedCost"`
	CostEstimate   *rawCost `json:"costEstimate"`
	SourceURL      string   `json:"sourceUrl"`
	SourceURLSnake string   `json:"source_url"`
}

type rawPayload struct {
	Tutorials []rawItem `json:"tutorials"`
	Items     []rawItem `json:"items"`
}

func (p rawPayload) list() []rawItem {
	if len(p.Tutorials) > 0 {
		return p.Tutorials
	}
	return p.Items
}

// strategy extracts the candidate JSON text from a model response
type strategy struct {
	name    string
	extract func(s string) (string, bool)
}

var fencePattern = regexp.MustCompile("(?s)```(?:[a-zA-Z]+)?\\s*(.*?)```")

var strategies = []strategy{
	{name: "direct", extract: func(s string) (string, bool) {
		return s, true
	}},
	{name: "fenced", extract: func(s string) (string, bool) {
		m := fencePattern.FindStringSubmatch(s)
		if m == nil {
			return "", false
		}
		return m[1], true
	}},
	{name: "json-prefix", extract: func(s string) (string, bool) {
		if len(s) < 4 || !strings.EqualFold(s[:4], "json") {
			return "", false
		}
		return strings.TrimLeft(s[4:], " :\r\n\t"), true
	}},
	{name: "braces", extract: func(s string) (string, bool) {
		start := strings.Index(s, "{")
		end := strings.LastIndex(s, "}")
		if start < 0 || end <= start {
			return "", false
		}
		return s[start : end+1], true
	}},
}

// parseResponse applies the strategies in order and returns the items of the
// first one that decodes into a non-empty tutorial list
func parseResponse(response string) ([]rawItem, string, error) {
	trimmed := strings.TrimSpace(response)
	for _, st := range strategies {
		candidate, ok := st.extract(trimmed)
		if !ok {
			continue
		}
		var payload rawPayload
		if err := json.Unmarshal([]byte(strings.TrimSpace(candidate)), &payload); err != nil {
			continue
		}
		if items := payload.list(); len(items) > 0 {
			return items, st.name, nil
		}
	}
	return nil, "", ErrNoValidStructure
}

func (r rawItem) id() string {
	switch v := r.ID.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return fmt.Sprintf("%g", v)
	default:
		return ""
	}
}

func (r rawItem) steps() []string {
	src := r.Outline
	if len(src) == 0 {
		src = r.Steps
	}
	steps := make([]string, 0, len(src))
	for _, s := range src {
		if s = strings.TrimSpace(s); s != "" {
			steps = append(steps, s)
		}
	}
	return steps
}

func (r rawItem) cost() rawCost {
	if r.EstimatedCost != nil {
		return *r.EstimatedCost
	}
	if r.CostEstimate != nil {
		return *r.CostEstimate
	}
	return rawCost{}
}

func (r rawItem) sourceURL() string {
	if r.SourceURL != "" {
		return strings.TrimSpace(r.SourceURL)
	}
	return strings.TrimSpace(r.SourceURLSnake)
}
