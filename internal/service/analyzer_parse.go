package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/jmylchreest/pricing-detective/internal/models"
)

var (
	// ErrNoJSONFound means the reply had no fenced block and was not JSON itself.
	ErrNoJSONFound = errors.New("no JSON found in LLM response")

	// ErrInvalidFencedJSON means a fenced block was found but its contents are not JSON.
	ErrInvalidFencedJSON = errors.New("fenced block in LLM response is not valid JSON")

	// ErrPayloadNotObject means the extracted JSON is not an object at the top level.
	ErrPayloadNotObject = errors.New("LLM response JSON is not an object")
)

// Mapping defaults.
const (
	UnknownToolName = "Unknown"
	DefaultScore    = 50
	DefaultVerdict  = "Analysis complete"
	UnknownPrice    = "Unknown"
)

var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// MappingError reports a required field missing from an issue or tier entry.
type MappingError struct {
	Section string // "issues" or "tiers"
	Index   int
	Field   string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("%s[%d]: missing required field %q", e.Section, e.Index, e.Field)
}

// ExtractJSON parses the JSON payload from a model reply. A fenced code block
// (optionally tagged json) wins; otherwise the whole reply is parsed.
func ExtractJSON(text string) (any, error) {
	if m := fencedBlockRe.FindStringSubmatch(text); m != nil {
		var v any
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &v); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidFencedJSON, err)
		}
		return v, nil
	}

	var v any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoJSONFound, err)
	}
	return v, nil
}

// MapAnalysisResult converts the untyped payload into an AnalysisResult.
// Optional fields fall back to defaults; only a non-object payload or an
// issue/tier entry without its identifying fields is an error.
func MapAnalysisResult(raw any, fallbackToolName string) (*models.AnalysisResult, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, ErrPayloadNotObject
	}

	result := &models.AnalysisResult{
		ToolName:        resolveToolName(obj, fallbackToolName),
		OverallScore:    parseScore(obj["overall_score"]),
		Verdict:         stringOr(obj["verdict"], DefaultVerdict),
		Issues:          []models.PricingIssue{},
		Tiers:           []models.TierAnalysis{},
		Summary:         stringOr(obj["summary"], ""),
		Recommendations: stringList(obj["recommendations"]),
	}

	for i, entry := range listOf(obj["issues"]) {
		issue, err := mapIssue(i, entry)
		if err != nil {
			return nil, err
		}
		result.Issues = append(result.Issues, issue)
	}

	for i, entry := range listOf(obj["tiers"]) {
		tier, err := mapTier(i, entry)
		if err != nil {
			return nil, err
		}
		result.Tiers = append(result.Tiers, tier)
	}

	return result, nil
}

func mapIssue(i int, entry any) (models.PricingIssue, error) {
	m, _ := entry.(map[string]any)
	title := stringOr(m["title"], "")
	if title == "" {
		return models.PricingIssue{}, &MappingError{Section: "issues", Index: i, Field: "title"}
	}
	description := stringOr(m["description"], "")
	if description == "" {
		return models.PricingIssue{}, &MappingError{Section: "issues", Index: i, Field: "description"}
	}

	return models.PricingIssue{
		Type:           models.ParseIssueType(stringOr(m["type"], "")),
		Severity:       models.ParseSeverity(stringOr(m["severity"], "")),
		Title:          title,
		Description:    description,
		Evidence:       stringOr(m["evidence"], ""),
		Recommendation: stringOr(m["recommendation"], ""),
	}, nil
}

func mapTier(i int, entry any) (models.TierAnalysis, error) {
	m, _ := entry.(map[string]any)
	name := stringOr(m["name"], "")
	if name == "" {
		return models.TierAnalysis{}, &MappingError{Section: "tiers", Index: i, Field: "name"}
	}

	tier := models.TierAnalysis{
		Name:               name,
		StatedPrice:        stringOr(m["stated_price"], UnknownPrice),
		Limitations:        stringList(m["limitations"]),
		HiddenRequirements: stringList(m["hidden_requirements"]),
	}
	if s, ok := scalarString(m["true_cost_estimate"]); ok {
		tier.TrueCostEstimate = &s
	}
	return tier, nil
}

func resolveToolName(obj map[string]any, fallback string) string {
	if name := stringOr(obj["tool_name"], ""); name != "" {
		return name
	}
	if fallback = strings.TrimSpace(fallback); fallback != "" {
		return fallback
	}
	return UnknownToolName
}

// parseScore accepts numbers and numeric strings, rounds, and clamps to 0-100.
func parseScore(v any) int {
	var f float64
	switch s := v.(type) {
	case float64:
		f = s
	case json.Number:
		parsed, err := s.Float64()
		if err != nil {
			return DefaultScore
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return DefaultScore
		}
		f = parsed
	default:
		return DefaultScore
	}
	if math.IsNaN(f) {
		return DefaultScore
	}
	return int(math.Round(min(100, max(0, f))))
}

func stringOr(v any, def string) string {
	if s, ok := scalarString(v); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return def
}

// scalarString stringifies JSON scalars. Null, objects and arrays report false.
func scalarString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(s), true
	case json.Number:
		return s.String(), true
	default:
		return "", false
	}
}

func listOf(v any) []any {
	if l, ok := v.([]any); ok {
		return l
	}
	return nil
}

// stringList never returns nil.
func stringList(v any) []string {
	out := []string{}
	for _, item := range listOf(v) {
		if s, ok := scalarString(item); ok {
			out = append(out, s)
		}
	}
	return out
}
