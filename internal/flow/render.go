package flow

import (
	"math"
	"strconv"
	"strings"
)

// percent renders a fractional confidence as a whole-number percentage,
// e.g. 0.85 -> "85%". Prompts always show confidence this way.
func percent(v float64) string {
	return strconv.Itoa(int(math.Round(v*100))) + "%"
}

// extractJSON returns the first top-level JSON object embedded in content,
// tolerating markdown fences and prose around it. Returns "" when no object
// is found.
func extractJSON(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return strings.TrimSpace(content[start : end+1])
}

// requireText checks a required free-text field.
func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Constraint: "is required"}
	}
	return nil
}

// checkUnit checks a confidence-style value against [0,1].
func checkUnit(field string, value float64) error {
	if value < 0 || value > 1 {
		return &ValidationError{Field: field, Constraint: "must be between 0 and 1"}
	}
	return nil
}

// checkMaxLen enforces a character cap. Word-count limits in the prompts are
// approximated by these caps; the cap is the enforced contract.
func checkMaxLen(field, value string, max int) error {
	if len(value) > max {
		return &ValidationError{Field: field, Constraint: "exceeds " + strconv.Itoa(max) + " characters"}
	}
	return nil
}
