package flow

import (
	"encoding/json"
	"strconv"
	"strings"

	"synr/internal/domain"
)

// ReflectionMaxChars caps the reflection note. The prompt asks for at most
// 50 words; the cap is the enforced proxy for that limit.
const ReflectionMaxChars = 300

// ReflectionInput pairs an issued signal's parameters with its realized
// outcome.
type ReflectionInput struct {
	Asset               string            `json:"asset"`
	SignalType          domain.SignalType `json:"signalType"`
	SignalPrice         float64           `json:"signalPrice,omitempty"`
	PredictedDirection  domain.Direction  `json:"predictedDirection"`
	Confidence          float64           `json:"confidence"`
	KeyTechnicalReasons string            `json:"keyTechnicalReasons,omitempty"`
	KeyNewsEvents       string            `json:"keyNewsEvents,omitempty"`
	SessionInfo         string            `json:"sessionInfo,omitempty"`
	// ActualOutcome is free text, e.g. "Win - Hit Take Profit at 1975" or
	// "Loss - Hit Stop Loss at 1945".
	ActualOutcome          string `json:"actualOutcome"`
	OutcomePriceRange      string `json:"outcomePriceRange,omitempty"`
	ReasonForActualOutcome string `json:"reasonForActualOutcome,omitempty"`
}

// ReflectionOutput is the validated reply of the trade reflection flow.
type ReflectionOutput struct {
	ReflectionNote string `json:"reflectionNote"`
}

// Validate checks the required fields and their constraints.
func (in *ReflectionInput) Validate() error {
	if err := requireText("asset", in.Asset); err != nil {
		return err
	}
	if !in.SignalType.Valid() {
		return &ValidationError{Field: "signalType", Constraint: "must be BUY, SELL, or AVOID"}
	}
	if !in.PredictedDirection.Valid() {
		return &ValidationError{Field: "predictedDirection", Constraint: "must be up, down, neutral, or uncertain"}
	}
	if err := checkUnit("confidence", in.Confidence); err != nil {
		return err
	}
	return requireText("actualOutcome", in.ActualOutcome)
}

func renderReflectionPrompt(in ReflectionInput) string {
	var b strings.Builder
	b.WriteString("You are an AI Trade Analyst. Your task is to reflect on a past trade signal and its outcome.\n")
	b.WriteString("Analyze the provided information and generate a concise (strictly maximum 50 words) reflection note.\n")
	b.WriteString("The note should aim to explain why the trade might have performed as it did, considering the initial reasoning, market behavior, and actual outcome.\n")
	b.WriteString("Highlight any key learnings, confirmations, or misjudgments.\n\n")
	b.WriteString("Trade Details at time of Signal:\n")
	b.WriteString("Asset: " + in.Asset + "\n")
	b.WriteString("Signal Type: " + string(in.SignalType) + "\n")
	if in.SignalPrice > 0 {
		b.WriteString("Signal Price: " + strconv.FormatFloat(in.SignalPrice, 'f', -1, 64) + "\n")
	}
	b.WriteString("Predicted Direction: " + string(in.PredictedDirection) + "\n")
	b.WriteString("Signal Confidence: " + percent(in.Confidence) + "\n")
	if in.KeyTechnicalReasons != "" {
		b.WriteString("Original Technical Rationale: " + in.KeyTechnicalReasons + "\n")
	}
	if in.KeyNewsEvents != "" {
		b.WriteString("Original News Context: " + in.KeyNewsEvents + "\n")
	}
	if in.SessionInfo != "" {
		b.WriteString("Session when signal was active: " + in.SessionInfo + "\n")
	}
	b.WriteString("\nTrade Outcome:\n")
	b.WriteString("Actual Result: " + in.ActualOutcome + "\n")
	if in.OutcomePriceRange != "" {
		b.WriteString("Observed Price Movement Summary: " + in.OutcomePriceRange + "\n")
	}
	if in.ReasonForActualOutcome != "" {
		b.WriteString("Identified Reason for Outcome (if any): " + in.ReasonForActualOutcome + "\n")
	}
	b.WriteString("\nBased on all this, respond with a single JSON object only: {\"reflectionNote\": string, max 50 words}")
	return b.String()
}

func parseReflectionOutput(raw string) (*ReflectionOutput, error) {
	payload := extractJSON(raw)
	if payload == "" {
		return nil, &ValidationError{Field: "output", Constraint: "contains no JSON object"}
	}

	var decoded struct {
		ReflectionNote *string `json:"reflectionNote"`
	}
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return nil, &ValidationError{Field: "output", Constraint: "is not valid JSON: " + err.Error()}
	}
	if decoded.ReflectionNote == nil || strings.TrimSpace(*decoded.ReflectionNote) == "" {
		return nil, &ValidationError{Field: "reflectionNote", Constraint: "is required"}
	}
	if err := checkMaxLen("reflectionNote", *decoded.ReflectionNote, ReflectionMaxChars); err != nil {
		return nil, err
	}

	return &ReflectionOutput{ReflectionNote: *decoded.ReflectionNote}, nil
}
