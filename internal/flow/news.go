package flow

import (
	"encoding/json"
	"strings"

	"synr/internal/domain"
)

// NewsInput is a news article to analyse.
type NewsInput struct {
	Headline string `json:"headline"`
	Content  string `json:"content,omitempty"`
	Source   string `json:"source,omitempty"`
}

// Sentiment is the market-facing sentiment of an article.
type Sentiment struct {
	// Score runs from -1 (very negative) to 1 (very positive).
	Score float64               `json:"score"`
	Label domain.SentimentLabel `json:"label"`
}

// ImpactEstimation is the estimated effect of an article on one asset.
type ImpactEstimation struct {
	// TargetAsset defaults to Gold unless the article strongly implies a
	// specific instrument (a named company, an oil-specific event).
	TargetAsset string           `json:"targetAsset"`
	Direction   domain.Direction `json:"direction"`
	Magnitude   domain.Magnitude `json:"magnitude,omitempty"`
	Confidence  *float64         `json:"confidence,omitempty"`
	Reasoning   string           `json:"reasoning"`
}

// NewsOutput is the validated reply of the news analysis flow.
type NewsOutput struct {
	KeyEntities      []string         `json:"keyEntities"`
	Topics           []string         `json:"topics"`
	Sentiment        Sentiment        `json:"sentiment"`
	ImpactEstimation ImpactEstimation `json:"impactEstimation"`
	Summary          string           `json:"summary"`
}

// newsSafetySettings relax the dangerous-content threshold (financial news
// routinely mentions conflict) while keeping harassment strict.
var newsSafetySettings = []SafetySetting{
	{Category: CategoryDangerousContent, Threshold: BlockOnlyHigh},
	{Category: CategoryHarassment, Threshold: BlockMediumAndAbove},
}

// Validate checks the required headline.
func (in *NewsInput) Validate() error {
	return requireText("headline", in.Headline)
}

func renderNewsPrompt(in NewsInput) string {
	var b strings.Builder
	b.WriteString("You are an expert financial news analyst AI. Your task is to analyze the provided news article (headline and optional content) and extract key information.\n\n")
	if in.Source != "" {
		b.WriteString("News Source: " + in.Source + "\n")
	}
	b.WriteString("Headline: " + in.Headline + "\n")
	if in.Content != "" {
		b.WriteString("Content: " + in.Content + "\n")
	}
	b.WriteString("\nBased on the news, provide the following analysis strictly in the specified JSON output format:\n")
	b.WriteString("1. Key Entities: Identify major financial or geopolitical entities, concepts, or organizations mentioned (e.g., FED, CPI, specific countries, commodities like Oil, currencies like USD).\n")
	b.WriteString("2. Topics: Determine the main topics (e.g., monetary policy, fiscal policy, inflation, employment data, geopolitical conflict, company earnings).\n")
	b.WriteString("3. Sentiment: Assess the overall sentiment of the news as it pertains to financial markets. Provide a score between -1 (very negative) and 1 (very positive), and a label ('positive', 'negative', 'neutral').\n")
	b.WriteString("4. Impact Estimation:\n")
	b.WriteString("   - Identify the primary financial asset most likely to be impacted. If the news is generally about the economy or doesn't specify a clear asset, assume the impact is on Gold (XAU/USD). If the news is very specific (e.g., about a particular company's earnings or an oil-specific event), then identify that asset (e.g., the company's stock symbol, Oil).\n")
	b.WriteString("   - Estimate the likely direction of impact on this target asset ('up', 'down', 'neutral', 'uncertain').\n")
	b.WriteString("   - Optionally, estimate the magnitude ('high', 'medium', 'low', 'uncertain').\n")
	b.WriteString("   - Provide a confidence score (0-1) for your impact estimation.\n")
	b.WriteString("   - Briefly explain your reasoning for the estimated impact.\n")
	b.WriteString("5. Summary: Provide a concise summary (around 2-3 sentences) of the news, focusing on its key takeaways for financial markets and its potential impact.\n\n")
	b.WriteString("Ensure your entire response is a single JSON object with exactly this shape:\n")
	b.WriteString(`{"keyEntities": [string], "topics": [string], "sentiment": {"score": number -1..1, "label": "positive"|"negative"|"neutral"}, "impactEstimation": {"targetAsset": string, "direction": "up"|"down"|"neutral"|"uncertain", "magnitude": "high"|"medium"|"low"|"uncertain", "confidence": number 0-1, "reasoning": string}, "summary": string}`)
	return b.String()
}

// parseNewsOutput validates the backend's raw reply. Nested sub-objects must
// fully satisfy their constraints or the whole output is invalid; the target
// asset is the one field with a declared default.
func parseNewsOutput(raw string) (*NewsOutput, error) {
	payload := extractJSON(raw)
	if payload == "" {
		return nil, &ValidationError{Field: "output", Constraint: "contains no JSON object"}
	}

	var decoded struct {
		KeyEntities []string `json:"keyEntities"`
		Topics      []string `json:"topics"`
		Sentiment   *struct {
			Score *float64 `json:"score"`
			Label *string  `json:"label"`
		} `json:"sentiment"`
		ImpactEstimation *struct {
			TargetAsset *string  `json:"targetAsset"`
			Direction   *string  `json:"direction"`
			Magnitude   *string  `json:"magnitude"`
			Confidence  *float64 `json:"confidence"`
			Reasoning   *string  `json:"reasoning"`
		} `json:"impactEstimation"`
		Summary *string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return nil, &ValidationError{Field: "output", Constraint: "is not valid JSON: " + err.Error()}
	}

	if decoded.KeyEntities == nil {
		return nil, &ValidationError{Field: "keyEntities", Constraint: "is required"}
	}
	if decoded.Topics == nil {
		return nil, &ValidationError{Field: "topics", Constraint: "is required"}
	}

	if decoded.Sentiment == nil {
		return nil, &ValidationError{Field: "sentiment", Constraint: "is required"}
	}
	if decoded.Sentiment.Score == nil {
		return nil, &ValidationError{Field: "sentiment.score", Constraint: "is required"}
	}
	if *decoded.Sentiment.Score < -1 || *decoded.Sentiment.Score > 1 {
		return nil, &ValidationError{Field: "sentiment.score", Constraint: "must be between -1 and 1"}
	}
	if decoded.Sentiment.Label == nil {
		return nil, &ValidationError{Field: "sentiment.label", Constraint: "is required"}
	}
	label := domain.SentimentLabel(*decoded.Sentiment.Label)
	if !label.Valid() {
		return nil, &ValidationError{Field: "sentiment.label", Constraint: "must be positive, negative, or neutral"}
	}

	impact := decoded.ImpactEstimation
	if impact == nil {
		return nil, &ValidationError{Field: "impactEstimation", Constraint: "is required"}
	}
	targetAsset := DefaultAsset
	if impact.TargetAsset != nil && strings.TrimSpace(*impact.TargetAsset) != "" {
		targetAsset = *impact.TargetAsset
	}
	if impact.Direction == nil {
		return nil, &ValidationError{Field: "impactEstimation.direction", Constraint: "is required"}
	}
	direction := domain.Direction(*impact.Direction)
	if !direction.Valid() {
		return nil, &ValidationError{Field: "impactEstimation.direction", Constraint: "must be up, down, neutral, or uncertain"}
	}
	var magnitude domain.Magnitude
	if impact.Magnitude != nil && *impact.Magnitude != "" {
		magnitude = domain.Magnitude(*impact.Magnitude)
		if !magnitude.Valid() {
			return nil, &ValidationError{Field: "impactEstimation.magnitude", Constraint: "must be high, medium, low, or uncertain"}
		}
	}
	if impact.Confidence != nil {
		if err := checkUnit("impactEstimation.confidence", *impact.Confidence); err != nil {
			return nil, err
		}
	}
	if impact.Reasoning == nil {
		return nil, &ValidationError{Field: "impactEstimation.reasoning", Constraint: "is required"}
	}

	if decoded.Summary == nil {
		return nil, &ValidationError{Field: "summary", Constraint: "is required"}
	}

	return &NewsOutput{
		KeyEntities: decoded.KeyEntities,
		Topics:      decoded.Topics,
		Sentiment: Sentiment{
			Score: *decoded.Sentiment.Score,
			Label: label,
		},
		ImpactEstimation: ImpactEstimation{
			TargetAsset: targetAsset,
			Direction:   direction,
			Magnitude:   magnitude,
			Confidence:  impact.Confidence,
			Reasoning:   *impact.Reasoning,
		},
		Summary: *decoded.Summary,
	}, nil
}
