// Package flow implements the AI flow layer of the synr dashboard: five
// schema-typed request/response operations backed by a generative text
// completion backend, plus the live/mock service selection.
//
// Each flow validates its input, renders a deterministic prompt, invokes the
// completion backend once, and validates the raw reply against the flow's
// output schema. The programmatic validation is the authoritative gate; the
// output shape described inside each prompt is advisory text for the model
// only.
package flow

import "context"

// SafetyCategory identifies a content-safety category recognised by the
// completion backend.
type SafetyCategory string

const (
	CategoryHarassment       SafetyCategory = "HARM_CATEGORY_HARASSMENT"
	CategoryDangerousContent SafetyCategory = "HARM_CATEGORY_DANGEROUS_CONTENT"
)

// SafetyThreshold is the severity at which the backend starts blocking a
// category.
type SafetyThreshold string

const (
	BlockMediumAndAbove SafetyThreshold = "BLOCK_MEDIUM_AND_ABOVE"
	BlockOnlyHigh       SafetyThreshold = "BLOCK_ONLY_HIGH"
)

// SafetySetting pairs a category with its blocking threshold.
type SafetySetting struct {
	Category  SafetyCategory
	Threshold SafetyThreshold
}

// CompletionRequest is a single rendered prompt submitted to the backend.
type CompletionRequest struct {
	// Flow is the flow name, used in error and log context.
	Flow string
	// Prompt is the full instruction text.
	Prompt string
	// JSONOutput asks the backend to constrain its reply to a JSON body.
	JSONOutput bool
	// SafetySettings override the backend defaults for this call.
	SafetySettings []SafetySetting
}

// Completer is the completion backend boundary. Implementations make exactly
// one attempt per call and distinguish the failure kinds of this package:
// a refusal returns *RefusalError, an empty reply *NoOutputError, and a
// transport failure *InvocationError. The raw reply text is returned without
// interpretation; schema validation belongs to the flow.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
