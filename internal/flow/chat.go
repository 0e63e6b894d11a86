package flow

import (
	"encoding/json"
	"strings"
)

// ChatRole tags a chat turn's author.
type ChatRole string

const (
	RoleUser  ChatRole = "user"
	RoleModel ChatRole = "model"
)

// ChatTurn is one prior message of a conversation. History is owned by the
// caller and replayed into every chat prompt; this layer never stores it.
type ChatTurn struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// ChatInput is one user message plus optional conversation context.
type ChatInput struct {
	UserMessage          string     `json:"userMessage"`
	ChatHistory          []ChatTurn `json:"chatHistory,omitempty"`
	CurrentSignalContext string     `json:"currentSignalContext,omitempty"`
}

// ChatOutput is the assistant's reply.
type ChatOutput struct {
	AIResponse string `json:"aiResponse"`
}

// Validate checks the user message and every history turn.
func (in *ChatInput) Validate() error {
	if err := requireText("userMessage", in.UserMessage); err != nil {
		return err
	}
	for _, turn := range in.ChatHistory {
		if turn.Role != RoleUser && turn.Role != RoleModel {
			return &ValidationError{Field: "chatHistory.role", Constraint: "must be \"user\" or \"model\""}
		}
		if err := requireText("chatHistory.content", turn.Content); err != nil {
			return err
		}
	}
	return nil
}

func renderChatPrompt(in ChatInput) string {
	var b strings.Builder
	b.WriteString("You are Synr, a friendly, highly knowledgeable, and concise AI trading assistant for Gold (XAU/USD).\n")
	b.WriteString("Your primary goal is to provide helpful insights and clear explanations.\n")
	b.WriteString("You do not have real-time access to live financial data feeds or the ability to execute trades.\n")
	b.WriteString("When asked about current data or specific predictions, simulate informed opinions or general market knowledge as a trading assistant would.\n")

	if len(in.ChatHistory) > 0 {
		b.WriteString("\nConversation History:\n")
		for _, turn := range in.ChatHistory {
			switch turn.Role {
			case RoleUser:
				b.WriteString("User: " + turn.Content + "\n")
			case RoleModel:
				b.WriteString("Synr: " + turn.Content + "\n")
			}
		}
	}

	if in.CurrentSignalContext != "" {
		b.WriteString("\nCurrent Trade Signal Context: " + in.CurrentSignalContext + "\n")
		b.WriteString("(Use this context if the user's query seems related to the current signal.)\n")
	}

	b.WriteString("\nUser's latest message: " + in.UserMessage + "\n\n")
	b.WriteString("Based on the user's message, and any provided history or signal context, respond helpfully.\n")
	b.WriteString("If the user asks \"Why this signal?\", use the \"Current Trade Signal Context\" to explain.\n")
	b.WriteString("If asked to summarize news, provide a general overview based on common financial knowledge, mentioning you don't have live news feeds.\n")
	b.WriteString("If asked about market mood or caution zones, give general advice (e.g., \"Market seems cautious ahead of CPI data,\" or \"Be mindful of increased volatility around major news releases.\").\n")
	b.WriteString("Keep your responses concise and easy to understand.\n\n")
	b.WriteString("Respond with a single JSON object only: {\"aiResponse\": string}")
	return b.String()
}

func parseChatOutput(raw string) (*ChatOutput, error) {
	payload := extractJSON(raw)
	if payload == "" {
		return nil, &ValidationError{Field: "output", Constraint: "contains no JSON object"}
	}

	var decoded struct {
		AIResponse *string `json:"aiResponse"`
	}
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return nil, &ValidationError{Field: "output", Constraint: "is not valid JSON: " + err.Error()}
	}
	if decoded.AIResponse == nil || strings.TrimSpace(*decoded.AIResponse) == "" {
		return nil, &ValidationError{Field: "aiResponse", Constraint: "is required"}
	}

	return &ChatOutput{AIResponse: *decoded.AIResponse}, nil
}
