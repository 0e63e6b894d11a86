package flow

import (
	"errors"
	"strings"
	"testing"
)

func TestChatInputRejectsBadRole(t *testing.T) {
	in := ChatInput{
		UserMessage: "hi",
		ChatHistory: []ChatTurn{{Role: "assistant", Content: "hello"}},
	}
	err := in.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Validate = %v, want ValidationError", err)
	}
	if verr.Field != "chatHistory.role" {
		t.Fatalf("Field = %q, want chatHistory.role", verr.Field)
	}
}

func TestChatInputRequiresMessage(t *testing.T) {
	in := ChatInput{}
	var verr *ValidationError
	if !errors.As(in.Validate(), &verr) || verr.Field != "userMessage" {
		t.Fatalf("Validate did not flag userMessage: %v", in.Validate())
	}
}

func TestRenderChatPromptHistoryOrder(t *testing.T) {
	in := ChatInput{
		UserMessage: "And now?",
		ChatHistory: []ChatTurn{
			{Role: RoleUser, Content: "first question"},
			{Role: RoleModel, Content: "first answer"},
			{Role: RoleUser, Content: "second question"},
		},
	}
	prompt := renderChatPrompt(in)

	i1 := strings.Index(prompt, "User: first question")
	i2 := strings.Index(prompt, "Synr: first answer")
	i3 := strings.Index(prompt, "User: second question")
	if i1 == -1 || i2 == -1 || i3 == -1 {
		t.Fatalf("history turns missing from prompt:\n%s", prompt)
	}
	if !(i1 < i2 && i2 < i3) {
		t.Fatalf("history out of order: %d %d %d", i1, i2, i3)
	}
	if !strings.Contains(prompt, "User's latest message: And now?") {
		t.Fatal("latest message missing from prompt")
	}
}

func TestRenderChatPromptOmitsEmptySections(t *testing.T) {
	prompt := renderChatPrompt(ChatInput{UserMessage: "hi"})
	if strings.Contains(prompt, "Conversation History") {
		t.Fatal("history section rendered with no history")
	}
	if strings.Contains(prompt, "Current Trade Signal Context") {
		t.Fatal("signal context section rendered with no context")
	}
}

func TestRenderChatPromptSignalContext(t *testing.T) {
	prompt := renderChatPrompt(ChatInput{
		UserMessage:          "Why this signal?",
		CurrentSignalContext: "BUY Gold at 1950, confidence 80%",
	})
	if !strings.Contains(prompt, "Current Trade Signal Context: BUY Gold at 1950, confidence 80%") {
		t.Fatal("signal context missing from prompt")
	}
}

func TestParseChatOutput(t *testing.T) {
	out, err := parseChatOutput("```json\n{\"aiResponse\": \"Watch 1950 support.\"}\n```")
	if err != nil {
		t.Fatalf("parseChatOutput: %v", err)
	}
	if out.AIResponse != "Watch 1950 support." {
		t.Fatalf("AIResponse = %q", out.AIResponse)
	}
}

func TestParseChatOutputEmptyResponse(t *testing.T) {
	_, err := parseChatOutput(`{"aiResponse": "  "}`)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "aiResponse" {
		t.Fatalf("err = %v, want ValidationError on aiResponse", err)
	}
}
