// Package gemini implements the live flow.Completer over the Google
// Generative Language REST API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"synr/internal/flow"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.0-flash"
)

var errMissingAPIKey = fmt.Errorf("gemini API key is required")

// Config holds the client settings.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	Timeout     time.Duration
}

// Client is a flow.Completer backed by the generateContent endpoint. It
// makes exactly one attempt per call with one bounded timeout.
type Client struct {
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	httpClient  *http.Client
}

// Compile-time interface check.
var _ flow.Completer = (*Client)(nil)

// NewClient creates a Client from cfg, applying defaults for model, base
// URL, temperature, and timeout.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errMissingAPIKey
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 45 * time.Second
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.4
	}

	return &Client{
		apiKey:      cfg.APIKey,
		model:       model,
		baseURL:     baseURL,
		temperature: temperature,
		httpClient:  &http.Client{Timeout: timeout},
	}, nil
}

// --- wire types ---

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
	SafetySettings   []safetySetting  `json:"safetySettings,omitempty"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete submits one rendered prompt and maps the reply onto the flow
// error taxonomy: transport failures to InvocationError, safety blocks to
// RefusalError, and empty replies to NoOutputError.
func (c *Client) Complete(ctx context.Context, req flow.CompletionRequest) (string, error) {
	payload := generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: req.Prompt}}},
		},
		GenerationConfig: generationConfig{Temperature: c.temperature},
	}
	if req.JSONOutput {
		payload.GenerationConfig.ResponseMimeType = "application/json"
	}
	for _, s := range req.SafetySettings {
		payload.SafetySettings = append(payload.SafetySettings, safetySetting{
			Category:  string(s.Category),
			Threshold: string(s.Threshold),
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", &flow.InvocationError{Cause: fmt.Errorf("marshaling request: %w", err)}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &flow.InvocationError{Cause: fmt.Errorf("creating request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &flow.InvocationError{Cause: err, Timeout: isTimeout(err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &flow.InvocationError{Cause: fmt.Errorf("reading response: %w", err)}
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &flow.InvocationError{Cause: fmt.Errorf("parsing response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(respBody))
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", &flow.InvocationError{Cause: fmt.Errorf("backend status %d: %s", resp.StatusCode, msg)}
	}

	// The backend may refuse the whole prompt or stop a candidate on a
	// safety threshold; both surface as a refusal, never a generic failure.
	if parsed.PromptFeedback != nil && parsed.PromptFeedback.BlockReason != "" {
		return "", &flow.RefusalError{Reason: parsed.PromptFeedback.BlockReason}
	}
	if len(parsed.Candidates) > 0 && parsed.Candidates[0].FinishReason == "SAFETY" {
		return "", &flow.RefusalError{Reason: "SAFETY"}
	}

	if len(parsed.Candidates) == 0 {
		return "", &flow.NoOutputError{Flow: req.Flow}
	}

	var text strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", &flow.NoOutputError{Flow: req.Flow}
	}

	return text.String(), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
