// Package llm posts completion and diagnosis requests to an
// OpenAI-compatible chat endpoint and normalizes the replies.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jg-phare/nudge/internal/log"
	"github.com/jg-phare/nudge/pkg/config"
	nudgectx "github.com/jg-phare/nudge/pkg/context"
	"github.com/jg-phare/nudge/pkg/protocol"
	"github.com/jg-phare/nudge/pkg/shellmode"
)

const defaultSystemPrompt = `You are a CLI command completion assistant. Your task is to complete the user's partially typed command based on the provided context.

Rules:
1. Return ONLY the completed command, nothing else
2. Do not explain or add commentary
3. Consider the shell history and current directory context
4. Complete commands that make sense in the given context
5. Prefer safe, non-destructive operations
6. If the command is already complete, return it unchanged

Context will include:
- Recent shell history
- Current working directory files
- Previous command exit status
- Git repository state (if applicable)`

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete asks the model to finish the typed buffer. The whole round trip
// is hard-bounded by model.timeout_ms; transport, HTTP and decode failures
// come back as *APIError, request-construction failures as plain errors.
func Complete(ctx context.Context, buffer string, mode shellmode.Mode, data *nudgectx.Data, cfg *config.Config) (string, error) {
	system := cfg.SystemPrompt
	if system == "" {
		system = defaultSystemPrompt
	}
	user := BuildUserPrompt(buffer, mode, data)

	reply, err := postChat(ctx, system, user, 100,
		time.Duration(cfg.Model.TimeoutMs)*time.Millisecond, cfg)
	if err != nil {
		return "", err
	}
	return CleanCompletion(reply, buffer), nil
}

// postChat performs one chat completion call and returns the raw assistant
// message content.
func postChat(ctx context.Context, system, user string, maxTokens int, timeout time.Duration, cfg *config.Config) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(chatRequest{
		Model: cfg.Model.ModelName,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.3,
		Stream:      false,
	})
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	url := cfg.Model.Endpoint + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	if key := cfg.ResolveAPIKey(); key != "" {
		httpReq.Header.Set("Authorization", "Bearer "+key)
	} else if cfg.Model.APIKeyEnv != "" {
		log.Warn("API key environment variable is not set", zap.String("env", cfg.Model.APIKeyEnv))
	}

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return "", categorizeTransport(err, cfg)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", categorizeStatus(resp.StatusCode, string(raw), cfg)
	}

	var completion chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", &APIError{
			Code:    protocol.ErrLLMUnavailable,
			Message: fmt.Sprintf("failed to parse LLM response from %s: %v", cfg.Model.Endpoint, err),
		}
	}
	if len(completion.Choices) == 0 {
		return "", nil
	}
	return completion.Choices[0].Message.Content, nil
}

