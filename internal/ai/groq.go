// Package ai talks to the LLM that turns free-text symptoms into a diagnosis.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/config"
	"github.com/sethvargo/go-retry"
)

// Diagnoser is the AI collaborator seen by the diagnosis service.
type Diagnoser interface {
	Diagnose(ctx context.Context, symptoms string) (*Diagnosis, error)
}

// Diagnosis is a parsed Result plus what is needed to audit it later.
type Diagnosis struct {
	Result
	Model string
	Raw   string
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GroqClient calls an OpenAI-compatible chat completions endpoint.
type GroqClient struct {
	apiURL       string
	apiKey       string
	model        string
	jurisdiction string
	timeout      time.Duration
	maxRetries   int
	backoffBase  time.Duration
	httpClient   *http.Client
}

func NewGroqClient(cfg *config.Config) *GroqClient {
	timeout := cfg.AITimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	maxRetries := cfg.AIMaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &GroqClient{
		apiURL:       cfg.GroqAPIURL,
		apiKey:       cfg.GroqAPIKey,
		model:        cfg.GroqModel,
		jurisdiction: cfg.AIJurisdiction,
		timeout:      timeout,
		maxRetries:   maxRetries,
		backoffBase:  500 * time.Millisecond,
		httpClient:   &http.Client{},
	}
}

func (g *GroqClient) Model() string { return g.model }

// Diagnose sends one deterministic (temperature 0) completion request.
// Transport errors, 429 and 5xx are retried with exponential backoff up to
// maxRetries times; every other failure returns immediately.
func (g *GroqClient) Diagnose(ctx context.Context, symptoms string) (*Diagnosis, error) {
	if g.apiKey == "" {
		return nil, apperr.New(apperr.KindAIService, "AI provider not configured")
	}

	payload, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt(g.jurisdiction)},
			{Role: "user", Content: userPrompt(symptoms)},
		},
		Temperature:    0,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to encode AI request", err)
	}

	backoff := retry.WithMaxRetries(uint64(g.maxRetries), retry.NewExponential(g.backoffBase))

	var content string
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		c, err := g.complete(ctx, payload)
		if err != nil {
			var te *transientError
			if errors.As(err, &te) {
				slog.Warn("AI request failed, retrying", "attempt", attempt, "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		content = c
		return nil
	})
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return nil, ae
		}
		return nil, apperr.Wrap(apperr.KindAIService, "AI request failed", err)
	}

	result, err := ParseResult(content)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindAIResponse, "invalid AI response", err)
	}

	return &Diagnosis{Result: *result, Model: g.model, Raw: content}, nil
}

// transientError marks failures worth another attempt.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func (g *GroqClient) complete(ctx context.Context, payload []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", apperr.Wrap(apperr.KindAIService, "failed to build AI request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", &transientError{err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &transientError{err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := fmt.Errorf("AI API error: status %d", resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", &transientError{err: statusErr}
		}
		return "", apperr.Wrap(apperr.KindAIService, "AI request rejected", statusErr)
	}

	var completion chatResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return "", apperr.Wrap(apperr.KindAIResponse, "failed to decode AI response", err)
	}
	if len(completion.Choices) == 0 {
		return "", apperr.New(apperr.KindAIResponse, "no response from AI")
	}

	return completion.Choices[0].Message.Content, nil
}
