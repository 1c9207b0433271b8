// Package summary calls a remote chat-completions endpoint to turn a
// session's marker list into a short prose summary.
package summary

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/framemarkapp/framemark-server/internal/config"
)

// maxResponseBytes caps how much of the collaborator's response we read.
const maxResponseBytes = 1 << 20

// instructionTemplate is the system prompt sent with every request. The
// marker list arrives as the user message in "[HH:MM:SS:FF] comment" form.
const instructionTemplate = "You are an assistant for a video review session. " +
	"The user provides a list of timecoded markers from a session named %q running at %d fps. " +
	"Write a short prose summary of the session's notes. " +
	"Group related markers, keep it under 150 words, and do not repeat the timecodes verbatim."

// Client talks to the summarization endpoint.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *slog.Logger
	endpoint    string
	model       string
	apiKey      string
}

// NewClient creates a summary client from configuration.
// Outbound calls are paced with a token bucket so a marker-happy operator
// cannot hammer the remote endpoint.
func NewClient(cfg config.SummaryConfig, logger *slog.Logger) *Client {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 6
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 2),
		logger:      logger,
		endpoint:    cfg.Endpoint,
		model:       cfg.Model,
		apiKey:      cfg.APIKey,
	}
}

// Enabled reports whether an endpoint is configured.
func (c *Client) Enabled() bool {
	return c.endpoint != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Summarize sends the marker text to the remote endpoint and returns the
// generated summary. There is no retry; a failed call surfaces as an error
// and the caller decides what to show instead.
func (c *Client) Summarize(ctx context.Context, sessionName string, fps int, markerText string) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("summary endpoint not configured")
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("summary rate limit: %w", err)
	}

	requestID := uuid.NewString()
	log := c.logger.With(
		slog.String("request_id", requestID),
		slog.String("session_name", sessionName))

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: fmt.Sprintf(instructionTemplate, sessionName, fps)},
			{Role: "user", Content: markerText},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal summary request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build summary request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("summary request failed", slog.String("error", err.Error()))
		return "", fmt.Errorf("summary request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read summary response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Warn("summary endpoint returned error",
			slog.Int("status", resp.StatusCode),
			slog.Duration("elapsed", time.Since(start)))
		return "", fmt.Errorf("summary endpoint returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode summary response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("summary endpoint error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("summary response contained no choices")
	}

	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("summary response was empty")
	}

	log.Debug("summary generated",
		slog.Int("chars", len(text)),
		slog.Duration("elapsed", time.Since(start)))

	return text, nil
}
