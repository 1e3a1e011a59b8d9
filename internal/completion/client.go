package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/solacebot/solace/internal/conversation"
)

const (
	// DefaultTimeout bounds a single completion call.
	DefaultTimeout = 15 * time.Second

	chatCompletionsPath = "/chat/completions"
	contentTypeHeader   = "Content-Type"
	applicationJSON     = "application/json"
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
)

// Config holds configuration for the completion endpoint.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	TopP        float64
	MaxTokens   int
	Timeout     time.Duration
}

// HTTPClient calls an OpenAI-compatible chat-completions endpoint.
// One attempt per exchange; retries would risk duplicate-looking replies.
type HTTPClient struct {
	config Config
	http   *http.Client
}

// chat-completions wire format.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *chatError   `json:"error,omitempty"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// NewHTTPClient creates a completion client.
func NewHTTPClient(config Config) (*HTTPClient, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key cannot be empty")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model cannot be empty")
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	return &HTTPClient{
		config: config,
		http:   &http.Client{Timeout: config.Timeout},
	}, nil
}

// Complete sends the message context and returns the first choice's text.
func (c *HTTPClient) Complete(ctx context.Context, messages []conversation.Turn) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("message list cannot be empty")
	}

	body, err := json.Marshal(c.buildRequest(messages))
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost,
		c.config.BaseURL+chatCompletionsPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build completion request: %w", err)
	}
	req.Header.Set(contentTypeHeader, applicationJSON)
	req.Header.Set(authorizationHeader, bearerPrefix+c.config.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		if isDeadlineError(err) {
			return "", &TimeoutError{Timeout: c.config.Timeout}
		}
		return "", &DecodeError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	return c.parseResponse(resp)
}

func (c *HTTPClient) buildRequest(messages []conversation.Turn) chatRequest {
	wire := make([]chatMessage, 0, len(messages))
	for _, turn := range messages {
		wire = append(wire, chatMessage{
			Role:    string(turn.Role),
			Content: turn.Content,
		})
	}
	return chatRequest{
		Model:       c.config.Model,
		Messages:    wire,
		Temperature: c.config.Temperature,
		TopP:        c.config.TopP,
		MaxTokens:   c.config.MaxTokens,
	}
}

func (c *HTTPClient) parseResponse(resp *http.Response) (string, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if isDeadlineError(err) {
			return "", &TimeoutError{Timeout: c.config.Timeout}
		}
		return "", &DecodeError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &UpstreamError{
			StatusCode: resp.StatusCode,
			Message:    upstreamMessage(raw),
		}
	}

	var parsed chatResponse
	if unmarshalErr := json.Unmarshal(raw, &parsed); unmarshalErr != nil {
		return "", &DecodeError{Err: fmt.Errorf("failed to parse response: %w", unmarshalErr)}
	}
	if parsed.Error != nil {
		return "", &DecodeError{Err: fmt.Errorf("service error in response: %s", parsed.Error.Message)}
	}
	if len(parsed.Choices) == 0 {
		return "", &DecodeError{Err: fmt.Errorf("response contained no choices")}
	}

	return parsed.Choices[0].Message.Content, nil
}

// upstreamMessage extracts the service's error message from an error body,
// falling back to empty when the body is not the expected JSON shape.
func upstreamMessage(raw []byte) string {
	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return ""
	}
	if parsed.Error == nil {
		return ""
	}
	return parsed.Error.Message
}

func isDeadlineError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
