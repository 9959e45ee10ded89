package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultLLMURL      = "https://api.openai.com/v1/chat/completions"
	DefaultChatModel   = "gpt-3.5-turbo"
	DefaultVisionModel = "gpt-4o-mini"

	ChatMaxTokens     = 500
	ChatTemperature   = 0.8
	VisionMaxTokens   = 200
	VisionTemperature = 0.3

	FinishReasonLength = "length"
)

// ErrLLMNotConfigured is returned when no API key is available.
var ErrLLMNotConfigured = errors.New("OpenAI API key not configured")

// Message is one chat-completions message. Content is a string for plain
// turns and a []ContentPart for vision requests.
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// ContentPart is one element of a multi-part message.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL points at an image, usually a data URL.
type ImageURL struct {
	URL string `json:"url"`
}

// ChatRequest is the chat-completions request body.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Completion is the first choice of a chat-completions answer.
type Completion struct {
	Content      string
	FinishReason string
}

// Truncated reports whether the model stopped at the token limit.
func (c *Completion) Truncated() bool {
	return c.FinishReason == FinishReasonLength
}

// APIError is a non-2xx answer from the LLM API.
type APIError struct {
	Status  int
	Message string
	Details json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("LLM API error (status %d): %s", e.Status, e.Message)
}

// LLMService calls the OpenAI chat-completions endpoint.
type LLMService struct {
	apiKey string
	apiURL string
	client *http.Client
	log    logrus.FieldLogger
}

// NewLLMService creates a new LLMService. An empty apiURL uses the OpenAI
// endpoint and a nil client uses http.DefaultClient.
func NewLLMService(apiKey, apiURL string, client *http.Client, log logrus.FieldLogger) *LLMService {
	if apiURL == "" {
		apiURL = DefaultLLMURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &LLMService{apiKey: apiKey, apiURL: apiURL, client: client, log: log}
}

// Configured reports whether an API key is present.
func (s *LLMService) Configured() bool {
	return s.apiKey != ""
}

// Forward posts payload and returns the upstream status and body verbatim.
// Transport failures return an error; HTTP failures do not.
func (s *LLMService) Forward(ctx context.Context, payload any) (int, []byte, error) {
	if !s.Configured() {
		return 0, nil, ErrLLMNotConfigured
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("LLM request completed")

	return resp.StatusCode, respBody, nil
}

// Complete sends a chat request and returns the first choice.
func (s *LLMService) Complete(ctx context.Context, req ChatRequest) (*Completion, error) {
	if req.Model == "" {
		req.Model = DefaultChatModel
	}
	status, body, err := s.Forward(ctx, req)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, ParseAPIError(status, body)
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no choices in LLM response")
	}
	return &Completion{
		Content:      resp.Choices[0].Message.Content,
		FinishReason: resp.Choices[0].FinishReason,
	}, nil
}

// VisionRequest builds the single-turn image request used for snack photos.
func VisionRequest(imageURL, prompt, model string) ChatRequest {
	if model == "" {
		model = DefaultVisionModel
	}
	return ChatRequest{
		Model: model,
		Messages: []Message{{
			Role: "user",
			Content: []ContentPart{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &ImageURL{URL: imageURL}},
			},
		}},
		MaxTokens:   intPtr(VisionMaxTokens),
		Temperature: floatPtr(VisionTemperature),
	}
}

// ParseAPIError turns an upstream error body into an *APIError. The message
// comes from error.message when present.
func ParseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Message: "OpenAI API error"}
	var payload struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Error) == 0 {
		return apiErr
	}
	apiErr.Details = payload.Error

	var detail struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload.Error, &detail); err == nil && detail.Message != "" {
		apiErr.Message = detail.Message
	}
	return apiErr
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
