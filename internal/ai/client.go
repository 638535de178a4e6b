// Package ai talks to the DeepSeek (OpenAI compatible) chat completion API.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jomarcello/Waviate/internal/config"
	"github.com/jomarcello/Waviate/pkg/models"
	openai "github.com/sashabaranov/go-openai"
)

var ErrMissingAPIKey = errors.New("ai: DEEPSEEK_API_KEY is required")

type FailureReason string

const (
	FailureNetwork   FailureReason = "network"
	FailureStatus    FailureReason = "status"
	FailureMalformed FailureReason = "malformed_response"
)

// Failure describes why a completion call produced no text.
type Failure struct {
	Reason     FailureReason
	StatusCode int
	Body       string
	Err        error
}

func (f *Failure) Error() string {
	switch f.Reason {
	case FailureStatus:
		return fmt.Sprintf("ai: backend returned %d: %s", f.StatusCode, f.Body)
	default:
		if f.Err != nil {
			return fmt.Sprintf("ai: %s: %v", f.Reason, f.Err)
		}
		return fmt.Sprintf("ai: %s", f.Reason)
	}
}

func (f *Failure) Unwrap() error { return f.Err }

// Result carries either the generated text or the failure that prevented it.
type Result struct {
	Text    string
	Raw     json.RawMessage
	Failure *Failure
}

func (r Result) OK() bool { return r.Failure == nil }

// Err returns the failure as an error, or nil.
func (r Result) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}

type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Client struct {
	chat  chatClient
	model string
}

func NewClient(cfg config.AIConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/") + "/v1"
	oc.HTTPClient = &http.Client{Timeout: cfg.RequestTimeout}

	return &Client{
		chat:  openai.NewClientWithConfig(oc),
		model: cfg.Model,
	}, nil
}

// Complete issues one chat completion request and returns choices[0].message.content.
func (c *Client) Complete(ctx context.Context, messages []models.Turn, temperature float64, maxTokens int) Result {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toChatMessages(messages),
		Temperature: float32(temperature),
		MaxTokens:   maxTokens,
	}

	resp, err := c.chat.CreateChatCompletion(ctx, req)
	if err != nil {
		return Result{Failure: classify(err)}
	}

	raw, _ := json.Marshal(resp)
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return Result{Raw: raw, Failure: &Failure{
			Reason:     FailureMalformed,
			StatusCode: http.StatusOK,
			Err:        errors.New("response has no choices[0].message.content"),
		}}
	}

	return Result{Text: resp.Choices[0].Message.Content, Raw: raw}
}

func toChatMessages(turns []models.Turn) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, t := range turns {
		out = append(out, openai.ChatCompletionMessage{Role: string(t.Role), Content: t.Content})
	}
	return out
}

// classify maps a go-openai error onto the failure taxonomy.
func classify(err error) *Failure {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &Failure{Reason: FailureStatus, StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message, Err: err}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &Failure{Reason: FailureStatus, StatusCode: reqErr.HTTPStatusCode, Body: string(reqErr.Body), Err: err}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return &Failure{Reason: FailureMalformed, StatusCode: http.StatusOK, Err: err}
	}

	return &Failure{Reason: FailureNetwork, Err: err}
}
