package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jomarcello/Waviate/internal/config"
	"github.com/jomarcello/Waviate/internal/logger"
)

var ErrMissingCredentials = errors.New("whatsapp: WHATSAPP_ACCESS_TOKEN and WHATSAPP_PHONE_NUMBER_ID are required")

// APIError is returned for a non-2xx answer from the Graph API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp: API error %d: %s", e.StatusCode, e.Body)
}

type SendResponse struct {
	MessagingProduct string        `json:"messaging_product"`
	Contacts         []Contact     `json:"contacts"`
	Messages         []SentMessage `json:"messages"`
}

type Contact struct {
	Input string `json:"input"`
	WaID  string `json:"wa_id"`
}

type SentMessage struct {
	ID string `json:"id"`
}

// MessageID returns the id assigned to the first message, if any.
func (r *SendResponse) MessageID() string {
	if r == nil || len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[0].ID
}

type Client struct {
	token         string
	phoneNumberID string
	accountID     string
	apiVersion    string
	baseURL       string
	httpClient    *http.Client
	log           logger.Logger
}

func NewClient(cfg config.WhatsAppConfig, log logger.Logger) (*Client, error) {
	if cfg.AccessToken == "" || cfg.PhoneNumberID == "" {
		return nil, ErrMissingCredentials
	}
	if log == nil {
		log = logger.NopLogger()
	}
	return &Client{
		token:         cfg.AccessToken,
		phoneNumberID: cfg.PhoneNumberID,
		accountID:     cfg.BusinessAccountID,
		apiVersion:    cfg.APIVersion,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:    &http.Client{Timeout: cfg.RequestTimeout},
		log:           log,
	}, nil
}

// SetBaseURL points the client at a different Graph API host, e.g. an httptest server.
func (c *Client) SetBaseURL(base string) {
	c.baseURL = strings.TrimRight(base, "/")
}

func (c *Client) messagesURL() string {
	return fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.apiVersion, c.phoneNumberID)
}

func (c *Client) sendRequest(ctx context.Context, method, url string, body interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("whatsapp: encode request: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return respBody, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

// Send posts msg to the phone number's messages endpoint.
func (c *Client) Send(ctx context.Context, msg OutboundMessage) (*SendResponse, error) {
	respBody, err := c.sendRequest(ctx, http.MethodPost, c.messagesURL(), msg)
	if err != nil {
		c.log.Errorw("whatsapp send failed", "to", msg.To, "type", msg.Type, "error", err)
		return nil, err
	}

	var out SendResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("whatsapp: decode response: %w", err)
	}

	action := "SENT"
	if msg.Type == TypeTemplate {
		action = "SENT_TEMPLATE"
	}
	c.log.LogMessage(action, msg.To, msg.Summary(), map[string]string{"message_id": out.MessageID()})
	return &out, nil
}

func (c *Client) SendText(ctx context.Context, to, body string) (*SendResponse, error) {
	return c.Send(ctx, BuildText(to, body))
}

func (c *Client) SendTemplate(ctx context.Context, to, name, languageCode string, params []string) (*SendResponse, error) {
	return c.Send(ctx, BuildTemplate(to, name, languageCode, params))
}

// Template is one approved message template of the business account.
type Template struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language"`
	Status   string `json:"status"`
	Category string `json:"category"`
}

// ListTemplates returns the message templates of the configured business account.
func (c *Client) ListTemplates(ctx context.Context) ([]Template, error) {
	if c.accountID == "" {
		return nil, errors.New("whatsapp: WABA_ID is required to list templates")
	}
	url := fmt.Sprintf("%s/%s/%s/message_templates", c.baseURL, c.apiVersion, c.accountID)
	respBody, err := c.sendRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		Data []Template `json:"data"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("whatsapp: decode templates: %w", err)
	}
	return out.Data, nil
}
