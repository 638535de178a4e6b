package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jomarcello/Waviate/internal/config"
	"github.com/jomarcello/Waviate/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func testConfig() config.WhatsAppConfig {
	return config.WhatsAppConfig{
		AccessToken:       "token",
		PhoneNumberID:     "106540352242922",
		BusinessAccountID: "waba-1",
		APIVersion:        "v18.0",
		BaseURL:           "https://graph.facebook.com",
		RequestTimeout:    2 * time.Second,
	}
}

func newTestClient(t *testing.T, log logger.Logger, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(testConfig(), log)
	require.NoError(t, err)
	client.SetBaseURL(server.URL)
	return client
}

func TestNewClientRequiresCredentials(t *testing.T) {
	cfg := testConfig()
	cfg.AccessToken = ""
	_, err := NewClient(cfg, nil)
	assert.ErrorIs(t, err, ErrMissingCredentials)

	cfg = testConfig()
	cfg.PhoneNumberID = ""
	_, err = NewClient(cfg, nil)
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestSendText(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	var received OutboundMessage
	client := newTestClient(t, logger.NewWithCore(core), func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v18.0/106540352242922/messages", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Write([]byte(`{"messaging_product":"whatsapp","contacts":[{"input":"31612345678","wa_id":"31612345678"}],"messages":[{"id":"wamid.out.1"}]}`))
	})

	resp, err := client.SendText(context.Background(), "+31 6 12345678", "Hallo!")

	require.NoError(t, err)
	assert.Equal(t, "wamid.out.1", resp.MessageID())
	assert.Equal(t, "31612345678", received.To)
	require.NotNil(t, received.Text)
	assert.Equal(t, "Hallo!", received.Text.Body)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "whatsapp SENT", entry.Message)
	assert.Equal(t, "31612345678", entry.ContextMap()["phone"])
}

func TestSendTemplateLogsTemplateAction(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	client := newTestClient(t, logger.NewWithCore(core), func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"messages":[{"id":"wamid.out.2"}]}`))
	})

	_, err := client.SendTemplate(context.Background(), "31612345678", "welcome", "nl", []string{"John"})

	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "whatsapp SENT_TEMPLATE", logs.All()[0].Message)
	assert.Equal(t, "Template: welcome", logs.All()[0].ContextMap()["content"])
}

func TestSendAPIError(t *testing.T) {
	client := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Invalid parameter"}}`))
	})

	resp, err := client.SendText(context.Background(), "1", "x")

	assert.Nil(t, resp)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "Invalid parameter")
}

func TestSendNetworkError(t *testing.T) {
	client, err := NewClient(testConfig(), nil)
	require.NoError(t, err)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client.SetBaseURL(server.URL)
	server.Close()

	_, err = client.SendText(context.Background(), "1", "x")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "whatsapp: send request")
}

func TestListTemplates(t *testing.T) {
	client := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v18.0/waba-1/message_templates", r.URL.Path)
		w.Write([]byte(`{"data":[{"id":"1","name":"welcome","language":"nl","status":"APPROVED","category":"MARKETING"}]}`))
	})

	templates, err := client.ListTemplates(context.Background())

	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "welcome", templates[0].Name)
	assert.Equal(t, "APPROVED", templates[0].Status)
}
