package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jomarcello/Waviate/internal/config"
	"github.com/jomarcello/Waviate/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProcessor struct {
	mu        sync.Mutex
	envelopes []models.Envelope
	deadlines []bool
}

func (p *recordingProcessor) Process(ctx context.Context, env models.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := ctx.Deadline()
	p.envelopes = append(p.envelopes, env)
	p.deadlines = append(p.deadlines, ok)
	return nil
}

func setupRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/webhook", h.VerifyWebhook)
	r.POST("/webhook", h.HandleMessage)
	return r
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhook(t *testing.T) {
	h := NewHandler(context.Background(), config.WebhookConfig{VerifyToken: "secret-token"}, time.Second, &recordingProcessor{}, nil, nil)
	router := setupRouter(h)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantBody   string
	}{
		{"valid", "hub.mode=subscribe&hub.verify_token=secret-token&hub.challenge=12345", http.StatusOK, "12345"},
		{"wrong token", "hub.mode=subscribe&hub.verify_token=nope&hub.challenge=12345", http.StatusForbidden, ""},
		{"wrong mode", "hub.mode=unsubscribe&hub.verify_token=secret-token&hub.challenge=1", http.StatusForbidden, ""},
		{"missing params", "", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/webhook?"+tt.query, nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestHandleMessageDispatchesEnvelopes(t *testing.T) {
	processor := &recordingProcessor{}
	h := NewHandler(context.Background(), config.WebhookConfig{}, time.Second, processor, nil, nil)
	router := setupRouter(h)

	body := delivery(
		`{"id":"wamid.1","from":"31612345678","type":"text","text":{"body":"Hoi"}}`,
		`{"id":"wamid.2","from":"31687654321","type":"audio","audio":{"id":"a"}}`,
	)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(string(body)))
	router.ServeHTTP(w, req)
	h.Wait()

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","received":2}`, w.Body.String())

	require.Len(t, processor.envelopes, 2)
	ids := []string{processor.envelopes[0].ID, processor.envelopes[1].ID}
	assert.ElementsMatch(t, []string{"wamid.1", "wamid.2"}, ids)
	assert.Equal(t, []bool{true, true}, processor.deadlines)
}

func TestHandleMessageMalformedIsAcknowledged(t *testing.T) {
	processor := &recordingProcessor{}
	h := NewHandler(context.Background(), config.WebhookConfig{}, time.Second, processor, nil, nil)
	router := setupRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{not json`))
	router.ServeHTTP(w, req)
	h.Wait()

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, processor.envelopes)
}

func TestHandleMessageSignature(t *testing.T) {
	const secret = "app-secret"
	body := delivery(`{"id":"wamid.1","from":"1","type":"text","text":{"body":"x"}}`)

	tests := []struct {
		name       string
		signature  string
		wantStatus int
		wantCount  int
	}{
		{"valid", sign(secret, body), http.StatusOK, 1},
		{"wrong secret", sign("other", body), http.StatusUnauthorized, 0},
		{"missing", "", http.StatusUnauthorized, 0},
		{"bad prefix", "sha1=abc", http.StatusUnauthorized, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			processor := &recordingProcessor{}
			h := NewHandler(context.Background(), config.WebhookConfig{AppSecret: secret}, time.Second, processor, nil, nil)
			router := setupRouter(h)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(string(body)))
			if tt.signature != "" {
				req.Header.Set("X-Hub-Signature-256", tt.signature)
			}
			router.ServeHTTP(w, req)
			h.Wait()

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Len(t, processor.envelopes, tt.wantCount)
		})
	}
}

func TestProcessorFunc(t *testing.T) {
	var got string
	p := ProcessorFunc(func(ctx context.Context, env models.Envelope) error {
		got = env.ID
		return nil
	})

	require.NoError(t, p.Process(context.Background(), models.Envelope{ID: "x"}))
	assert.Equal(t, "x", got)
}
