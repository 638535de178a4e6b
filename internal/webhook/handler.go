package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jomarcello/Waviate/internal/config"
	"github.com/jomarcello/Waviate/internal/logger"
	"github.com/jomarcello/Waviate/internal/metrics"
	"github.com/jomarcello/Waviate/pkg/models"
)

// Processor handles one normalized inbound envelope.
type Processor interface {
	Process(ctx context.Context, env models.Envelope) error
}

type ProcessorFunc func(ctx context.Context, env models.Envelope) error

func (f ProcessorFunc) Process(ctx context.Context, env models.Envelope) error {
	return f(ctx, env)
}

type Handler struct {
	cfg       config.WebhookConfig
	timeout   time.Duration
	processor Processor
	metrics   *metrics.RelayMetrics
	log       logger.Logger

	baseCtx context.Context
	wg      sync.WaitGroup
}

func NewHandler(ctx context.Context, cfg config.WebhookConfig, timeout time.Duration, processor Processor, m *metrics.RelayMetrics, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NopLogger()
	}
	return &Handler{
		cfg:       cfg,
		timeout:   timeout,
		processor: processor,
		metrics:   m,
		log:       log,
		baseCtx:   context.WithoutCancel(ctx),
	}
}

func (h *Handler) VerifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode != "" && token != "" {
		if mode == "subscribe" && token == h.cfg.VerifyToken {
			h.log.Infow("webhook verified")
			c.String(http.StatusOK, challenge)
		} else {
			h.log.Warnw("webhook verification rejected", "mode", mode)
			c.Status(http.StatusForbidden)
		}
	} else {
		c.Status(http.StatusBadRequest)
	}
}

// HandleMessage acknowledges a delivery immediately and processes each envelope in its own goroutine.
func (h *Handler) HandleMessage(c *gin.Context) {
	start := time.Now()
	status := http.StatusOK
	defer func() {
		h.metrics.ObserveWebhookLatency(strconv.Itoa(status), time.Since(start))
	}()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.log.Warnw("failed to read webhook body", "error", err)
		status = http.StatusBadRequest
		c.Status(status)
		return
	}

	if h.cfg.AppSecret != "" && !VerifySignature(h.cfg.AppSecret, body, c.GetHeader("X-Hub-Signature-256")) {
		h.log.Warnw("webhook signature mismatch")
		status = http.StatusUnauthorized
		c.Status(status)
		return
	}

	envelopes := Normalize(body)
	for _, env := range envelopes {
		h.dispatch(env)
	}

	c.JSON(status, gin.H{"status": "ok", "received": len(envelopes)})
}

func (h *Handler) dispatch(env models.Envelope) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()

		ctx, cancel := context.WithTimeout(h.baseCtx, h.timeout)
		defer cancel()

		if err := h.processor.Process(ctx, env); err != nil {
			h.log.Errorw("failed to process inbound message", "id", env.ID, "phone", env.Sender, "error", err)
		}
	}()
}

// Wait blocks until every dispatched envelope has been processed.
func (h *Handler) Wait() {
	h.wg.Wait()
}

// VerifySignature verifies the X-Hub-Signature-256 header.
func VerifySignature(appSecret string, body []byte, signature string) bool {
	if appSecret == "" || signature == "" {
		return false
	}

	const prefix = "sha256="
	if len(signature) <= len(prefix) || signature[:len(prefix)] != prefix {
		return false
	}
	sigHex := signature[len(prefix):]

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(sigHex))
}
