// Package agent turns inbound text into an intent label and an AI reply.
// Backend failures never escape this package; they degrade to a default label or a fixed reply.
package agent

import (
	"context"
	"strings"

	"github.com/jomarcello/Waviate/internal/ai"
	"github.com/jomarcello/Waviate/internal/logger"
	"github.com/jomarcello/Waviate/pkg/models"
)

const (
	intentTemperature = 0.3
	intentMaxTokens   = 50
)

var intentInstruction = "Classify the following message into one of these intents: " +
	models.IntentList() + ". Return only the intent name."

// Completer is the chat completion backend. *ai.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, messages []models.Turn, temperature float64, maxTokens int) ai.Result
}

type IntentClassifier struct {
	backend Completer
	log     logger.Logger
}

func NewIntentClassifier(backend Completer, log logger.Logger) *IntentClassifier {
	if log == nil {
		log = logger.NopLogger()
	}
	return &IntentClassifier{backend: backend, log: log}
}

// Classify asks the backend for an intent label. The answer is trimmed and lower-cased but otherwise
// passed through, so callers must not assume it is in models.Intents.
func (c *IntentClassifier) Classify(ctx context.Context, message string) models.IntentResult {
	turns := []models.Turn{
		{Role: models.RoleSystem, Content: intentInstruction},
		{Role: models.RoleUser, Content: message},
	}

	result := c.backend.Complete(ctx, turns, intentTemperature, intentMaxTokens)
	if !result.OK() {
		c.log.Warnw("intent classification failed",
			"reason", result.Failure.Reason,
			"status", result.Failure.StatusCode,
			"error", result.Failure.Error(),
		)
		return models.IntentResult{Intent: models.IntentOther}
	}

	label := strings.ToLower(strings.TrimSpace(result.Text))
	if label == "" {
		return models.IntentResult{Intent: models.IntentOther}
	}
	return models.IntentResult{Intent: models.Intent(label)}
}
