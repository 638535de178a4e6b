package agent

import (
	"context"

	"github.com/jomarcello/Waviate/internal/ai"
	"github.com/jomarcello/Waviate/internal/conversation"
	"github.com/jomarcello/Waviate/internal/logger"
	"github.com/jomarcello/Waviate/pkg/models"
)

const FallbackReply = "Sorry, I'm having trouble connecting to my brain right now. Please try again later."

const responseTemperature = 0.7

type GeneratorConfig struct {
	Persona    string
	MaxHistory int
	MaxTokens  int
}

// Reply is the outcome of one generation. Failure is set only when Fallback is true.
type Reply struct {
	Text     string
	Fallback bool
	Failure  *ai.Failure
}

type ResponseGenerator struct {
	backend Completer
	cfg     GeneratorConfig
	log     logger.Logger
}

func NewResponseGenerator(backend Completer, cfg GeneratorConfig, log logger.Logger) *ResponseGenerator {
	if log == nil {
		log = logger.NopLogger()
	}
	return &ResponseGenerator{backend: backend, cfg: cfg, log: log}
}

// Generate returns the reply text, which is the fallback message when the backend fails.
func (g *ResponseGenerator) Generate(ctx context.Context, current string, history []models.Turn) string {
	return g.Respond(ctx, current, history).Text
}

func (g *ResponseGenerator) Respond(ctx context.Context, current string, history []models.Turn) Reply {
	return g.RespondWithContext(ctx, current, "", history)
}

// RespondWithContext is Respond with extra context appended to the persona.
func (g *ResponseGenerator) RespondWithContext(ctx context.Context, current, extra string, history []models.Turn) Reply {
	turns := conversation.BuildPromptWithContext(g.cfg.Persona, extra, history, current, g.cfg.MaxHistory)

	result := g.backend.Complete(ctx, turns, responseTemperature, g.cfg.MaxTokens)
	if !result.OK() {
		g.log.Errorw("response generation failed",
			"reason", result.Failure.Reason,
			"status", result.Failure.StatusCode,
			"error", result.Failure.Error(),
		)
		return Reply{Text: FallbackReply, Fallback: true, Failure: result.Failure}
	}

	g.log.LogAIInteraction(current, result.Text)
	return Reply{Text: result.Text}
}
