// Package relay runs one inbound envelope through classification, reply generation and delivery.
package relay

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jomarcello/Waviate/internal/agent"
	"github.com/jomarcello/Waviate/internal/database"
	"github.com/jomarcello/Waviate/internal/history"
	"github.com/jomarcello/Waviate/internal/logger"
	"github.com/jomarcello/Waviate/internal/metrics"
	dbmodels "github.com/jomarcello/Waviate/internal/models"
	"github.com/jomarcello/Waviate/internal/whatsapp"
	"github.com/jomarcello/Waviate/pkg/models"
)

type Classifier interface {
	Classify(ctx context.Context, message string) models.IntentResult
}

type Responder interface {
	Respond(ctx context.Context, current string, history []models.Turn) agent.Reply
}

type Sender interface {
	Send(ctx context.Context, msg whatsapp.OutboundMessage) (*whatsapp.SendResponse, error)
}

// Recorder persists messages with their metadata. *database.Store implements it.
type Recorder interface {
	Save(ctx context.Context, phone string, records ...database.Record) error
	MarkNeedsHuman(ctx context.Context, phone string) error
}

type Notifier interface {
	NotifyReceived(env models.Envelope)
	NotifySent(env models.Envelope)
	NotifyHandoff(phone string)
}

type Config struct {
	MaxHistory   int
	HandoffReply string
}

// Deps are the collaborators of a Pipeline. Recorder, Notifier and Metrics are optional.
type Deps struct {
	Classifier Classifier
	Responder  Responder
	Sender     Sender
	History    history.Store
	Recorder   Recorder
	Notifier   Notifier
	Metrics    *metrics.RelayMetrics
	Log        logger.Logger
}

type Pipeline struct {
	cfg Config
	Deps
}

func NewPipeline(cfg Config, deps Deps) *Pipeline {
	if deps.Log == nil {
		deps.Log = logger.NopLogger()
	}
	return &Pipeline{cfg: cfg, Deps: deps}
}

// Outcome summarizes what happened to one inbound envelope.
type Outcome struct {
	Intent    models.Intent
	Reply     string
	Source    string
	MessageID string
}

// Process handles one envelope. Only delivery failures are returned; classifier, backend and
// persistence failures are logged and degrade the reply instead.
func (p *Pipeline) Process(ctx context.Context, env models.Envelope) (*Outcome, error) {
	start := time.Now()
	defer func() { p.Metrics.ObservePipelineLatency(time.Since(start)) }()

	p.Metrics.ObserveInbound(string(env.Type))
	p.Log.LogMessage("RECEIVED", env.Sender, env.Content, map[string]string{"id": env.ID, "type": string(env.Type)})
	if p.Notifier != nil {
		p.Notifier.NotifyReceived(env)
	}

	intent := p.Classifier.Classify(ctx, env.Content).Intent
	metricIntent := intent
	if !metricIntent.Known() {
		metricIntent = models.IntentOther
	}
	p.Metrics.ObserveIntent(string(metricIntent))

	past := p.loadHistory(ctx, env.Sender)

	p.record(ctx, env.Sender, database.Record{
		WaID:        env.ID,
		Direction:   dbmodels.DirectionInbound,
		Content:     env.Content,
		MessageType: string(env.Type),
		Intent:      string(intent),
	})

	outcome := &Outcome{Intent: intent}
	if intent == models.IntentHumanAgentRequest {
		outcome.Reply = p.cfg.HandoffReply
		outcome.Source = metrics.ReplyHandoff
		if p.Recorder != nil {
			if err := p.Recorder.MarkNeedsHuman(ctx, env.Sender); err != nil {
				p.Log.Errorw("failed to flag conversation for human agent", "phone", env.Sender, "error", err)
			}
		}
		if p.Notifier != nil {
			p.Notifier.NotifyHandoff(env.Sender)
		}
	} else {
		reply := p.Responder.Respond(ctx, env.Content, past)
		outcome.Reply = reply.Text
		outcome.Source = metrics.ReplyAI
		if reply.Fallback {
			outcome.Source = metrics.ReplyFallback
		}
	}
	p.Metrics.ObserveReply(outcome.Source)

	p.appendHistory(ctx, env.Sender,
		models.Turn{Role: models.RoleUser, Content: env.Content},
		models.Turn{Role: models.RoleAssistant, Content: outcome.Reply},
	)

	id, err := p.deliver(ctx, whatsapp.BuildText(env.Sender, outcome.Reply), outcome.Source == metrics.ReplyAI)
	if err != nil {
		return outcome, fmt.Errorf("relay: send reply to %s: %w", env.Sender, err)
	}
	outcome.MessageID = id
	return outcome, nil
}

// SendText delivers an operator-initiated text message.
func (p *Pipeline) SendText(ctx context.Context, to, body string) (string, error) {
	return p.deliver(ctx, whatsapp.BuildText(to, body), false)
}

// SendTemplate delivers a template message with ordered body parameters.
func (p *Pipeline) SendTemplate(ctx context.Context, to, name, languageCode string, params []string) (string, error) {
	return p.deliver(ctx, whatsapp.BuildTemplate(to, name, languageCode, params), false)
}

func (p *Pipeline) deliver(ctx context.Context, msg whatsapp.OutboundMessage, aiGenerated bool) (string, error) {
	resp, err := p.Sender.Send(ctx, msg)
	p.Metrics.ObserveOutbound(msg.Type, err)
	if err != nil {
		return "", err
	}

	id := resp.MessageID()
	if id == "" {
		id = uuid.NewString()
	}

	p.record(ctx, msg.To, database.Record{
		WaID:        id,
		Direction:   dbmodels.DirectionOutbound,
		Content:     msg.Summary(),
		MessageType: msg.Type,
		AIGenerated: aiGenerated,
	})
	if p.Notifier != nil {
		p.Notifier.NotifySent(models.Envelope{
			ID:        id,
			Sender:    msg.To,
			Timestamp: strconv.FormatInt(time.Now().Unix(), 10),
			Type:      outboundType(msg.Type),
			Content:   msg.Summary(),
		})
	}
	return id, nil
}

func outboundType(t string) models.MessageType {
	switch t {
	case whatsapp.TypeTemplate:
		return models.MessageTypeTemplate
	case whatsapp.TypeText:
		return models.MessageTypeText
	default:
		return models.MessageTypeUnknown
	}
}

func (p *Pipeline) loadHistory(ctx context.Context, phone string) []models.Turn {
	if p.History == nil {
		return nil
	}
	turns, err := p.History.Load(ctx, phone, p.cfg.MaxHistory)
	if err != nil {
		p.Log.Warnw("failed to load conversation history", "phone", phone, "error", err)
		return nil
	}
	return turns
}

// appendHistory is skipped when the history backend is the recorder itself, since recorded
// messages already form the history.
func (p *Pipeline) appendHistory(ctx context.Context, phone string, turns ...models.Turn) {
	if p.History == nil || p.sharedHistory() {
		return
	}
	if err := p.History.Append(ctx, phone, turns...); err != nil {
		p.Log.Warnw("failed to append conversation history", "phone", phone, "error", err)
	}
}

func (p *Pipeline) sharedHistory() bool {
	if p.Recorder == nil {
		return false
	}
	rec, ok := p.History.(Recorder)
	return ok && rec == p.Recorder
}

func (p *Pipeline) record(ctx context.Context, phone string, r database.Record) {
	if p.Recorder == nil {
		return
	}
	if err := p.Recorder.Save(ctx, phone, r); err != nil {
		p.Log.Errorw("failed to save message", "phone", phone, "direction", r.Direction, "error", err)
	}
}
