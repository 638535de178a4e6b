package webhook

import (
	"encoding/json"
	"strconv"

	"github.com/jomarcello/Waviate/pkg/models"
)

const unknownContent = "Unknown message type"

// Normalize decodes a raw webhook body and extracts its messages.
// Any structural mismatch yields an empty result; it never fails.
func Normalize(body []byte) []models.Envelope {
	var payload models.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}
	return NormalizePayload(payload)
}

// NormalizePayload extracts envelopes from an already decoded payload, in delivery order.
func NormalizePayload(payload models.WebhookPayload) []models.Envelope {
	if payload.Object != models.BusinessAccountObject {
		return nil
	}

	var envelopes []models.Envelope
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if change.Field != models.MessagesField {
				continue
			}
			for _, raw := range change.Value.Messages {
				if env, ok := extractMessage(raw); ok {
					envelopes = append(envelopes, env)
				}
			}
		}
	}
	return envelopes
}

func extractMessage(raw json.RawMessage) (models.Envelope, bool) {
	var msg models.InboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return models.Envelope{}, false
	}
	if msg.From == "" || msg.Type == "" {
		return models.Envelope{}, false
	}

	id := msg.ID
	if id == "" {
		id = models.UnknownID
	}

	msgType, content := render(msg)
	return models.Envelope{
		ID:        id,
		Sender:    msg.From,
		Timestamp: string(msg.Timestamp),
		Type:      msgType,
		Content:   content,
		Raw:       append(json.RawMessage(nil), raw...),
	}, true
}

// render maps a provider message onto the closed envelope type set and its human readable summary.
func render(msg models.InboundMessage) (models.MessageType, string) {
	switch msg.Type {
	case "text":
		if msg.Text != nil {
			return models.MessageTypeText, msg.Text.Body
		}
		return models.MessageTypeText, unknownContent
	case "image":
		if msg.Image != nil {
			return models.MessageTypeImage, "[Image: " + orDefault(msg.Image.Caption, "No caption") + "]"
		}
		return models.MessageTypeImage, unknownContent
	case "audio":
		if msg.Audio != nil {
			return models.MessageTypeAudio, "[Audio message]"
		}
		return models.MessageTypeAudio, unknownContent
	case "document":
		if msg.Document != nil {
			return models.MessageTypeDocument, "[Document: " + orDefault(msg.Document.Filename, "Unknown file") + "]"
		}
		return models.MessageTypeDocument, unknownContent
	case "location":
		if msg.Location != nil {
			return models.MessageTypeLocation, "[Location: " + coordinate(msg.Location.Latitude) + "," + coordinate(msg.Location.Longitude) + "]"
		}
		return models.MessageTypeLocation, unknownContent
	case "interactive":
		if msg.Interactive == nil {
			return models.MessageTypeUnknown, unknownContent
		}
		switch {
		case msg.Interactive.Type == "button_reply" && msg.Interactive.ButtonReply != nil:
			return models.MessageTypeButtonReply, "[Button: " + msg.Interactive.ButtonReply.Title + "]"
		case msg.Interactive.Type == "list_reply" && msg.Interactive.ListReply != nil:
			return models.MessageTypeListReply, "[List: " + msg.Interactive.ListReply.Title + "]"
		}
		return models.MessageTypeUnknown, unknownContent
	default:
		return models.MessageTypeUnknown, unknownContent
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func coordinate(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
