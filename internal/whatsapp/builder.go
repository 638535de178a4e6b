package whatsapp

import "strings"

const (
	messagingProduct    = "whatsapp"
	recipientIndividual = "individual"

	TypeText     = "text"
	TypeTemplate = "template"
)

// OutboundMessage is the Cloud API send body. Exactly one of Text or Template is set, matching Type.
type OutboundMessage struct {
	MessagingProduct string       `json:"messaging_product"`
	RecipientType    string       `json:"recipient_type"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             *TextObj     `json:"text,omitempty"`
	Template         *TemplateObj `json:"template,omitempty"`
}

type TextObj struct {
	Body       string `json:"body"`
	PreviewUrl bool   `json:"preview_url,omitempty"`
}

type TemplateObj struct {
	Name       string         `json:"name"`
	Language   LanguageObj    `json:"language"`
	Components []ComponentObj `json:"components,omitempty"`
}

type LanguageObj struct {
	Code string `json:"code"`
}

type ComponentObj struct {
	Type       string         `json:"type"`
	Parameters []ParameterObj `json:"parameters"`
}

type ParameterObj struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NormalizePhone strips the leading plus and any whitespace from a recipient number.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if r == '+' || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, phone)
}

func BuildText(recipient, body string) OutboundMessage {
	return OutboundMessage{
		MessagingProduct: messagingProduct,
		RecipientType:    recipientIndividual,
		To:               NormalizePhone(recipient),
		Type:             TypeText,
		Text:             &TextObj{Body: body},
	}
}

// BuildTemplate fills a single body component with params in order. No params means no components.
func BuildTemplate(recipient, name, languageCode string, params []string) OutboundMessage {
	tmpl := &TemplateObj{
		Name:     name,
		Language: LanguageObj{Code: languageCode},
	}
	if len(params) > 0 {
		parameters := make([]ParameterObj, len(params))
		for i, p := range params {
			parameters[i] = ParameterObj{Type: "text", Text: p}
		}
		tmpl.Components = []ComponentObj{{Type: "body", Parameters: parameters}}
	}

	return OutboundMessage{
		MessagingProduct: messagingProduct,
		RecipientType:    recipientIndividual,
		To:               NormalizePhone(recipient),
		Type:             TypeTemplate,
		Template:         tmpl,
	}
}

// Summary is the human readable form of an outbound message, as stored and logged.
func (m OutboundMessage) Summary() string {
	switch {
	case m.Text != nil:
		return m.Text.Body
	case m.Template != nil:
		return "Template: " + m.Template.Name
	default:
		return m.Type + " message"
	}
}
