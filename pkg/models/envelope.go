package models

import "encoding/json"

// MessageType is the channel-agnostic kind of an envelope.
type MessageType string

const (
	MessageTypeText        MessageType = "text"
	MessageTypeImage       MessageType = "image"
	MessageTypeAudio       MessageType = "audio"
	MessageTypeDocument    MessageType = "document"
	MessageTypeLocation    MessageType = "location"
	MessageTypeButtonReply MessageType = "button_reply"
	MessageTypeListReply   MessageType = "list_reply"
	MessageTypeUnknown     MessageType = "unknown"
	// MessageTypeTemplate only appears on outbound events.
	MessageTypeTemplate MessageType = "template"
)

// UnknownID is used when the provider did not assign a message id.
const UnknownID = "unknown-id"

// Envelope is the normalized representation of one inbound or outbound message.
type Envelope struct {
	ID        string          `json:"id"`
	Sender    string          `json:"from"`
	Timestamp string          `json:"timestamp"`
	Type      MessageType     `json:"type"`
	Content   string          `json:"content"`
	Raw       json.RawMessage `json:"raw_data,omitempty"`
}
