package models

import (
	"time"
)

const (
	ConversationActive              = "active"
	ConversationNeedsHumanAttention = "needs_human_attention"

	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Lead is a WhatsApp contact, keyed by normalized phone number.
type Lead struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Phone     string    `gorm:"type:varchar(32);not null;uniqueIndex" json:"phone"`
	Name      string    `gorm:"type:varchar(255)" json:"name"`
	Status    string    `gorm:"type:varchar(32);default:'new'" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Lead) TableName() string {
	return "leads"
}

// Conversation groups the messages exchanged with one lead.
type Conversation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	LeadID    uint      `gorm:"index;not null" json:"lead_id"`
	Status    string    `gorm:"type:varchar(32);default:'active'" json:"status"`
	Messages  []Message `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE;" json:"messages,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// Message is one stored inbound or outbound message.
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"index;not null" json:"conversation_id"`
	WaID           string    `gorm:"type:varchar(128);index" json:"wa_id"`
	Phone          string    `gorm:"type:varchar(32);index" json:"phone"`
	Direction      string    `gorm:"type:varchar(16);not null" json:"direction"`
	Content        string    `gorm:"type:text" json:"content"`
	MessageType    string    `gorm:"type:varchar(50)" json:"message_type"`
	Intent         string    `gorm:"type:varchar(50)" json:"intent,omitempty"`
	AIGenerated    bool      `json:"ai_generated"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}
