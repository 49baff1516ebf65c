package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/law23sum/trader-exchange/pkg/enums"
)

// Conversation is a message thread between a customer and a provider.
type Conversation struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Kind        enums.ConversationKind `gorm:"column:kind;type:text;not null;default:'CHAT'"`
	Title       string                 `gorm:"column:title;not null"`
	ProviderID  *uuid.UUID             `gorm:"column:provider_id;type:uuid"`
	CreatedBy   uuid.UUID              `gorm:"column:created_by;type:uuid;not null"`
	LastMessage string                 `gorm:"column:last_message;not null;default:''"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// ConversationMember grants an account access to a conversation.
type ConversationMember struct {
	ConversationID uuid.UUID `gorm:"column:conversation_id;type:uuid;primaryKey"`
	AccountID      uuid.UUID `gorm:"column:account_id;type:uuid;primaryKey"`
	JoinedAt       time.Time `gorm:"column:joined_at;autoCreateTime"`
}

// Message is an append-only entry in a conversation.
type Message struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ConversationID uuid.UUID `gorm:"column:conversation_id;type:uuid;not null;index"`
	SenderID       uuid.UUID `gorm:"column:sender_id;type:uuid;not null"`
	SenderName     string    `gorm:"column:sender_name;not null"`
	Text           string    `gorm:"column:text;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
