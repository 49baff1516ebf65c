package conversations

import (
	"time"

	"github.com/google/uuid"

	"github.com/law23sum/trader-exchange/pkg/db/models"
	"github.com/law23sum/trader-exchange/pkg/enums"
)

const defaultTitle = "Chat"

// CreateInput opens a conversation, optionally with a provider's traders.
type CreateInput struct {
	ProviderID *uuid.UUID `json:"providerId,omitempty"`
	Title      string     `json:"title" validate:"max=200"`
}

// MessageInput is the body of a posted message.
type MessageInput struct {
	Text string `json:"text" validate:"required,max=4000"`
}

type ConversationDTO struct {
	ID          uuid.UUID              `json:"id"`
	Kind        enums.ConversationKind `json:"kind"`
	Title       string                 `json:"title"`
	ProviderID  *uuid.UUID             `json:"providerId,omitempty"`
	CreatedBy   uuid.UUID              `json:"createdBy"`
	LastMessage string                 `json:"lastMessage"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}

type MessageDTO struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversationId"`
	SenderID       uuid.UUID `json:"senderId"`
	SenderName     string    `json:"senderName"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Thread is a conversation together with its messages, oldest first.
type Thread struct {
	Conversation ConversationDTO `json:"conversation"`
	Messages     []MessageDTO    `json:"messages"`
}

func conversationFromModel(c *models.Conversation) ConversationDTO {
	return ConversationDTO{
		ID:          c.ID,
		Kind:        c.Kind,
		Title:       c.Title,
		ProviderID:  c.ProviderID,
		CreatedBy:   c.CreatedBy,
		LastMessage: c.LastMessage,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func messageFromModel(m *models.Message) MessageDTO {
	return MessageDTO{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		SenderName:     m.SenderName,
		Text:           m.Text,
		CreatedAt:      m.CreatedAt,
	}
}
