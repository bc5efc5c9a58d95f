package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jinzhu/gorm"

	"snackzinabi/internal/models"
)

// Transcripts is the gorm-backed transcript store: conversations and their
// append-only messages.
type Transcripts struct {
	db *gorm.DB
}

// NewTranscripts creates the store.
func NewTranscripts(db *gorm.DB) *Transcripts {
	return &Transcripts{db: db}
}

// CreateConversation opens a new conversation for a user.
func (t *Transcripts) CreateConversation(ctx context.Context, title, userEmail string) (*models.Conversation, error) {
	conv := &models.Conversation{
		Title:     title,
		UserEmail: userEmail,
		Status:    models.ConversationOpen,
	}
	if err := t.db.Create(conv).Error; err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

// ListConversations returns a user's conversations, newest first.
func (t *Transcripts) ListConversations(ctx context.Context, userEmail string) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := t.db.Where("user_email = ?", userEmail).Order("created_at DESC").Find(&convs).Error
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return convs, nil
}

// Append stores one conversation turn.
func (t *Transcripts) Append(ctx context.Context, conversationID uint, text string, fromUser bool) error {
	msg := &models.Message{
		ConversationID: conversationID,
		Text:           text,
		IsUser:         fromUser,
		Timestamp:      time.Now(),
	}
	if err := t.db.Create(msg).Error; err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// History returns all turns of a conversation in arrival order.
func (t *Transcripts) History(ctx context.Context, conversationID uint) ([]models.Message, error) {
	var msgs []models.Message
	err := t.db.Where("conversation_id = ?", conversationID).Order("id ASC").Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return msgs, nil
}

// LastAssistantMessage returns the most recent assistant message preceding
// the most recent user message, or "" when the conversation has none.
func (t *Transcripts) LastAssistantMessage(ctx context.Context, conversationID uint) (string, error) {
	var lastUser models.Message
	err := t.db.Where("conversation_id = ? AND is_user = ?", conversationID, true).
		Order("id DESC").First(&lastUser).Error
	if gorm.IsRecordNotFoundError(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find last user message: %w", err)
	}

	var assistant models.Message
	err = t.db.Where("conversation_id = ? AND is_user = ? AND id < ?", conversationID, false, lastUser.ID).
		Order("id DESC").First(&assistant).Error
	if gorm.IsRecordNotFoundError(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find last assistant message: %w", err)
	}
	return assistant.Text, nil
}
