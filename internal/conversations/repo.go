package conversations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/law23sum/trader-exchange/pkg/db/models"
)

const listLimit = 100

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, conversation *models.Conversation) error {
	return r.db.WithContext(ctx).Create(conversation).Error
}

// AddMembers is idempotent per (conversation, account).
func (r *Repository) AddMembers(ctx context.Context, conversationID uuid.UUID, accountIDs []uuid.UUID) error {
	if len(accountIDs) == 0 {
		return nil
	}
	rows := make([]models.ConversationMember, 0, len(accountIDs))
	for _, id := range accountIDs {
		rows = append(rows, models.ConversationMember{ConversationID: conversationID, AccountID: id})
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := r.db.WithContext(ctx).First(&conversation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *Repository) IsMember(ctx context.Context, conversationID, accountID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ConversationMember{}).
		Where("conversation_id = ? AND account_id = ?", conversationID, accountID).
		Count(&count).Error
	return count > 0, err
}

// ListForAccount returns the account's conversations, most recently active first.
func (r *Repository) ListForAccount(ctx context.Context, accountID uuid.UUID) ([]models.Conversation, error) {
	var rows []models.Conversation
	err := r.db.WithContext(ctx).
		Joins("JOIN conversation_members cm ON cm.conversation_id = conversations.id").
		Where("cm.account_id = ?", accountID).
		Order("conversations.updated_at DESC").
		Limit(listLimit).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error) {
	var rows []models.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// AppendMessage stores the message and bumps the conversation preview.
func (r *Repository) AppendMessage(ctx context.Context, message *models.Message) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return err
	}
	res := r.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("id = ?", message.ConversationID).
		Updates(map[string]any{
			"last_message": message.Text,
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
