package favorites

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/law23sum/trader-exchange/pkg/db/models"
	"github.com/law23sum/trader-exchange/pkg/enums"
)

const (
	historyLimit   = 100
	favoritesLimit = 200
)

// Repository encapsulates favorites and interaction persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a favorites repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Add inserts a favorite and ignores duplicates.
func (r *Repository) Add(ctx context.Context, accountID, providerID uuid.UUID) error {
	if accountID == uuid.Nil || providerID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	return r.db.WithContext(ctx).
		Exec(`INSERT INTO favorites (id, account_id, provider_id, created_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP) ON CONFLICT (account_id, provider_id) DO NOTHING`,
			uuid.New(), accountID, providerID).
		Error
}

// Remove deletes the favorite if it exists.
func (r *Repository) Remove(ctx context.Context, accountID, providerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("account_id = ? AND provider_id = ?", accountID, providerID).
		Delete(&models.Favorite{}).
		Error
}

// Record appends an interaction. A nil tx writes outside any transaction.
func (r *Repository) Record(ctx context.Context, tx *gorm.DB, accountID, providerID uuid.UUID, kind enums.InteractionKind) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	return db.WithContext(ctx).Create(&models.Interaction{
		ID:         uuid.New(),
		AccountID:  accountID,
		ProviderID: providerID,
		Kind:       kind,
	}).Error
}

// ListRanked returns favorited providers ordered by the account's interaction
// count with each, most recently favorited first on ties.
func (r *Repository) ListRanked(ctx context.Context, accountID uuid.UUID) ([]FavoriteDTO, error) {
	var rows []FavoriteDTO
	err := r.db.WithContext(ctx).
		Table("favorites f").
		Select(`p.id AS provider_id,
p.name AS name,
p.rating AS rating,
p.jobs AS jobs,
p.location AS location,
COUNT(i.id) AS interaction_count`).
		Joins("JOIN providers p ON p.id = f.provider_id").
		Joins("LEFT JOIN interactions i ON i.provider_id = f.provider_id AND i.account_id = f.account_id").
		Where("f.account_id = ?", accountID).
		Group("p.id, p.name, p.rating, p.jobs, p.location, f.created_at").
		Order("interaction_count DESC").
		Order("f.created_at DESC").
		Limit(favoritesLimit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListHistory returns the account's most recent interactions.
func (r *Repository) ListHistory(ctx context.Context, accountID uuid.UUID) ([]InteractionDTO, error) {
	var rows []InteractionDTO
	err := r.db.WithContext(ctx).
		Table("interactions i").
		Select("i.id AS id, i.provider_id AS provider_id, COALESCE(p.name, '') AS provider_name, i.kind AS kind, i.created_at AS at").
		Joins("LEFT JOIN providers p ON p.id = i.provider_id").
		Where("i.account_id = ?", accountID).
		Order("i.created_at DESC").
		Limit(historyLimit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
