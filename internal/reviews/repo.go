package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/law23sum/trader-exchange/pkg/db/models"
)

const listLimit = 200

// Repository persists immutable provider reviews.
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

func (r *Repository) Create(ctx context.Context, review *models.ProviderReview) error {
	return r.db.WithContext(ctx).Create(review).Error
}

// Totals returns the review count and rating sum for the provider.
func (r *Repository) Totals(ctx context.Context, providerID uuid.UUID) (count int64, total int64, err error) {
	var row struct {
		Count int64
		Total int64
	}
	err = r.db.WithContext(ctx).
		Model(&models.ProviderReview{}).
		Select("COUNT(*) AS count, COALESCE(SUM(rating), 0) AS total").
		Where("provider_id = ?", providerID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.Count, row.Total, nil
}

// ListByProvider returns reviews newest first.
func (r *Repository) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]models.ProviderReview, error) {
	var rows []models.ProviderReview
	if err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("created_at DESC").
		Limit(listLimit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// OrderProvider returns the provider an order was placed with.
func (r *Repository) OrderProvider(ctx context.Context, orderID uuid.UUID) (uuid.UUID, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Select("id", "provider_id").
		First(&order, "id = ?", orderID).Error; err != nil {
		return uuid.Nil, err
	}
	return order.ProviderID, nil
}
