package listings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/law23sum/trader-exchange/pkg/db/models"
)

const defaultListLimit = 200

// Repository persists listings.
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

func (r *Repository) Create(ctx context.Context, listing *models.Listing) (*models.Listing, error) {
	if err := r.db.WithContext(ctx).Create(listing).Error; err != nil {
		return nil, err
	}
	return listing, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	if err := r.db.WithContext(ctx).First(&listing, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

// FindListing reads a listing on the caller's transaction.
func (r *Repository) FindListing(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Listing, error) {
	return r.WithTx(tx).FindByID(ctx, id)
}

func (r *Repository) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]models.Listing, error) {
	return r.List(ctx, &providerID)
}

// List returns listings newest first, optionally scoped to one provider.
func (r *Repository) List(ctx context.Context, providerID *uuid.UUID) ([]models.Listing, error) {
	query := r.db.WithContext(ctx).Model(&models.Listing{})
	if providerID != nil {
		query = query.Where("provider_id = ?", *providerID)
	}
	var rows []models.Listing
	if err := query.
		Order("created_at DESC").
		Limit(defaultListLimit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Listing{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
