package providers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	pkgdb "github.com/law23sum/trader-exchange/pkg/db"
	"github.com/law23sum/trader-exchange/pkg/db/models"
)

const (
	accountConstraint = "ux_providers_account"
	// SQLite names the column list rather than the index.
	accountColumn = "providers.account_id"

	defaultListLimit = 100
)

// Repository persists provider records.
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

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Provider, error) {
	var provider models.Provider
	if err := r.db.WithContext(ctx).First(&provider, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &provider, nil
}

// FindByIDForUpdate row-locks the provider until the surrounding transaction ends.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Provider, error) {
	var provider models.Provider
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&provider, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &provider, nil
}

func (r *Repository) FindByAccountID(ctx context.Context, accountID uuid.UUID) (*models.Provider, error) {
	var provider models.Provider
	if err := r.db.WithContext(ctx).First(&provider, "account_id = ?", accountID).Error; err != nil {
		return nil, err
	}
	return &provider, nil
}

// List orders providers by rating, then completed jobs.
func (r *Repository) List(ctx context.Context, limit int) ([]models.Provider, error) {
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	var rows []models.Provider
	if err := r.db.WithContext(ctx).
		Order("rating DESC").
		Order("jobs DESC").
		Order("name ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateForAccount inserts the provider inside a savepoint. When another
// writer already linked a provider to the same account, the existing row is
// returned with created=false.
func (r *Repository) CreateForAccount(ctx context.Context, provider *models.Provider) (*models.Provider, bool, error) {
	err := r.db.WithContext(ctx).Transaction(func(sp *gorm.DB) error {
		return sp.Create(provider).Error
	})
	if err == nil {
		return provider, true, nil
	}
	if provider.AccountID == nil ||
		!(pkgdb.IsUniqueViolation(err, accountConstraint) || pkgdb.IsUniqueViolation(err, accountColumn)) {
		return nil, false, err
	}
	existing, findErr := r.FindByAccountID(ctx, *provider.AccountID)
	if findErr != nil {
		return nil, false, findErr
	}
	return existing, false, nil
}

// IncrementJobs bumps the counter and returns the new value.
func (r *Repository) IncrementJobs(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Provider{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"jobs":       gorm.Expr("jobs + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	var jobs int64
	if err := r.db.WithContext(ctx).
		Model(&models.Provider{}).
		Where("id = ?", id).
		Pluck("jobs", &jobs).Error; err != nil {
		return 0, err
	}
	return jobs, nil
}

func (r *Repository) UpdateRating(ctx context.Context, id uuid.UUID, rating decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Provider{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"rating":     rating,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&models.Provider{}).
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
