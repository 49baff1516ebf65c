package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/law23sum/trader-exchange/pkg/db/models"
)

// Repository defines persistence operations for the orders table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	MarkJobsCounted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	AttachConversation(ctx context.Context, id, conversationID uuid.UUID) (bool, error)
	FindLatestForPair(ctx context.Context, providerID uuid.UUID, listingID *uuid.UUID) (*models.Order, error)
	ListByProvider(ctx context.Context, providerID *uuid.UUID) ([]models.Order, error)
	ListForAccount(ctx context.Context, accountID uuid.UUID, names []string) ([]MineRecord, error)
}

// MineRecord is an order row joined with its provider's name.
type MineRecord struct {
	models.Order
	ProviderName string
}

const listLimit = 500

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
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

// MarkJobsCounted stamps jobs_counted_at once. It reports true only for the
// call that performed the stamp.
func (r *repository) MarkJobsCounted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND jobs_counted_at IS NULL", id).
		Update("jobs_counted_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// AttachConversation links the conversation only when none is set yet.
func (r *repository) AttachConversation(ctx context.Context, id, conversationID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND conversation_id IS NULL", id).
		Update("conversation_id", conversationID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// FindLatestForPair returns the newest order for the provider. A nil
// listingID matches any listing.
func (r *repository) FindLatestForPair(ctx context.Context, providerID uuid.UUID, listingID *uuid.UUID) (*models.Order, error) {
	query := r.db.WithContext(ctx).Where("provider_id = ?", providerID)
	if listingID != nil {
		query = query.Where("listing_id = ?", *listingID)
	}
	var order models.Order
	if err := query.Order("created_at DESC").First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByProvider returns orders newest first. A nil providerID lists every order.
func (r *repository) ListByProvider(ctx context.Context, providerID *uuid.UUID) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})
	if providerID != nil {
		query = query.Where("provider_id = ?", *providerID)
	}
	var rows []models.Order
	if err := query.Order("created_at DESC").Limit(listLimit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListForAccount matches on account_id, falling back to a case-insensitive
// user_name match for orders that predate account linkage. names must be
// lowercased by the caller.
func (r *repository) ListForAccount(ctx context.Context, accountID uuid.UUID, names []string) ([]MineRecord, error) {
	query := r.db.WithContext(ctx).
		Table("orders").
		Select("orders.*, COALESCE(p.name, ?) AS provider_name", defaultProviderName).
		Joins("LEFT JOIN providers p ON p.id = orders.provider_id")
	if len(names) > 0 {
		query = query.Where("orders.account_id = ? OR (orders.account_id IS NULL AND lower(orders.user_name) IN ?)", accountID, names)
	} else {
		query = query.Where("orders.account_id = ?", accountID)
	}

	var rows []MineRecord
	if err := query.
		Order("orders.created_at DESC").
		Limit(listLimit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
