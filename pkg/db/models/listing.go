package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/law23sum/trader-exchange/pkg/enums"
)

// Listing is a service offering published by a provider.
type Listing struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProviderID  uuid.UUID           `gorm:"column:provider_id;type:uuid;not null;index"`
	Title       string              `gorm:"column:title;not null"`
	Description string              `gorm:"column:description;not null;default:''"`
	Price       decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null;default:0"`
	Status      enums.ListingStatus `gorm:"column:status;type:text;not null;default:'LISTED'"`
	Tags        string              `gorm:"column:tags;not null;default:''"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
