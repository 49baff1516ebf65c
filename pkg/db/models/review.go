package models

import (
	"time"

	"github.com/google/uuid"
)

// ProviderReview is an immutable rating left for a provider.
type ProviderReview struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProviderID uuid.UUID  `gorm:"column:provider_id;type:uuid;not null;index"`
	OrderID    *uuid.UUID `gorm:"column:order_id;type:uuid"`
	AccountID  *uuid.UUID `gorm:"column:account_id;type:uuid"`
	Author     string     `gorm:"column:author;not null"`
	Rating     int        `gorm:"column:rating;not null"`
	Text       string     `gorm:"column:text;not null;default:''"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (ProviderReview) TableName() string {
	return "provider_reviews"
}
