package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Provider is the reputation-bearing trader record. Rating is written only by
// the review engine and Jobs only by the order engine.
type Provider struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID    *uuid.UUID      `gorm:"column:account_id;type:uuid;uniqueIndex:ux_providers_account"`
	Name         string          `gorm:"column:name;not null"`
	Rating       decimal.Decimal `gorm:"column:rating;type:numeric(3,2);not null;default:5.0"`
	Jobs         int64           `gorm:"column:jobs;not null;default:0"`
	Bio          string          `gorm:"column:bio;not null;default:''"`
	Location     string          `gorm:"column:location;not null;default:''"`
	Website      string          `gorm:"column:website;not null;default:''"`
	Phone        string          `gorm:"column:phone;not null;default:''"`
	Availability string          `gorm:"column:availability;not null;default:''"`
	Specialties  string          `gorm:"column:specialties;not null;default:''"`
	HourlyRate   decimal.Decimal `gorm:"column:hourly_rate;type:numeric(12,2);not null;default:0"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
