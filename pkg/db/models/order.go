package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/law23sum/trader-exchange/pkg/enums"
)

// Order is one customer-provider service engagement. ListingID is a
// denormalized reference and is not constrained by a foreign key.
type Order struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID      *uuid.UUID        `gorm:"column:account_id;type:uuid;index"`
	UserName       string            `gorm:"column:user_name;not null"`
	Service        string            `gorm:"column:service;not null;default:'Service request'"`
	ProviderID     uuid.UUID         `gorm:"column:provider_id;type:uuid;not null;index"`
	ListingID      *uuid.UUID        `gorm:"column:listing_id;type:uuid"`
	ConversationID *uuid.UUID        `gorm:"column:conversation_id;type:uuid"`
	Status         enums.OrderStatus `gorm:"column:status;type:text;not null"`
	Amount         decimal.Decimal   `gorm:"column:amount;type:numeric(12,2);not null;default:0"`
	ReqDetails     string            `gorm:"column:req_details;not null;default:''"`
	ReqDate        string            `gorm:"column:req_date;not null;default:''"`
	ReqTime        string            `gorm:"column:req_time;not null;default:''"`
	ReqAck         bool              `gorm:"column:req_ack;not null;default:false"`
	JobsCountedAt  *time.Time        `gorm:"column:jobs_counted_at"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
