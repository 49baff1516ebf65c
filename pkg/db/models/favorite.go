package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/law23sum/trader-exchange/pkg/enums"
)

// Favorite links an account to a provider it saved.
type Favorite struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID  uuid.UUID `gorm:"column:account_id;type:uuid;not null"`
	ProviderID uuid.UUID `gorm:"column:provider_id;type:uuid;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// Interaction records an account touching a provider for ranking and history.
type Interaction struct {
	ID         uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID  uuid.UUID             `gorm:"column:account_id;type:uuid;not null;index"`
	ProviderID uuid.UUID             `gorm:"column:provider_id;type:uuid;not null"`
	Kind       enums.InteractionKind `gorm:"column:kind;type:text;not null"`
	CreatedAt  time.Time             `gorm:"column:created_at;autoCreateTime"`
}
