package favorites

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/law23sum/trader-exchange/pkg/enums"
)

// FavoriteDTO is a saved provider ranked by how often the caller touched it.
type FavoriteDTO struct {
	ProviderID       uuid.UUID       `json:"providerId"`
	Name             string          `json:"name"`
	Rating           decimal.Decimal `json:"rating"`
	Jobs             int64           `json:"jobs"`
	Location         string          `json:"location"`
	InteractionCount int64           `json:"interactionCount"`
}

// InteractionDTO is one history entry.
type InteractionDTO struct {
	ID           uuid.UUID             `json:"id"`
	ProviderID   uuid.UUID             `json:"providerId"`
	ProviderName string                `json:"providerName"`
	Kind         enums.InteractionKind `json:"kind"`
	At           time.Time             `json:"at"`
}
