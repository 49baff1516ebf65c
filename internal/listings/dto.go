package listings

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/law23sum/trader-exchange/pkg/db/models"
	"github.com/law23sum/trader-exchange/pkg/enums"
)

const defaultTitle = "Untitled"

// ListingDTO is the transport shape of a listing.
type ListingDTO struct {
	ID          uuid.UUID           `json:"id"`
	ProviderID  uuid.UUID           `json:"providerId"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Price       decimal.Decimal     `json:"price"`
	Status      enums.ListingStatus `json:"status"`
	Tags        string              `json:"tags"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// CreateListingInput is the POST /listings body. ProviderID is honored only for admins.
type CreateListingInput struct {
	ProviderID  *uuid.UUID       `json:"providerId,omitempty"`
	Title       string           `json:"title" validate:"max=200"`
	Description string           `json:"description" validate:"max=4000"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Status      string           `json:"status" validate:"omitempty,oneof=LISTED UNLISTED listed unlisted"`
	Tags        string           `json:"tags" validate:"max=500"`
}

// UpdateListingInput carries partial listing updates.
type UpdateListingInput struct {
	Title       *string          `json:"title,omitempty" validate:"omitempty,max=200"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=4000"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Status      *string          `json:"status,omitempty" validate:"omitempty,oneof=LISTED UNLISTED listed unlisted"`
	Tags        *string          `json:"tags,omitempty" validate:"omitempty,max=500"`
}

func FromModel(l *models.Listing) ListingDTO {
	return ListingDTO{
		ID:          l.ID,
		ProviderID:  l.ProviderID,
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		Status:      l.Status,
		Tags:        l.Tags,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

// NormalizeTags trims each comma-separated tag and drops empties.
func NormalizeTags(raw string) string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			out = append(out, tag)
		}
	}
	return strings.Join(out, ",")
}

func titleOrDefault(title string) string {
	if trimmed := strings.TrimSpace(title); trimmed != "" {
		return trimmed
	}
	return defaultTitle
}
