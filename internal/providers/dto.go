package providers

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/law23sum/trader-exchange/pkg/db/models"
	"github.com/law23sum/trader-exchange/pkg/enums"
)

// ProviderDTO is the public projection of a provider record.
type ProviderDTO struct {
	ID           uuid.UUID       `json:"id"`
	AccountID    *uuid.UUID      `json:"accountId,omitempty"`
	Name         string          `json:"name"`
	Rating       decimal.Decimal `json:"rating"`
	Jobs         int64           `json:"jobs"`
	Bio          string          `json:"bio"`
	Location     string          `json:"location"`
	Website      string          `json:"website"`
	Phone        string          `json:"phone"`
	HourlyRate   decimal.Decimal `json:"hourlyRate"`
	Availability string          `json:"availability"`
	Specialties  string          `json:"specialties"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// ListingSummary is the listing shape embedded in a provider detail.
type ListingSummary struct {
	ID          uuid.UUID           `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Price       decimal.Decimal     `json:"price"`
	Status      enums.ListingStatus `json:"status"`
	Tags        string              `json:"tags"`
}

// ProviderDetail is returned by GET /providers/{id}.
type ProviderDetail struct {
	Provider ProviderDTO      `json:"provider"`
	Listings []ListingSummary `json:"listings"`
}

// ProfileInput carries the editable profile fields. Nil fields are left untouched.
type ProfileInput struct {
	Name         *string          `json:"name,omitempty" validate:"omitempty,max=120"`
	Bio          *string          `json:"bio,omitempty" validate:"omitempty,max=4000"`
	Location     *string          `json:"location,omitempty" validate:"omitempty,max=200"`
	Website      *string          `json:"website,omitempty" validate:"omitempty,max=300"`
	Phone        *string          `json:"phone,omitempty" validate:"omitempty,max=40"`
	HourlyRate   *decimal.Decimal `json:"hourlyRate,omitempty"`
	Availability *string          `json:"availability,omitempty" validate:"omitempty,max=500"`
	Specialties  *string          `json:"specialties,omitempty" validate:"omitempty,max=500"`
}

// BecomeProviderResult reports the provider linked to the account.
type BecomeProviderResult struct {
	Account  *models.Account
	Provider *models.Provider
	Created  bool
}

func FromModel(p *models.Provider) ProviderDTO {
	return ProviderDTO{
		ID:           p.ID,
		AccountID:    p.AccountID,
		Name:         p.Name,
		Rating:       p.Rating,
		Jobs:         p.Jobs,
		Bio:          p.Bio,
		Location:     p.Location,
		Website:      p.Website,
		Phone:        p.Phone,
		HourlyRate:   p.HourlyRate,
		Availability: p.Availability,
		Specialties:  p.Specialties,
		CreatedAt:    p.CreatedAt,
	}
}

func listingSummaryFromModel(l models.Listing) ListingSummary {
	return ListingSummary{
		ID:          l.ID,
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		Status:      l.Status,
		Tags:        l.Tags,
	}
}

func (in ProfileInput) updates() map[string]any {
	updates := map[string]any{}
	setString := func(column string, value *string) {
		if value != nil {
			updates[column] = strings.TrimSpace(*value)
		}
	}
	setString("bio", in.Bio)
	setString("location", in.Location)
	setString("website", in.Website)
	setString("phone", in.Phone)
	setString("availability", in.Availability)
	setString("specialties", in.Specialties)
	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.HourlyRate != nil {
		updates["hourly_rate"] = *in.HourlyRate
	}
	return updates
}
