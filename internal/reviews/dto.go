package reviews

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/law23sum/trader-exchange/pkg/db/models"
)

const (
	minRating     = 1
	maxRating     = 5
	defaultRating = 5
	defaultAuthor = "Customer"
)

// SubmitInput is the review body. A missing rating counts as 5.
type SubmitInput struct {
	Rating *int   `json:"rating,omitempty"`
	Text   string `json:"text" validate:"max=4000"`
}

// Result is returned after a review is recorded.
type Result struct {
	ReviewID       uuid.UUID       `json:"reviewId"`
	ProviderID     uuid.UUID       `json:"providerId"`
	Rating         int             `json:"rating"`
	ProviderRating decimal.Decimal `json:"providerRating"`
}

// ReviewDTO is one entry in a provider's review list.
type ReviewDTO struct {
	ID         uuid.UUID  `json:"id"`
	ProviderID uuid.UUID  `json:"providerId"`
	OrderID    *uuid.UUID `json:"orderId,omitempty"`
	Author     string     `json:"author"`
	Rating     int        `json:"rating"`
	Text       string     `json:"text"`
	At         time.Time  `json:"at"`
}

// ClampRating forces a rating into [1,5]. It never rejects.
func ClampRating(rating *int) int {
	if rating == nil {
		return defaultRating
	}
	switch v := *rating; {
	case v < minRating:
		return minRating
	case v > maxRating:
		return maxRating
	default:
		return v
	}
}

// Mean is the provider rating for count reviews summing to total, rounded to
// two places. No reviews yields the default rating.
func Mean(total, count int64) decimal.Decimal {
	if count <= 0 {
		return decimal.NewFromInt(defaultRating)
	}
	return decimal.NewFromInt(total).DivRound(decimal.NewFromInt(count), 2)
}

func fromModel(r *models.ProviderReview) ReviewDTO {
	return ReviewDTO{
		ID:         r.ID,
		ProviderID: r.ProviderID,
		OrderID:    r.OrderID,
		Author:     r.Author,
		Rating:     r.Rating,
		Text:       r.Text,
		At:         r.CreatedAt,
	}
}
