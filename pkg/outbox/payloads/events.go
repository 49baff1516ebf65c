package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/law23sum/trader-exchange/pkg/enums"
)

// OrderRequestedEvent is emitted when a customer schedules a consultation.
type OrderRequestedEvent struct {
	OrderID    uuid.UUID  `json:"order_id"`
	ProviderID uuid.UUID  `json:"provider_id"`
	AccountID  *uuid.UUID `json:"account_id,omitempty"`
	ReqDate    string     `json:"req_date,omitempty"`
	ReqTime    string     `json:"req_time,omitempty"`
}

// OrderPurchasedEvent is emitted when a checkout creates an approved order.
type OrderPurchasedEvent struct {
	OrderID    uuid.UUID       `json:"order_id"`
	ProviderID uuid.UUID       `json:"provider_id"`
	ListingID  *uuid.UUID      `json:"listing_id,omitempty"`
	AccountID  *uuid.UUID      `json:"account_id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
}

// OrderStatusChangedEvent records every applied action.
type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	ProviderID uuid.UUID         `json:"provider_id"`
	Action     enums.OrderAction `json:"action"`
	From       enums.OrderStatus `json:"from"`
	To         enums.OrderStatus `json:"to"`
}

// OrderCompletedEvent fires once per order, when the job is first counted.
type OrderCompletedEvent struct {
	OrderID    uuid.UUID `json:"order_id"`
	ProviderID uuid.UUID `json:"provider_id"`
	Jobs       int64     `json:"jobs"`
}

// ReviewSubmittedEvent carries the provider's rating after the review.
type ReviewSubmittedEvent struct {
	ReviewID   uuid.UUID       `json:"review_id"`
	ProviderID uuid.UUID       `json:"provider_id"`
	OrderID    *uuid.UUID      `json:"order_id,omitempty"`
	Rating     int             `json:"rating"`
	NewMean    decimal.Decimal `json:"new_mean"`
}

// ProviderCreatedEvent is emitted when an account becomes a provider.
type ProviderCreatedEvent struct {
	ProviderID uuid.UUID `json:"provider_id"`
	AccountID  uuid.UUID `json:"account_id"`
	Name       string    `json:"name"`
}
