package orders

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/law23sum/trader-exchange/pkg/db/models"
	"github.com/law23sum/trader-exchange/pkg/enums"
)

const (
	defaultService      = "Service request"
	defaultCustomerName = "Customer"
	defaultProviderName = "Trader"
	statusNone          = "none"
)

// RequestDetails is the customer's request sub-record. Details only grows.
type RequestDetails struct {
	Details string `json:"details"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Ack     bool   `json:"ack"`
}

// OrderView is the projection returned by every order endpoint.
type OrderView struct {
	ID             uuid.UUID         `json:"id"`
	AccountID      *uuid.UUID        `json:"accountId,omitempty"`
	UserName       string            `json:"userName"`
	Service        string            `json:"service"`
	Status         enums.OrderStatus `json:"status"`
	Amount         decimal.Decimal   `json:"amount"`
	CreatedAt      time.Time         `json:"createdAt"`
	ProviderID     uuid.UUID         `json:"providerId"`
	ListingID      *uuid.UUID        `json:"listingId"`
	ConversationID *uuid.UUID        `json:"conversationId"`
	Request        RequestDetails    `json:"request"`
}

// MineView adds the provider's display name for the customer's order list.
type MineView struct {
	OrderView
	ProviderName string `json:"providerName"`
}

// StatusView answers "where does my engagement with this provider stand".
type StatusView struct {
	Found          bool       `json:"found"`
	Status         string     `json:"status"`
	Ack            bool       `json:"ack"`
	ConversationID *uuid.UUID `json:"conversationId,omitempty"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
}

// RequestInput opens a discussion-stage order.
type RequestInput struct {
	ProviderID     uuid.UUID  `json:"providerId"`
	ListingID      *uuid.UUID `json:"listingId,omitempty"`
	Title          string     `json:"title" validate:"max=200"`
	Details        string     `json:"details" validate:"max=4000"`
	Date           string     `json:"date" validate:"max=40"`
	Time           string     `json:"time" validate:"max=40"`
	ConversationID *uuid.UUID `json:"conversationId,omitempty"`
}

// CheckoutInput creates an already-approved, paid order. Name or Email
// identifies anonymous buyers.
type CheckoutInput struct {
	ProviderID uuid.UUID        `json:"providerId"`
	ListingID  *uuid.UUID       `json:"listingId,omitempty"`
	Service    string           `json:"service" validate:"max=200"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	Details    string           `json:"details" validate:"max=4000"`
	Name       string           `json:"name" validate:"max=120"`
	Email      string           `json:"email" validate:"omitempty,email"`
}

// ActionInput is the POST /trader/orders/{id}/action body.
type ActionInput struct {
	Action string `json:"action"`
}

// ScheduleInput proposes a consultation slot.
type ScheduleInput struct {
	ConversationID *uuid.UUID `json:"conversationId,omitempty"`
	Date           string     `json:"date" validate:"max=40"`
	Time           string     `json:"time" validate:"max=40"`
}

// CompletionInput is appended to the request details on completion.
type CompletionInput struct {
	Notes    string `json:"notes" validate:"max=4000"`
	PhotoURL string `json:"photoUrl" validate:"omitempty,url"`
}

func toView(o *models.Order) OrderView {
	userName := o.UserName
	if strings.TrimSpace(userName) == "" {
		userName = defaultCustomerName
	}
	return OrderView{
		ID:             o.ID,
		AccountID:      o.AccountID,
		UserName:       userName,
		Service:        o.Service,
		Status:         o.Status,
		Amount:         o.Amount,
		CreatedAt:      o.CreatedAt,
		ProviderID:     o.ProviderID,
		ListingID:      o.ListingID,
		ConversationID: o.ConversationID,
		Request: RequestDetails{
			Details: o.ReqDetails,
			Date:    o.ReqDate,
			Time:    o.ReqTime,
			Ack:     o.ReqAck,
		},
	}
}

// appendCompletionDetails adds the completion lines to existing details.
func appendCompletionDetails(existing, notes, photoURL string) string {
	var lines []string
	if n := strings.TrimSpace(notes); n != "" {
		lines = append(lines, "Completion notes: "+n)
	}
	if p := strings.TrimSpace(photoURL); p != "" {
		lines = append(lines, "Photo: "+p)
	}
	if len(lines) == 0 {
		return existing
	}
	return strings.TrimSpace(existing + "\n" + strings.Join(lines, "\n"))
}
