package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/law23sum/trader-exchange/api/middleware"
	"github.com/law23sum/trader-exchange/api/responses"
	"github.com/law23sum/trader-exchange/api/validators"
	"github.com/law23sum/trader-exchange/internal/accounts"
	"github.com/law23sum/trader-exchange/internal/listings"
	"github.com/law23sum/trader-exchange/pkg/db/models"
	pkgerrors "github.com/law23sum/trader-exchange/pkg/errors"
	"github.com/law23sum/trader-exchange/pkg/logger"
)

const (
	defaultAccountLimit = 100
	maxAccountLimit     = 200
)

type accountLister interface {
	List(ctx context.Context, limit int) ([]models.Account, error)
}

// Accounts lists accounts newest first, capped by ?limit=.
func Accounts(store accountLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "accounts store unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", defaultAccountLimit, 1, maxAccountLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := store.List(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list accounts"))
			return
		}

		out := make([]*accounts.AccountDTO, 0, len(rows))
		for i := range rows {
			out = append(out, accounts.FromModel(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func DeleteListing(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		listingID, err := validators.ParseUUIDParam(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.IdentityFromContext(r.Context())
		if err := svc.Delete(r.Context(), actor, listingID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(logg.WithField(r.Context(), "listing_id", listingID.String()), "admin.listing_deleted")
		}
		responses.WriteSuccess(w, map[string]bool{"ok": true})
	}
}

type deadLetterLister interface {
	List(ctx context.Context, limit int) ([]models.OutboxDLQ, error)
}

type deadLetterDTO struct {
	ID            uuid.UUID       `json:"id"`
	EventID       uuid.UUID       `json:"eventId"`
	EventType     string          `json:"eventType"`
	AggregateType string          `json:"aggregateType"`
	AggregateID   uuid.UUID       `json:"aggregateId"`
	ErrorReason   string          `json:"errorReason"`
	ErrorMessage  string          `json:"errorMessage,omitempty"`
	AttemptCount  int             `json:"attemptCount"`
	Payload       json.RawMessage `json:"payload"`
	FailedAt      time.Time       `json:"failedAt"`
}

// DeadLetters lists outbox events the publisher gave up on, newest first.
func DeadLetters(store deadLetterLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dead letter store unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", defaultAccountLimit, 1, maxAccountLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := store.List(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list dead letters"))
			return
		}

		out := make([]deadLetterDTO, 0, len(rows))
		for _, row := range rows {
			dto := deadLetterDTO{
				ID:            row.ID,
				EventID:       row.EventID,
				EventType:     string(row.EventType),
				AggregateType: string(row.AggregateType),
				AggregateID:   row.AggregateID,
				ErrorReason:   string(row.ErrorReason),
				AttemptCount:  row.AttemptCount,
				Payload:       row.Payload,
				FailedAt:      row.FailedAt,
			}
			if row.ErrorMessage != nil {
				dto.ErrorMessage = *row.ErrorMessage
			}
			out = append(out, dto)
		}
		responses.WriteSuccess(w, out)
	}
}
