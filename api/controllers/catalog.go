package controllers

import (
	"net/http"

	"github.com/law23sum/trader-exchange/api/responses"
	"github.com/law23sum/trader-exchange/api/validators"
	"github.com/law23sum/trader-exchange/internal/catalog"
	pkgerrors "github.com/law23sum/trader-exchange/pkg/errors"
	"github.com/law23sum/trader-exchange/pkg/logger"
)

func Categories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		categories, err := svc.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

// Search matches ?q= against providers and listings.
func Search(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		query := validators.SanitizeString(r.URL.Query().Get("q"), 200)
		result, err := svc.Search(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
