package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/law23sum/trader-exchange/api/middleware"
	"github.com/law23sum/trader-exchange/internal/listings"
	pkgAuth "github.com/law23sum/trader-exchange/pkg/auth"
	"github.com/law23sum/trader-exchange/pkg/db/dbtest"
	"github.com/law23sum/trader-exchange/pkg/enums"
)

func newListingsService(t *testing.T) listings.Service {
	t.Helper()
	svc, err := listings.NewService(listings.NewRepository(dbtest.Open(t)))
	require.NoError(t, err)
	return svc
}

func withParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func asIdentity(req *http.Request, identity *pkgAuth.Identity) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), identity))
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, dest any) {
	t.Helper()
	envelope := struct {
		Data any `json:"data"`
	}{Data: dest}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
}

func TestListingCreateThenDetail(t *testing.T) {
	svc := newListingsService(t)
	providerID := uuid.New()
	trader := &pkgAuth.Identity{AccountID: uuid.New(), Role: enums.AccountRoleTrader, ProviderID: &providerID}

	req := asIdentity(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"Tile repair","tags":"tile, repair"}`)), trader)
	resp := httptest.NewRecorder()
	ListingCreate(svc, nil).ServeHTTP(resp, req)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var created listings.ListingDTO
	decodeData(t, resp, &created)
	require.Equal(t, providerID, created.ProviderID)
	require.Equal(t, "tile,repair", created.Tags)

	req = withParam(httptest.NewRequest(http.MethodGet, "/", nil), "listingId", created.ID.String())
	resp = httptest.NewRecorder()
	ListingDetail(svc, nil).ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)

	var fetched listings.ListingDTO
	decodeData(t, resp, &fetched)
	require.Equal(t, "Tile repair", fetched.Title)
}

func TestListingDetailMissing(t *testing.T) {
	svc := newListingsService(t)
	req := withParam(httptest.NewRequest(http.MethodGet, "/", nil), "listingId", uuid.NewString())
	resp := httptest.NewRecorder()
	ListingDetail(svc, nil).ServeHTTP(resp, req)
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestListingsListRejectsBadProviderFilter(t *testing.T) {
	svc := newListingsService(t)
	resp := httptest.NewRecorder()
	ListingsList(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/?providerId=abc", nil))
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestListingDeleteByOtherTraderForbidden(t *testing.T) {
	svc := newListingsService(t)
	ownerProvider := uuid.New()
	owner := &pkgAuth.Identity{AccountID: uuid.New(), Role: enums.AccountRoleTrader, ProviderID: &ownerProvider}
	created, err := svc.Create(context.Background(), owner, listings.CreateListingInput{Title: "Gutters"})
	require.NoError(t, err)

	otherProvider := uuid.New()
	other := &pkgAuth.Identity{AccountID: uuid.New(), Role: enums.AccountRoleTrader, ProviderID: &otherProvider}
	req := asIdentity(withParam(httptest.NewRequest(http.MethodDelete, "/", nil), "listingId", created.ID.String()), other)
	resp := httptest.NewRecorder()
	ListingDelete(svc, nil).ServeHTTP(resp, req)
	require.Equal(t, http.StatusForbidden, resp.Code)

	admin := &pkgAuth.Identity{AccountID: uuid.New(), Role: enums.AccountRoleAdmin}
	req = asIdentity(withParam(httptest.NewRequest(http.MethodDelete, "/", nil), "listingId", created.ID.String()), admin)
	resp = httptest.NewRecorder()
	ListingDelete(svc, nil).ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
}
