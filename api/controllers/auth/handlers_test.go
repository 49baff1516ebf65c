package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/law23sum/trader-exchange/api/middleware"
	"github.com/law23sum/trader-exchange/internal/accounts"
	"github.com/law23sum/trader-exchange/internal/auth"
	pkgAuth "github.com/law23sum/trader-exchange/pkg/auth"
	"github.com/law23sum/trader-exchange/pkg/enums"
	pkgerrors "github.com/law23sum/trader-exchange/pkg/errors"
)

type stubAuthService struct {
	signoutToken string
	signinErr    error
}

func (s *stubAuthService) Signup(_ context.Context, req auth.SignupRequest) (*auth.SessionResponse, error) {
	return &auth.SessionResponse{Token: "tok", User: &accounts.AccountDTO{Email: req.Email, Role: enums.AccountRoleUser}}, nil
}

func (s *stubAuthService) Signin(_ context.Context, req auth.SigninRequest) (*auth.SessionResponse, error) {
	if s.signinErr != nil {
		return nil, s.signinErr
	}
	return &auth.SessionResponse{Token: "tok", User: &accounts.AccountDTO{Email: req.Email}}, nil
}

func (s *stubAuthService) Signout(_ context.Context, token string) error {
	s.signoutToken = token
	return nil
}

func (s *stubAuthService) BecomeProvider(_ context.Context, actor *pkgAuth.Identity, _ auth.BecomeProviderRequest) (*auth.BecomeProviderResponse, error) {
	if actor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return &auth.BecomeProviderResponse{OK: true, ProviderID: uuid.New(), Token: "trader-tok"}, nil
}

func TestSignupReturnsCreatedWithTokenHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.io","password":"pw"}`))
	resp := httptest.NewRecorder()

	Signup(&stubAuthService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d (%s)", resp.Code, resp.Body.String())
	}
	if resp.Header().Get(tokenHeader) != "tok" {
		t.Fatalf("expected token header")
	}
}

func TestSignupRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.io","password":"pw","role":"ADMIN"}`))
	resp := httptest.NewRecorder()

	Signup(&stubAuthService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestSigninInvalidCredentials(t *testing.T) {
	svc := &stubAuthService{signinErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.io","password":"bad"}`))
	resp := httptest.NewRecorder()

	Signin(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "invalid credentials") {
		t.Fatalf("expected message in body: %s", resp.Body.String())
	}
}

func TestSignoutForwardsAuthorizationHeader(t *testing.T) {
	svc := &stubAuthService{}
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	resp := httptest.NewRecorder()

	Signout(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.signoutToken != "Bearer abc" {
		t.Fatalf("unexpected token %q", svc.signoutToken)
	}
}

func TestMeReturnsIdentity(t *testing.T) {
	providerID := uuid.New()
	identity := &pkgAuth.Identity{AccountID: uuid.New(), Name: "tess", Email: "tess@x.io", Role: enums.AccountRoleTrader, ProviderID: &providerID}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(middleware.WithIdentity(req.Context(), identity))
	resp := httptest.NewRecorder()

	Me(nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data meResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.User.ID != identity.AccountID || envelope.Data.User.Role != enums.AccountRoleTrader {
		t.Fatalf("unexpected user %+v", envelope.Data.User)
	}
	if envelope.Data.User.ProviderID == nil || *envelope.Data.User.ProviderID != providerID {
		t.Fatalf("expected provider id")
	}
}

func TestMeWithoutIdentity(t *testing.T) {
	resp := httptest.NewRecorder()
	Me(nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestBecomeProviderAcceptsEmptyBody(t *testing.T) {
	identity := &pkgAuth.Identity{AccountID: uuid.New(), Role: enums.AccountRoleUser}
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(middleware.WithIdentity(req.Context(), identity))
	resp := httptest.NewRecorder()

	BecomeProvider(&stubAuthService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", resp.Code, resp.Body.String())
	}
	if resp.Header().Get(tokenHeader) != "trader-tok" {
		t.Fatalf("expected fresh token header")
	}
}
