package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/law23sum/trader-exchange/internal/accounts"
	"github.com/law23sum/trader-exchange/internal/providers"
	pkgAuth "github.com/law23sum/trader-exchange/pkg/auth"
	"github.com/law23sum/trader-exchange/pkg/auth/session"
	"github.com/law23sum/trader-exchange/pkg/config"
	pkgdb "github.com/law23sum/trader-exchange/pkg/db"
	"github.com/law23sum/trader-exchange/pkg/db/models"
	"github.com/law23sum/trader-exchange/pkg/enums"
	pkgerrors "github.com/law23sum/trader-exchange/pkg/errors"
	"github.com/law23sum/trader-exchange/pkg/logger"
	"github.com/law23sum/trader-exchange/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Signup(ctx context.Context, req SignupRequest) (*SessionResponse, error)
	Signin(ctx context.Context, req SigninRequest) (*SessionResponse, error)
	Signout(ctx context.Context, token string) error
	BecomeProvider(ctx context.Context, actor *pkgAuth.Identity, req BecomeProviderRequest) (*BecomeProviderResponse, error)
}

type accountStore interface {
	Create(ctx context.Context, dto accounts.CreateAccountDTO) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type sessionManager interface {
	Issue(ctx context.Context, accessID string, accountID uuid.UUID) error
	Revoke(ctx context.Context, accessID string) error
}

type providerBecomer interface {
	BecomeProvider(ctx context.Context, accountID uuid.UUID, name string) (*providers.BecomeProviderResult, error)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Accounts       accountStore
	Providers      providerBecomer
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
}

type service struct {
	accounts    accountStore
	providers   providerBecomer
	session     sessionManager
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
	now         func() time.Time
}

// NewService constructs the account session service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Accounts == nil {
		return nil, fmt.Errorf("account repository is required")
	}
	if params.Providers == nil {
		return nil, fmt.Errorf("provider service is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		accounts:    params.Accounts,
		providers:   params.Providers,
		session:     params.SessionManager,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		logg:        params.Logger,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Signup(ctx context.Context, req SignupRequest) (*SessionResponse, error) {
	email := accounts.NormalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password is required")
	}

	if _, err := s.accounts.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup account")
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = accounts.DefaultName(email)
	}
	account, err := s.accounts.Create(ctx, accounts.CreateAccountDTO{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         enums.AccountRoleUser,
	})
	if err != nil {
		if pkgdb.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create account")
	}

	token, err := s.issue(ctx, account)
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithUserID(ctx, account.ID.String()), "account.signed_up")
	return &SessionResponse{Token: token, User: accounts.FromModel(account)}, nil
}

func (s *service) Signin(ctx context.Context, req SigninRequest) (*SessionResponse, error) {
	account, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.accounts.UpdateLastLogin(ctx, account.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update last login")
	}
	account.LastLoginAt = &now

	token, err := s.issue(ctx, account)
	if err != nil {
		return nil, err
	}
	return &SessionResponse{Token: token, User: accounts.FromModel(account)}, nil
}

// Signout revokes the session behind token. Tokens that no longer parse have
// nothing left to revoke and are accepted silently.
func (s *service) Signout(ctx context.Context, token string) error {
	raw := pkgAuth.ExtractToken(token)
	if raw == "" {
		return nil
	}
	claims, err := pkgAuth.ParseAccessToken(s.jwtCfg, raw)
	if err != nil {
		return nil
	}
	if err := s.session.Revoke(ctx, claims.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) BecomeProvider(ctx context.Context, actor *pkgAuth.Identity, req BecomeProviderRequest) (*BecomeProviderResponse, error) {
	if actor == nil || actor.AccountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	result, err := s.providers.BecomeProvider(ctx, actor.AccountID, req.Name)
	if err != nil {
		return nil, err
	}
	token, err := s.issue(ctx, result.Account)
	if err != nil {
		return nil, err
	}
	return &BecomeProviderResponse{
		OK:         true,
		User:       accounts.FromModel(result.Account),
		ProviderID: result.Provider.ID,
		Token:      token,
	}, nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	input := accounts.NormalizeEmail(email)
	if input == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	account, err := s.accounts.FindByEmail(ctx, input)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup account")
	}

	valid, err := security.VerifyPassword(password, account.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return account, nil
}

// issue mints a token whose jti doubles as the revocable session key.
func (s *service) issue(ctx context.Context, account *models.Account) (string, error) {
	accessID := session.NewAccessID()
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now(), pkgAuth.AccessTokenPayload{
		AccountID:  account.ID,
		Role:       enums.NormalizeAccountRole(string(account.Role)),
		ProviderID: account.ProviderID,
		JTI:        accessID,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	if err := s.session.Issue(ctx, accessID, account.ID); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store session")
	}
	return token, nil
}
