package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/law23sum/trader-exchange/pkg/auth"
	"github.com/law23sum/trader-exchange/pkg/auth/session"
	"github.com/law23sum/trader-exchange/pkg/config"
	"github.com/law23sum/trader-exchange/pkg/db/models"
	"github.com/law23sum/trader-exchange/pkg/enums"
	pkgerrors "github.com/law23sum/trader-exchange/pkg/errors"
)

type accountFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

// Resolver turns a bearer credential into the caller identity. It performs no
// writes, so resolving the same credential twice yields the same identity.
type Resolver struct {
	cfg      config.JWTConfig
	sessions session.AccessSessionChecker
	accounts accountFinder
}

func NewResolver(cfg config.JWTConfig, sessions session.AccessSessionChecker, accounts accountFinder) (*Resolver, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session checker is required")
	}
	if accounts == nil {
		return nil, fmt.Errorf("account repository is required")
	}
	return &Resolver{cfg: cfg, sessions: sessions, accounts: accounts}, nil
}

// Resolve accepts a raw Authorization header value or a bare token.
func (r *Resolver) Resolve(ctx context.Context, credential string) (*pkgAuth.Identity, error) {
	token := pkgAuth.ExtractToken(credential)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}

	claims, err := pkgAuth.ParseAccessToken(r.cfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}

	ok, err := r.sessions.HasSession(ctx, claims.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable")
	}

	account, err := r.accounts.FindByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account unavailable")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}

	return &pkgAuth.Identity{
		AccountID:  account.ID,
		Name:       account.Name,
		Email:      account.Email,
		Role:       enums.NormalizeAccountRole(string(account.Role)),
		ProviderID: account.ProviderID,
		SessionID:  claims.ID,
	}, nil
}
