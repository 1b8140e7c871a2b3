package service

import (
	"context"
	"fmt"
	"time"

	"github.com/psds-microservice/backoffice-service/internal/errs"
	"github.com/psds-microservice/backoffice-service/internal/model"
	"github.com/psds-microservice/backoffice-service/internal/session"
)

// AuthResult is a successful authentication: who logged in and the session token minted for them.
type AuthResult struct {
	Principal model.Principal
	Token     string
	ExpiresAt time.Time
}

// Authenticator verifies credentials against exactly one principal collection.
// It has no persistence side effects.
type Authenticator struct {
	admins  AdminStore
	clients ClientStore
	hasher  PasswordHasher
	tokens  *session.Issuer
}

func NewAuthenticator(admins AdminStore, clients ClientStore, hasher PasswordHasher, tokens *session.Issuer) *Authenticator {
	return &Authenticator{admins: admins, clients: clients, hasher: hasher, tokens: tokens}
}

// Authenticate looks up email in the collection named by kind and checks the password.
// Errors: errs.ErrNotFound, errs.ErrAccountInactive, errs.ErrInvalidCredential, or an
// infrastructure error from the store.
func (a *Authenticator) Authenticate(ctx context.Context, kind model.PrincipalKind, email, password string) (*AuthResult, error) {
	var (
		p    model.Principal
		hash string
	)
	switch kind {
	case model.KindAdmin:
		admin, err := a.admins.FindByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		p, hash = admin.Principal(), admin.PasswordHash
	case model.KindClient:
		client, err := a.clients.FindByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		// inactive accounts fail before the password is even checked
		if client.Status != model.ClientStatusActive {
			return nil, errs.ErrAccountInactive
		}
		p, hash = client.Principal(), client.PasswordHash
	default:
		return nil, errs.Validation("unknown principal kind %q", kind)
	}

	if err := a.hasher.Compare(hash, password); err != nil {
		return nil, err
	}
	token, exp, err := a.tokens.Issue(p)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return &AuthResult{Principal: p, Token: token, ExpiresAt: exp}, nil
}
