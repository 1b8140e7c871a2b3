package service

import (
	"context"
	"errors"
	"time"

	"github.com/psds-microservice/backoffice-service/internal/errs"
	"github.com/psds-microservice/backoffice-service/internal/metrics"
	"github.com/psds-microservice/backoffice-service/internal/model"
	"go.uber.org/zap"
)

// LoginPrecedence is the order in which the unified login tries principal kinds.
// An account present in both collections always logs in as Admin.
var LoginPrecedence = []model.PrincipalKind{model.KindAdmin, model.KindClient}

type LoginResult struct {
	User       model.Principal
	Token      string
	ExpiresAt  time.Time
	RedirectTo string
}

// LoginResolver implements the single login form shared by admins and clients.
type LoginResolver struct {
	auth  *Authenticator
	order []model.PrincipalKind
	homes map[model.PrincipalKind]string
	log   *zap.Logger
}

func NewLoginResolver(auth *Authenticator, adminHome, clientHome string, log *zap.Logger) *LoginResolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoginResolver{
		auth:  auth,
		order: LoginPrecedence,
		homes: map[model.PrincipalKind]string{
			model.KindAdmin:  adminHome,
			model.KindClient: clientHome,
		},
		log: log,
	}
}

// fallsThrough reports whether a failure for one kind should move on to the next kind.
func fallsThrough(err error) bool {
	return errors.Is(err, errs.ErrNotFound) ||
		errors.Is(err, errs.ErrInvalidCredential) ||
		errors.Is(err, errs.ErrAccountInactive)
}

// Login tries each kind in precedence order. When every kind fails the caller only
// learns errs.ErrInvalidCredential; which kind failed, and why, is never exposed.
func (r *LoginResolver) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	for _, kind := range r.order {
		res, err := r.auth.Authenticate(ctx, kind, email, password)
		if err == nil {
			metrics.LoginAttempt(string(kind), "success")
			return &LoginResult{
				User:       res.Principal,
				Token:      res.Token,
				ExpiresAt:  res.ExpiresAt,
				RedirectTo: r.homes[kind],
			}, nil
		}
		if !fallsThrough(err) {
			metrics.LoginAttempt(string(kind), "error")
			return nil, err
		}
		r.log.Debug("login attempt failed", zap.String("kind", string(kind)), zap.Error(err))
	}
	metrics.LoginAttempt("", "failure")
	return nil, errs.ErrInvalidCredential
}
