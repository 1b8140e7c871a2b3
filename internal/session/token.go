package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/psds-microservice/backoffice-service/internal/model"
)

const issuer = "backoffice"

// ErrInvalidToken covers every verification failure: bad signature, expiry, malformed claims.
var ErrInvalidToken = errors.New("invalid session token")

// Claims are the JWT claims carried by the session cookie.
type Claims struct {
	PrincipalID string              `json:"id"`
	Kind        model.PrincipalKind `json:"kind"`
	Email       string              `json:"email"`
	Name        string              `json:"name"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies session tokens with a single process-wide HMAC key.
// There is no revocation list: a token stays valid until it expires.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Issuer)

// WithClock overrides the time source used for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

func NewIssuer(secret string, ttl time.Duration, opts ...Option) (*Issuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("session: secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("session: ttl must be positive")
	}
	i := &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue mints a token for p with a fixed expiry of now+ttl.
func (i *Issuer) Issue(p model.Principal) (string, time.Time, error) {
	if p.ID == "" || !p.Kind.Valid() {
		return "", time.Time{}, fmt.Errorf("session: incomplete principal %q/%q", p.ID, p.Kind)
	}
	now := i.now().UTC()
	exp := now.Add(i.ttl)
	claims := Claims{
		PrincipalID: p.ID,
		Kind:        p.Kind,
		Email:       p.Email,
		Name:        p.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify checks signature, issuer and expiry and returns the embedded principal.
func (i *Issuer) Verify(token string) (model.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return model.Principal{}, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return model.Principal{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return model.Principal{}, ErrInvalidToken
	}
	if claims.PrincipalID == "" || claims.PrincipalID != claims.Subject || !claims.Kind.Valid() {
		return model.Principal{}, ErrInvalidToken
	}
	return model.Principal{
		ID:    claims.PrincipalID,
		Kind:  claims.Kind,
		Email: claims.Email,
		Name:  claims.Name,
	}, nil
}
