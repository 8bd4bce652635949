// Package token issues and validates the bearer tokens that bind a Bluesky
// identity (DID or handle) to API calls. Tokens are HS256 JWTs; the signing
// key is shared service-side only.
package token

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"metasignet/pkg/domain"
	dErrors "metasignet/pkg/domain-errors"
	"metasignet/pkg/platform/middleware/auth"
	"metasignet/pkg/requestcontext"
)

const issuer = "metasignet"

// ActorClaims are the JWT claims carried by a MetaSignet access token. The
// subject is the actor's DID or handle; Handle is the human-readable handle
// when the subject is a DID.
type ActorClaims struct {
	Handle string `json:"handle,omitempty"`
	jwt.RegisteredClaims
}

// Service signs and validates actor tokens.
type Service struct {
	signingKey []byte
	tokenTTL   time.Duration
}

// NewService creates a token service. TTL bounds how long an issued token
// stays valid.
func NewService(signingKey string, tokenTTL time.Duration) (*Service, error) {
	if signingKey == "" {
		return nil, errors.New("token: signing key is required")
	}
	if tokenTTL <= 0 {
		return nil, errors.New("token: ttl must be positive")
	}
	return &Service{
		signingKey: []byte(signingKey),
		tokenTTL:   tokenTTL,
	}, nil
}

// Issue creates a signed token for the given actor.
func (s *Service) Issue(ctx context.Context, actor domain.ActorID, handle string) (string, error) {
	if actor.IsZero() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "actor is required")
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	now := requestcontext.Now(ctx)

	claims := ActorClaims{
		Handle: handle,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        hex.EncodeToString(b),
			Issuer:    issuer,
			Subject:   actor.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return signed, nil
}

// ValidateToken parses and verifies a token, returning the actor claims the
// auth middleware consumes. It satisfies auth.TokenValidator.
func (s *Service) ValidateToken(tokenString string) (*auth.Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &ActorClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid or expired token")
	}

	claims, ok := parsed.Claims.(*ActorClaims)
	if !ok || claims.Subject == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token is missing the actor subject")
	}
	return &auth.Claims{
		ActorID: claims.Subject,
		Handle:  claims.Handle,
	}, nil
}
