package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/zoramarket/cart-service/internal/domain"
)

type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

type sessionJWTClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

var errNoSigningSecret = errors.New("no session signing secret configured")

// TokenVerifier reads the subject and expiry from a session JWT. It verifies
// HS256 signatures unless it was built for a trusted gateway, in which case
// it only decodes the claims.
type TokenVerifier struct {
	secret       []byte
	trustGateway bool
	leeway       time.Duration
	nowFn        func() time.Time
}

// NewTokenVerifier verifies HS256 tokens signed with secret. An empty secret
// rejects every token.
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{
		secret: []byte(strings.TrimSpace(secret)),
		leeway: 30 * time.Second,
		nowFn:  time.Now,
	}
}

// NewGatewayTokenVerifier decodes tokens without checking signatures. Use it
// only behind a gateway that has already verified them.
func NewGatewayTokenVerifier() *TokenVerifier {
	return &TokenVerifier{
		trustGateway: true,
		leeway:       30 * time.Second,
		nowFn:        time.Now,
	}
}

// WithClock overrides the time source used for expiry checks.
func (v *TokenVerifier) WithClock(now func() time.Time) *TokenVerifier {
	if now != nil {
		v.nowFn = now
	}
	return v
}

// Verifies reports whether signatures are checked.
func (v *TokenVerifier) Verifies() bool { return !v.trustGateway }

func (v *TokenVerifier) Verify(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, fmt.Errorf("%w: empty token", domain.ErrUnauthorized)
	}
	claims := &sessionJWTClaims{}
	switch {
	case v.Verifies() && len(v.secret) == 0:
		return Claims{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, errNoSigningSecret)
	case v.Verifies():
		_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
			}
			return v.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithLeeway(v.leeway),
			jwt.WithTimeFunc(v.nowFn),
		)
		if err != nil {
			return Claims{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
		}
	default:
		if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
			return Claims{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
		}
		if claims.ExpiresAt != nil && v.nowFn().After(claims.ExpiresAt.Add(v.leeway)) {
			return Claims{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, jwt.ErrTokenExpired)
		}
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		subject = strings.TrimSpace(claims.UserID)
	}
	if subject == "" {
		return Claims{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, errors.New("token has no subject"))
	}
	out := Claims{Subject: subject}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
