// Package auth signs and verifies the bearer tokens exchanged between the
// dashboard client and the backend.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/huangsam/climdash/schema"
)

// Issuer is the token issuer claim.
const Issuer = "climdash"

// DefaultTTL is how long a token stays valid.
const DefaultTTL = 15 * time.Minute

// ErrUnauthorized is returned for missing or invalid tokens.
var ErrUnauthorized = errors.New("unauthorized")

// Claims are the token claims.
type Claims struct {
	Client string `json:"client"`
	jwt.RegisteredClaims
}

// Service issues and parses HS256 tokens with a shared secret.
type Service struct {
	hmac []byte
	ttl  time.Duration
	now  func() time.Time
}

// NewService creates a token service. An empty secret disables auth.
func NewService(secret string) *Service {
	if secret == "" {
		return nil
	}
	return &Service{hmac: []byte(secret), ttl: DefaultTTL, now: time.Now}
}

// Issue returns a signed token for client.
func (a *Service) Issue(client string) (string, error) {
	now := a.now()
	claims := &Claims{
		Client: client,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

// Parse verifies a token and returns its claims.
func (a *Service) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(_ *jwt.Token) (any, error) {
		return a.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(Issuer))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrUnauthorized
	}
	return c, nil
}

// Authorize sets the bearer header of req. A nil service leaves req untouched.
func (a *Service) Authorize(req *http.Request, client string) error {
	if a == nil {
		return nil
	}
	tok, err := a.Issue(client)
	if err != nil {
		return fmt.Errorf("sign request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	return nil
}

// Middleware rejects requests without a valid bearer token.
// A nil service lets every request through.
func Middleware(a *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if a == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				writeUnauthorized(w, "missing bearer")
				return
			}
			if _, err := a.Parse(strings.TrimPrefix(h, "Bearer ")); err != nil {
				writeUnauthorized(w, "bad token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(schema.APIError{Error: msg})
}
