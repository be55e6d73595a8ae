// Package authstub is a minimal JWT bearer-token middleware: it
// validates a signed token and extracts the conversation/user claims
// the HTTP handlers need, without pulling in a full auth provider.
package authstub

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	claimsContextKey contextKey = "nugget_claims"
)

// Claims is the bearer token's payload shape.
type Claims struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	jwt.RegisteredClaims
}

// Validator verifies bearer tokens against a single HMAC secret.
type Validator struct {
	secret []byte
}

func NewValidator(secret string) *Validator {
	return &Validator{secret: []byte(secret)}
}

var ErrMissingToken = errors.New("authstub: missing bearer token")

func (v *Validator) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("authstub: unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("authstub: invalid token")
	}
	return claims, nil
}

// Middleware extracts and validates the bearer token, storing the
// resulting Claims in the request context for handlers to read with
// FromContext.
func (v *Validator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			http.Error(w, ErrMissingToken.Error(), http.StatusUnauthorized)
			return
		}

		claims, err := v.parse(tokenString)
		if err != nil {
			http.Error(w, "authstub: "+err.Error(), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext returns the Claims stored by Middleware, or nil if none.
func FromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsContextKey).(*Claims)
	return claims
}
