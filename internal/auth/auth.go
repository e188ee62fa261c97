// Package auth resolves bearer credentials into caller identities.
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthorized is returned when a credential is missing or invalid and
// guest access is disabled.
var ErrUnauthorized = errors.New("could not validate credentials")

// Identity is the resolved caller.
type Identity struct {
	SubjectID string `json:"subject_id"`
	Email     string `json:"email"`
	IsGuest   bool   `json:"is_guest"`
}

// Guest is the identity used when no valid credential is presented.
var Guest = Identity{SubjectID: "guest", Email: "guest@example.com", IsGuest: true}

// Resolver validates HMAC-signed bearer tokens. With AllowGuest set, absent
// or invalid credentials degrade to a guest identity instead of failing the
// request.
type Resolver struct {
	secret     []byte
	allowGuest bool
	logger     *slog.Logger
}

// NewResolver creates a Resolver with the signing key and guest policy.
func NewResolver(secret string, allowGuest bool, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{secret: []byte(secret), allowGuest: allowGuest, logger: logger}
}

// Resolve parses the Authorization header value. An empty header yields the
// guest identity when permitted. A present but invalid token also degrades
// to guest (with a distinct email marker) so expired sessions keep working
// in demo mode.
func (r *Resolver) Resolve(authorization string) (Identity, error) {
	token := bearerToken(authorization)
	if token == "" {
		if r.allowGuest {
			return Guest, nil
		}
		return Identity{}, ErrUnauthorized
	}

	ident, err := r.verify(token)
	if err != nil {
		r.logger.Warn("token verification failed", "error", err)
		if r.allowGuest {
			return Identity{SubjectID: "guest", Email: "guest@error", IsGuest: true}, nil
		}
		return Identity{}, ErrUnauthorized
	}
	return ident, nil
}

func (r *Resolver) verify(token string) (Identity, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return r.secret, nil
	})
	if err != nil {
		return Identity{}, err
	}
	if !parsed.Valid {
		return Identity{}, fmt.Errorf("token invalid")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Identity{}, fmt.Errorf("token has no subject")
	}
	email, _ := claims["email"].(string)
	return Identity{SubjectID: sub, Email: email}, nil
}

func bearerToken(authorization string) string {
	authorization = strings.TrimSpace(authorization)
	if authorization == "" {
		return ""
	}
	parts := strings.SplitN(authorization, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
