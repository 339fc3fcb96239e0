// Package auth verifies externally issued bearer tokens. It never mints
// tokens for production use; NewToken exists for tests and local tooling.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/rideshare/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const DefaultAudience = "authenticated"

type Identity struct {
	UserID    uuid.UUID
	Email     string
	Role      domain.Role
	ExpiresAt time.Time
}

func (i Identity) IsDriver() bool { return i.Role == domain.RoleDriver }

type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewVerifier(secret, audience string) *Verifier {
	if audience == "" {
		audience = DefaultAudience
	}
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithAudience(audience),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(5*time.Second),
		),
	}
}

// Verify checks signature, audience and expiry and returns the identity
// carried by the token. Every failure is reported as Unauthenticated.
func (v *Verifier) Verify(raw string) (Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identity{}, domain.ErrUnauthenticated
	}

	var claims Claims
	_, err := v.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return Identity{}, domain.Unauthenticated(err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, domain.Unauthenticated(fmt.Errorf("subject is not a uuid: %w", err))
	}

	id := Identity{
		UserID: userID,
		Email:  claims.Email,
		Role:   domain.RoleRider,
	}
	if claims.Role == string(domain.RoleDriver) {
		id.Role = domain.RoleDriver
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errors.New("authorization header must be a bearer token")
	}
	return strings.TrimSpace(parts[1]), nil
}

// NewToken signs an HS256 token with the given identity.
func NewToken(secret, audience string, id Identity) (string, error) {
	if audience == "" {
		audience = DefaultAudience
	}
	claims := Claims{
		Email: id.Email,
		Role:  string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID.String(),
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(id.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
