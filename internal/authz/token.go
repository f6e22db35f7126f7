// Package authz verifies bearer tokens issued by the account service and
// exposes the caller identity to handlers.
package authz

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Roles understood by the ledger.
const (
	RoleAdmin       = "admin"
	RoleStorekeeper = "storekeeper"
)

var (
	// ErrInvalidToken covers malformed, unsigned or mis-signed tokens.
	ErrInvalidToken = errors.New("authz: invalid token")
	// ErrExpiredToken indicates a token past its expiry.
	ErrExpiredToken = errors.New("authz: token expired")
	// ErrUnknownRole indicates a role outside admin/storekeeper.
	ErrUnknownRole = errors.New("authz: unknown role")
)

// Claims is the token payload. Subject carries the user id.
type Claims struct {
	Role     string `json:"role"`
	Verified bool   `json:"verified"`
	Disabled bool   `json:"disabled"`
	jwt.RegisteredClaims
}

// Identity is the verified caller.
type Identity struct {
	UserID   string
	Role     string
	Verified bool
	Disabled bool
}

// IsAdmin reports whether the caller holds the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Allowed reports whether the account may use the ledger at all.
func (i Identity) Allowed() error {
	if i.Disabled {
		return errors.New("User account is disabled")
	}
	if i.Role == RoleStorekeeper && !i.Verified {
		return errors.New("User not verified by admin")
	}
	return nil
}

// Manager signs and validates HS256 tokens.
type Manager struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewManager creates a token manager.
func NewManager(secret, issuer string) *Manager {
	return &Manager{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Issue signs a token for the identity valid for ttl.
func (m *Manager) Issue(id Identity, ttl time.Duration) (string, error) {
	if id.Role != RoleAdmin && id.Role != RoleStorekeeper {
		return "", fmt.Errorf("%w: %s", ErrUnknownRole, id.Role)
	}
	now := m.now()
	claims := Claims{
		Role:     id.Role,
		Verified: id.Verified,
		Disabled: id.Disabled,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Validate parses the token and returns the caller identity.
func (m *Manager) Validate(raw string) (Identity, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrExpiredToken
		}
		return Identity{}, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}
	if m.issuer != "" && !claims.VerifyIssuer(m.issuer, true) {
		return Identity{}, ErrInvalidToken
	}
	if claims.Role != RoleAdmin && claims.Role != RoleStorekeeper {
		return Identity{}, ErrUnknownRole
	}
	return Identity{
		UserID:   claims.Subject,
		Role:     claims.Role,
		Verified: claims.Verified,
		Disabled: claims.Disabled,
	}, nil
}
