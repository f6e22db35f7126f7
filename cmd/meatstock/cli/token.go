package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/odyssey-erp/meatstock/internal/authz"
)

// TokenIssuer signs bearer tokens.
type TokenIssuer interface {
	Issue(id authz.Identity, ttl time.Duration) (string, error)
}

// IssueToken prints a verified development token for user and role.
func IssueToken(w io.Writer, issuer TokenIssuer, user, role string, ttl time.Duration) error {
	if user == "" {
		return fmt.Errorf("token: user id required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	token, err := issuer.Issue(authz.Identity{UserID: user, Role: role, Verified: true}, ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, token)
	return err
}
