package authz

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-min-32-chars-for-testing"

func TestIssueAndValidate(t *testing.T) {
	m := NewManager(testSecret, "meatstock")
	token, err := m.Issue(Identity{UserID: "u-1", Role: RoleStorekeeper, Verified: true}, time.Minute)
	require.NoError(t, err)

	id, err := m.Validate(token)
	require.NoError(t, err)
	require.Equal(t, "u-1", id.UserID)
	require.False(t, id.IsAdmin())
	require.NoError(t, id.Allowed())

	_, err = NewManager("another-secret-key-min-32-chars-xx", "meatstock").Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewManager(testSecret, "other").Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Issue(Identity{UserID: "u-1", Role: "owner"}, time.Minute)
	require.ErrorIs(t, err, ErrUnknownRole)
}

func TestValidateExpired(t *testing.T) {
	m := NewManager(testSecret, "")
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := m.Issue(Identity{UserID: "u-1", Role: RoleAdmin}, time.Minute)
	require.NoError(t, err)

	_, err = NewManager(testSecret, "").Validate(token)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestAuthenticate(t *testing.T) {
	m := NewManager(testSecret, "meatstock")
	mw := Middleware{Tokens: m}
	handler := mw.Authenticate(mw.RequireRole(RoleAdmin, RoleStorekeeper)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := FromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(id.UserID))
	})))

	issue := func(id Identity) string {
		token, err := m.Issue(id, time.Minute)
		require.NoError(t, err)
		return "Bearer " + token
	}

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong prefix", "Token abc", http.StatusUnauthorized},
		{"double space", "Bearer  abc", http.StatusUnauthorized},
		{"garbage", "Bearer invalid.token.here", http.StatusUnauthorized},
		{"disabled", issue(Identity{UserID: "u-2", Role: RoleAdmin, Disabled: true}), http.StatusForbidden},
		{"unverified storekeeper", issue(Identity{UserID: "u-3", Role: RoleStorekeeper}), http.StatusForbidden},
		{"unverified admin", issue(Identity{UserID: "u-4", Role: RoleAdmin}), http.StatusOK},
		{"verified storekeeper", issue(Identity{UserID: "u-5", Role: RoleStorekeeper, Verified: true}), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			require.Equal(t, tc.status, rr.Code)
		})
	}
}

func TestRequireRoleAdmin(t *testing.T) {
	mw := Middleware{}
	handler := mw.RequireRole(RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req.WithContext(WithIdentity(req.Context(), Identity{UserID: "u", Role: RoleStorekeeper, Verified: true})))
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req.WithContext(WithIdentity(req.Context(), Identity{UserID: "a", Role: RoleAdmin})))
	require.Equal(t, http.StatusNoContent, rr.Code)
}
