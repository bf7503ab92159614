package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inkwell-blog/inkwell/internal/shared"
)

type stubVerifier map[string]string

func (s stubVerifier) Verify(token string) (string, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return "", shared.ErrUnauthenticated
}

type stubResolver struct {
	identities map[string]shared.Identity
	err        error
}

func (s stubResolver) Identity(ctx context.Context, userID string) (*shared.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	id, ok := s.identities[userID]
	if !ok {
		return nil, shared.ErrUnauthenticated
	}
	return &id, nil
}

type countingRecorder map[string]int

func (c countingRecorder) AuthRejected(reason string) { c[reason]++ }

func newGuardFixture(resolver stubResolver) (*Guard, countingRecorder) {
	recorder := countingRecorder{}
	guard := NewGuard(stubVerifier{"good": "u1", "orphan": "u2"}, resolver, nil, recorder)
	return guard, recorder
}

func serveGuarded(guard *Guard, header string) (*httptest.ResponseRecorder, *shared.Identity) {
	var seen *shared.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = shared.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rr := httptest.NewRecorder()
	guard.Require(next).ServeHTTP(rr, req)
	return rr, seen
}

func TestGuardRejectsMissingCredential(t *testing.T) {
	guard, recorder := newGuardFixture(stubResolver{})
	rr, seen := serveGuarded(guard, "")
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Nil(t, seen)
	require.Equal(t, 1, recorder["missing"])
	require.Contains(t, rr.Header().Get("WWW-Authenticate"), "Bearer")
}

func TestGuardRejectsMalformedHeader(t *testing.T) {
	guard, _ := newGuardFixture(stubResolver{})
	for _, header := range []string{"good", "Basic good", "Bearer", "Bearer    "} {
		rr, seen := serveGuarded(guard, header)
		require.Equal(t, http.StatusUnauthorized, rr.Code, "header %q", header)
		require.Nil(t, seen)
	}
}

func TestGuardRejectsInvalidToken(t *testing.T) {
	guard, recorder := newGuardFixture(stubResolver{})
	rr, _ := serveGuarded(guard, "Bearer forged")
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, 1, recorder["invalid"])
}

func TestGuardRejectsUnknownSubject(t *testing.T) {
	guard, recorder := newGuardFixture(stubResolver{identities: map[string]shared.Identity{
		"u1": {UserID: "u1", Name: "Ann", Email: "ann@x.com"},
	}})
	rr, _ := serveGuarded(guard, "Bearer orphan")
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, 1, recorder["unknown_user"])
}

func TestGuardAttachesIdentity(t *testing.T) {
	guard, _ := newGuardFixture(stubResolver{identities: map[string]shared.Identity{
		"u1": {UserID: "u1", Name: "Ann", Email: "ann@x.com"},
	}})
	rr, seen := serveGuarded(guard, "bearer good")
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.NotNil(t, seen)
	require.Equal(t, "ann@x.com", seen.Email)
	require.Equal(t, "Ann", seen.Name)
}

func TestGuardStoreFailureIsInternal(t *testing.T) {
	guard, _ := newGuardFixture(stubResolver{err: errors.New("db down")})
	rr, seen := serveGuarded(guard, "Bearer good")
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Nil(t, seen)
}
