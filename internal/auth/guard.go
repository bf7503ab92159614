package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/inkwell-blog/inkwell/internal/platform/httpx"
	"github.com/inkwell-blog/inkwell/internal/shared"
)

// TokenVerifier checks identity tokens and yields their subject.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// IdentityResolver loads the identity record behind a user id.
type IdentityResolver interface {
	Identity(ctx context.Context, userID string) (*shared.Identity, error)
}

// RejectionRecorder counts requests turned away by the guard.
type RejectionRecorder interface {
	AuthRejected(reason string)
}

// Guard verifies bearer credentials and attaches the resolved identity to the request.
type Guard struct {
	tokens     TokenVerifier
	identities IdentityResolver
	logger     *slog.Logger
	recorder   RejectionRecorder
}

// NewGuard constructs a Guard. recorder may be nil.
func NewGuard(tokens TokenVerifier, identities IdentityResolver, logger *slog.Logger, recorder RejectionRecorder) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{tokens: tokens, identities: identities, logger: logger, recorder: recorder}
}

// Require blocks requests without a valid bearer token.
func (g *Guard) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			g.reject(w, "missing")
			return
		}
		userID, err := g.tokens.Verify(raw)
		if err != nil {
			g.reject(w, "invalid")
			return
		}
		identity, err := g.identities.Identity(r.Context(), userID)
		if err != nil {
			if errors.Is(err, shared.ErrUnauthenticated) {
				g.reject(w, "unknown_user")
				return
			}
			g.logger.Error("resolve identity", slog.String("user_id", userID), slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		ctx := shared.ContextWithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (g *Guard) reject(w http.ResponseWriter, reason string) {
	if g.recorder != nil {
		g.recorder.AuthRejected(reason)
	}
	w.Header().Set("WWW-Authenticate", `Bearer realm="inkwell"`)
	httpx.RespondError(w, shared.ErrUnauthenticated)
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	scheme, value, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}
