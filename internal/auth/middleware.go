package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/MehvishSheikh/attendance-webapp/internal/apperror"
)

// contextKey is an unexported type used for context keys in this package, so
// no other package can read or shadow the Caller value.
type contextKey string

const callerKey contextKey = "caller"

// Caller is the identity resolved from a request's credential.
//
// IsAdmin is only meaningful after RequireUser has run; RequireToken alone
// knows nothing beyond what the token says.
type Caller struct {
	UserID    string
	IsAdmin   bool
	TokenID   string
	ExpiresAt time.Time
}

// Verifier turns a raw token into a Caller and, optionally, checks the
// Caller against the user store.
//
// service.AuthService implements it.
type Verifier interface {
	// VerifyToken validates signature, expiry and the logout denylist.
	VerifyToken(ctx context.Context, raw string) (Caller, error)
	// ResolveCaller loads the user behind c and fills IsAdmin. It returns an
	// apperror.ErrNotFound error if the user no longer exists.
	ResolveCaller(ctx context.Context, c Caller) (Caller, error)
}

// Gate is the authentication middleware set.
type Gate struct {
	verifier Verifier
	cookies  Cookies
}

// NewGate creates a Gate backed by verifier. cookies is used to clear a
// lingering credential when its user has been deleted.
func NewGate(verifier Verifier, cookies Cookies) *Gate {
	return &Gate{verifier: verifier, cookies: cookies}
}

// RequireToken rejects the request with 401 unless it carries a valid,
// unrevoked token. The resulting Caller has UserID and TokenID set.
func (g *Gate) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := TokenFromRequest(r)
		if raw == "" {
			writeUnauthorized(w, "authentication required")
			return
		}

		caller, err := g.verifier.VerifyToken(r.Context(), raw)
		if err != nil {
			writeUnauthorized(w, "valid authentication required")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

// RequireUser is RequireToken plus a user lookup, so handlers see a Caller
// whose IsAdmin flag reflects the stored user. A token whose user was
// deleted has its cookie cleared and gets 401.
func (g *Gate) RequireUser(next http.Handler) http.Handler {
	return g.RequireToken(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, _ := CallerFromContext(r.Context())

		resolved, err := g.verifier.ResolveCaller(r.Context(), caller)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				g.cookies.Clear(w)
			}
			writeUnauthorized(w, "valid authentication required")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), resolved)))
	}))
}

// WithCaller returns a copy of ctx carrying c.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey, c)
}

// CallerFromContext retrieves the authenticated Caller from the request context.
//
// Returns (Caller{}, false) if the request is anonymous.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey).(Caller)
	return c, ok && c.UserID != ""
}

// TokenFromRequest returns the raw token from the auth cookie or, failing
// that, from an "Authorization: Bearer" header. It returns "" if neither is set.
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if h := r.Header.Get("Authorization"); h != "" {
		const prefix = "Bearer "
		if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
			return strings.TrimSpace(h[len(prefix):])
		}
	}
	return ""
}

// unauthorizedBody matches handler.ErrorResponse; auth cannot import handler.
type unauthorizedBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(unauthorizedBody{
		Error:   apperror.CodeUnauthenticated,
		Message: message,
	})
}
