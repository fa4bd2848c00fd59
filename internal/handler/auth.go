package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/MehvishSheikh/attendance-webapp/internal/apperror"
	"github.com/MehvishSheikh/attendance-webapp/internal/auth"
	"github.com/MehvishSheikh/attendance-webapp/internal/service"
)

// AuthHandler serves registration, login, logout and the current user.
//
// The credential is a JWT carried in an HttpOnly cookie. Handlers set and
// clear the cookie; AuthService never touches HTTP.
type AuthHandler struct {
	auth    *service.AuthService
	cookies auth.Cookies
	logger  *slog.Logger
}

// NewAuthHandler creates an AuthHandler. All dependencies are injected here;
// the handler has no knowledge of how they're constructed.
func NewAuthHandler(svc *service.AuthService, cookies auth.Cookies, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: svc, cookies: cookies, logger: logger}
}

// HandleRegister creates an account and signs the new user in.
//
// HTTP: POST /api/auth/register
// REQUEST BODY: {"name": "Alice", "email": "a@x.com", "password": "pw1"}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.auth.Register(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookies.Set(w, res.Token)
	writeJSON(w, http.StatusCreated, res.User)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin verifies credentials and sets the auth cookie.
//
// HTTP: POST /api/auth/login
// REQUEST BODY: {"email": "a@x.com", "password": "pw1"}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.auth.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookies.Set(w, res.Token)
	writeJSON(w, http.StatusOK, res.User)
}

// HandleLogout revokes the presented token, if any, and clears the cookie.
// It always succeeds, so calling it twice is harmless.
//
// HTTP: POST /api/auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if raw := auth.TokenFromRequest(r); raw != "" {
		if caller, err := h.auth.VerifyToken(r.Context(), raw); err == nil {
			if err := h.auth.Logout(r.Context(), caller); err != nil {
				h.logger.Error("logout: revoking token failed",
					slog.String("userID", caller.UserID),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	h.cookies.Clear(w)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logout successful"})
}

// HandleMe returns the currently logged-in user's profile.
//
// HTTP: GET /api/auth/me (also /api/auth/user)
// REQUIRES: Gate.RequireToken middleware. A token whose user was deleted
// gets 404 user_not_found and its cookie cleared.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated(apperror.CodeUnauthenticated, "authentication required"))
		return
	}

	user, err := h.auth.CurrentUser(r.Context(), caller)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			h.cookies.Clear(w)
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
