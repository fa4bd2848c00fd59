package auth

import (
	"net/http"
	"time"
)

// CookieName is the HttpOnly cookie that carries the access token.
const CookieName = "token"

// Cookies writes and clears the auth cookie.
//
// HttpOnly = JavaScript cannot read this cookie (XSS protection).
// SameSite=Lax = cookie is sent on top-level navigations but not cross-site POSTs.
// Secure should be true in production (HTTPS only).
type Cookies struct {
	Secure bool
}

// Set stores tok in the auth cookie with a lifetime matching the token's expiry.
func (c Cookies) Set(w http.ResponseWriter, tok *IssuedToken) {
	maxAge := int(time.Until(tok.ExpiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    tok.Value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear tells the browser to delete the auth cookie immediately.
func (c Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
