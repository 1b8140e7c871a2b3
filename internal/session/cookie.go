package session

import (
	"net/http"
	"time"
)

// CookieName is the HTTP-only cookie carrying the session token.
const CookieName = "token"

// SetCookie writes the session cookie. SameSite=None lets the portal front-end
// call the API cross-site; Secure is expected in production.
func SetCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteNoneMode,
		MaxAge:   int(ttl / time.Second),
	})
}

// ClearCookie expires the session cookie in the browser. The token itself stays valid until exp.
func ClearCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteNoneMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}
