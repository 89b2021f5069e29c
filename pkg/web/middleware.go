package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/geocat/catalogd/pkg/appstate"
	"github.com/geocat/catalogd/pkg/metrics"
	"github.com/sirupsen/logrus"
)

const (
	ServerTimeCookie    = "serverTime"
	SessionExpiryCookie = "sessionExpiry"
)

// ResolveUser reports whether the request belongs to an authenticated user.
// The default resolution is the Basic Auth username.
type ResolveUser func(r *http.Request) bool

func basicAuthUser(r *http.Request) bool {
	user, _, ok := r.BasicAuth()
	return ok && user != ""
}

// SessionTimeoutCookies lets the UI count down the remaining session time
// without polling the server (which would itself keep the session alive).
// Requests without the session cookie pass through untouched. Requests with
// it get two client-readable cookies in the response: serverTime (now, Unix
// millis) and sessionExpiry (now+timeout for authenticated users, now for
// anonymous ones so the UI treats the session as already expired).
func SessionTimeoutCookies(config Config, resolve ResolveUser) func(http.Handler) http.Handler {
	if resolve == nil {
		resolve = basicAuthUser
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := r.Cookie(config.SessionCookie); err == nil {
				now := time.Now()

				expiry := now
				if resolve(r) {
					expiry = now.Add(config.SessionTimeout())
				}

				// Not HttpOnly: the browser-side countdown reads these.
				http.SetCookie(w, &http.Cookie{
					Name:   ServerTimeCookie,
					Value:  strconv.FormatInt(now.UnixMilli(), 10),
					Path:   config.CookiePath(),
					Secure: config.SecureCookies,
				})
				http.SetCookie(w, &http.Cookie{
					Name:   SessionExpiryCookie,
					Value:  strconv.FormatInt(expiry.UnixMilli(), 10),
					Path:   config.CookiePath(),
					Secure: config.SecureCookies,
				})
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ReadOnlyGuard rejects mutating requests with 503 while the node is in
// read-only mode. Reads always pass.
func ReadOnlyGuard(state *appstate.State, logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
				if state.IsReadOnly() {
					logger.Debugf("Rejecting %s %s, node is in read-only mode", r.Method, r.URL.Path)
					metrics.WritesRejected.Inc()
					writeJSONError(w, http.StatusServiceUnavailable, "node is in read-only mode")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
