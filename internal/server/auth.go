/**
 * API key authentication and per-key rate limiting
 *
 * Auth is optional: with no configured keys every request passes and
 * rate limiting keys off the remote address instead. Keys arrive as
 * "Authorization: Bearer <key>" or "X-API-Key: <key>".
 */

package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type authenticator struct {
	keys map[string]bool

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newAuthenticator(apiKeys []string, perHour int) *authenticator {
	keys := make(map[string]bool, len(apiKeys))
	for _, k := range apiKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys[k] = true
		}
	}

	a := &authenticator{
		keys:     keys,
		limiters: make(map[string]*rate.Limiter),
	}
	if perHour > 0 {
		a.limit = rate.Every(time.Hour / time.Duration(perHour))
		a.burst = perHour / 10
		if a.burst < 1 {
			a.burst = 1
		}
	}
	return a
}

// middleware applies auth then rate limiting. The health endpoint is
// always open so load balancers can probe without credentials.
func (a *authenticator) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		identity := remoteAddr(r)
		if len(a.keys) > 0 {
			key := extractKey(r)
			if key == "" {
				writeMessage(w, http.StatusUnauthorized, "error",
					"Authentication required. Provide an API key via 'Authorization: Bearer <key>' or 'X-API-Key: <key>'.")
				return
			}
			if !a.keys[key] {
				writeMessage(w, http.StatusUnauthorized, "error", "Invalid API key.")
				return
			}
			identity = key
		}

		if !a.allow(identity) {
			writeMessage(w, http.StatusTooManyRequests, "error", "Rate limit exceeded.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// allow consults the caller's token bucket; an unset limit admits all.
func (a *authenticator) allow(identity string) bool {
	if a.limit == 0 {
		return true
	}

	a.mu.Lock()
	limiter, ok := a.limiters[identity]
	if !ok {
		limiter = rate.NewLimiter(a.limit, a.burst)
		a.limiters[identity] = limiter
	}
	a.mu.Unlock()

	return limiter.Allow()
}

// extractKey pulls the API key from either supported header.
func extractKey(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

func remoteAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
