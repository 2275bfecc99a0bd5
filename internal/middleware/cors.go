package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSPolicy decides which browser origins may call the API.
// An empty AllowedOrigins list admits any origin.
type CORSPolicy struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         time.Duration
}

// DefaultCORSPolicy returns the methods and headers the dashboard uses.
func DefaultCORSPolicy(origins ...string) CORSPolicy {
	return CORSPolicy{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         10 * time.Minute,
	}
}

func (p CORSPolicy) allows(origin string) bool {
	if len(p.AllowedOrigins) == 0 {
		return true
	}
	for _, o := range p.AllowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// Wrap applies the policy in front of next. Preflight requests are answered
// here and never reach next; a preflight from a rejected origin gets 403.
func (p CORSPolicy) Wrap(next http.Handler) http.Handler {
	methods := strings.Join(p.AllowedMethods, ", ")
	headers := strings.Join(p.AllowedHeaders, ", ")
	maxAge := strconv.Itoa(int(p.MaxAge.Seconds()))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowed := origin != "" && p.allows(origin)

		h := w.Header()
		h.Add("Vary", "Origin")
		if allowed {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			if !allowed {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			if p.MaxAge > 0 {
				h.Set("Access-Control-Max-Age", maxAge)
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// EnableCORS wraps next with the default policy for the given origins.
func EnableCORS(next http.Handler, origins ...string) http.Handler {
	return DefaultCORSPolicy(origins...).Wrap(next)
}
