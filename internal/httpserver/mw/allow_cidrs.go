package mw

import (
	"net/http"

	"github.com/sorarelay/sorarelay/internal/logger"
	"github.com/sorarelay/sorarelay/internal/utils"
)

// AllowOnlyCIDRS allows only specific IPs/CIDRs. An empty list does NOT
// filter (passthrough). Used to keep the stats endpoint off the public
// surface without a full auth layer.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	m := utils.NewIPMatcher(allowed)
	if m.IsEmpty() {
		log.Debug("AllowOnlyCIDRS: empty matcher, passthrough mode")
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if !m.Allow(ip) {
				log.Debugf("AllowOnlyCIDRS: IP %s rejected", ip)
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
