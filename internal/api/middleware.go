/**
 * @description
 * This file contains custom middleware for the HTTP router. The ledger service
 * sits behind the bank's internal gateway, so request authentication is a
 * shared-secret header check rather than end-user identity: the gateway
 * attaches the key, and anything without it is refused before reaching a
 * handler.
 *
 * @dependencies
 * - crypto/subtle, net/http: Standard Go libraries.
 */

package api

import (
	"crypto/subtle"
	"log"
	"net/http"
)

// InternalAPIKeyHeader is the header the gateway uses to present the shared key.
const InternalAPIKeyHeader = "X-Internal-Api-Key"

// InternalAuthMiddleware validates the shared internal API key on every
// request. An empty configured key disables the check, which is only
// acceptable for local development; a warning is logged once at startup.
func InternalAuthMiddleware(apiKey string) func(http.Handler) http.Handler {
	if apiKey == "" {
		log.Printf("level=warn component=api msg=\"internal API key not configured; requests are unauthenticated\"")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey != "" {
				presented := r.Header.Get(InternalAPIKeyHeader)
				if subtle.ConstantTimeCompare([]byte(presented), []byte(apiKey)) != 1 {
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
