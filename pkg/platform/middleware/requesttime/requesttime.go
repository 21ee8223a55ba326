// Package requesttime pins one "now" per HTTP request. Every timestamp a
// single request produces (audit entry, entity update, event payload) comes
// from the same instant, so a slow handler never splits one action across
// two moments.
package requesttime

import (
	"net/http"
	"time"

	"spisok/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request and
// stores it in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
