// Package requestid assigns each request a correlation id, honoring one
// supplied by the caller so gateway hops keep a single trace.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"spisok/pkg/requestcontext"
)

// Header carries the correlation id on requests and responses.
const Header = "X-Request-ID"

// Middleware stores the request id in the context and echoes it on the
// response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		ctx := requestcontext.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
