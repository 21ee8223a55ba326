// Package actor propagates the acting administrator's identity. The platform
// gateway authenticates admins upstream and forwards the opaque identifier in
// a header; the core records it on every audit entry but never validates it.
package actor

import (
	"net/http"
	"strings"

	dErrors "spisok/pkg/domain-errors"
	"spisok/pkg/platform/httputil"
	"spisok/pkg/requestcontext"
)

// Header carries the upstream-authenticated actor identifier.
const Header = "X-Actor-ID"

// Middleware stores the actor id in the context when present.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := strings.TrimSpace(r.Header.Get(Header)); id != "" {
			r = r.WithContext(requestcontext.WithActorID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// Require rejects requests that arrived without an actor identity. Mounted on
// every mutating route: an unattributable action must never reach the core.
func Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requestcontext.ActorID(r.Context()) == "" {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "X-Actor-ID header is required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
