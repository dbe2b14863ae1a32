package middleware

import (
	"net/http"

	id "certo/pkg/domain"
	"certo/pkg/requestcontext"
)

// Actor reads the authenticated user from the X-User-ID header and stamps the
// request context with it. The gateway in front of this service performs the
// actual authentication and is trusted to set the header; requests without it
// pass through unauthenticated and operations that need an actor reject them.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if userID, err := id.ParseUserID(r.Header.Get("X-User-ID")); err == nil {
			ctx = requestcontext.WithUserID(ctx, userID)
			ctx = requestcontext.WithActorID(ctx, userID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
