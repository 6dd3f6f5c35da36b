package summary

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/meridian-hq/meridian/internal/shared"
)

// InvalidateOnWrite bumps the summary cache after any successful mutating
// request so the next dashboard load rebuilds. Reads pass through untouched.
func InvalidateOnWrite(service *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if ww.Status() >= 200 && ww.Status() < 300 {
				service.Invalidate(r.Context(), shared.OwnerFromContext(r.Context()))
			}
		})
	}
}
