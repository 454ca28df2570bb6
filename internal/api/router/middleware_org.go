package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

const maxOrgIDLength = 64

// requireOrgID rejects org path parameters that cannot name an org before
// any storage is touched.
func requireOrgID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !validOrgID(chi.URLParam(r, "orgID")) {
			http.Error(w, `{"error": "invalid org_id"}`, http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func validOrgID(id string) bool {
	if id == "" || len(id) > maxOrgIDLength {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
