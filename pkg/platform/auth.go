package platform

import "net/http"

// APIKeyMiddleware enforces the X-API-Key header when INFRACALC_API_KEY is
// configured. With no key configured the check is skipped, which suits the
// single-user deployments this estimator targets.
func APIKeyMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := GetEnv("INFRACALC_API_KEY", "")
		if key == "" {
			next(w, r)
			return
		}
		if r.Header.Get("X-API-Key") != key {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
