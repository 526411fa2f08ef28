// Package authmw guards the classification API with a shared token.
package authmw

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// APIKeyHeader is accepted as an alternative to an Authorization bearer token.
const APIKeyHeader = "X-Api-Key"

// Token returns middleware that requires the request to carry token either
// as "Authorization: Bearer <token>" or in the X-Api-Key header. An empty
// token disables the check. Comparison is constant time.
func Token(token string) func(http.Handler) http.Handler {
	if token == "" {
		return func(next http.Handler) http.Handler { return next }
	}

	expected := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := credential(r)
			if !ok {
				deny(w, "missing or malformed credentials")
				return
			}
			if subtle.ConstantTimeCompare([]byte(got), expected) != 1 {
				deny(w, "invalid token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func credential(r *http.Request) (string, bool) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		tok, ok := strings.CutPrefix(auth, "Bearer ")
		return tok, ok && tok != ""
	}
	if key := r.Header.Get(APIKeyHeader); key != "" {
		return key, true
	}
	return "", false
}

func deny(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="urgency"`)
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
