package middleware

import (
	"encoding/json"
	"net/http"

	"recorder-notifier/internal/common/logging"
)

// Recovery converts handler panics into 500 responses instead of letting
// them kill the request goroutine. A 500 still signals the sender to retry,
// matching the delivery-failure contract.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logging.Error("Recovered from panic in request handler", nil,
					logging.Field{Key: "panic", Value: rec},
					logging.Field{Key: "method", Value: r.Method},
					logging.Field{Key: "path", Value: r.URL.Path},
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]string{"error": "internal error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
