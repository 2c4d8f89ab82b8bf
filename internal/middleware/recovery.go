package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/mobilewallet/bankd/internal/gateway"
	"github.com/mobilewallet/bankd/internal/logging"
)

func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log := logging.FromContext(r.Context())
				log.Error("panic recovered", "error", err, "stack", string(debug.Stack()))
				gateway.RespondAppError(w, gateway.ErrInternal)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
