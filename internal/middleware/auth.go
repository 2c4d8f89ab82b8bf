package middleware

import (
	"net/http"
	"strings"

	"github.com/mobilewallet/bankd/internal/auth"
	"github.com/mobilewallet/bankd/internal/gateway"
)

func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				gateway.RespondAppError(w, gateway.ErrMissingToken)
				return
			}

			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				gateway.RespondAppError(w, gateway.ErrInvalidToken)
				return
			}

			claims, err := auth.ValidateToken(token, secret)
			if err != nil {
				gateway.RespondAppError(w, gateway.ErrInvalidToken)
				return
			}

			ctx := auth.ContextWithOperator(r.Context(), claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
