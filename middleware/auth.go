package middleware

import (
	"log"
	"net/http"
	"strings"

	"vitrine-checkout-api/services/auth"
	"vitrine-checkout-api/utils"
)

// InternalAuthMiddleware protege os endpoints /api/internal/*. O caller
// troca o segredo compartilhado por um token de curta duração e manda
// aqui como Bearer.
func InternalAuthMiddleware(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				log.Printf("Missing Authorization header from %s", r.RemoteAddr)
				utils.SendErrorResponse(w, http.StatusUnauthorized, "Missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Printf("Invalid Authorization header format from %s", r.RemoteAddr)
				utils.SendErrorResponse(w, http.StatusUnauthorized, "Invalid authorization header format")
				return
			}

			claims, err := jwtService.ValidateToken(parts[1])
			if err != nil {
				log.Printf("Token validation failed from %s: %v", r.RemoteAddr, err)

				var message string
				switch err {
				case auth.ErrTokenExpired:
					message = "Token expired"
				case auth.ErrInvalidToken:
					message = "Invalid token"
				default:
					message = "Authentication failed"
				}

				utils.SendErrorResponse(w, http.StatusUnauthorized, message)
				return
			}

			if claims.Scope != "internal" {
				log.Printf("Token with scope %q rejected for internal endpoint", claims.Scope)
				utils.SendErrorResponse(w, http.StatusForbidden, "Insufficient scope")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
