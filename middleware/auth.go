package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"aceofspace-go/models"
	"aceofspace-go/services"

	"go.uber.org/zap"
)

type contextKey string

const IdentityContextKey contextKey = "identity"

// Authenticator resolves a bearer token into an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*models.Identity, models.Result)
}

type Auth struct {
	authenticator Authenticator
	logger        *zap.Logger
}

func NewAuth(authenticator Authenticator, log *zap.Logger) *Auth {
	return &Auth{authenticator: authenticator, logger: log.Named("http-auth")}
}

// JWTAuth requires a valid access token. An expired token is answered with
// the session-expired envelope so clients can re-authenticate.
func (a *Auth) JWTAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeResult(w, http.StatusUnauthorized, models.Fail(string(services.KindUnauthorized), "Authorization header missing", nil))
			return
		}

		bearerToken := strings.Split(authHeader, " ")
		if len(bearerToken) != 2 || bearerToken[0] != "Bearer" || bearerToken[1] == "" {
			writeResult(w, http.StatusUnauthorized, models.Fail(string(services.KindUnauthorized), "Invalid authorization header format", nil))
			return
		}

		identity, res := a.authenticator.Authenticate(r.Context(), bearerToken[1])
		if !res.OK() {
			a.logger.Debug("token rejected", zap.String("path", r.URL.Path), zap.String("reason", res.Message))
			writeResult(w, http.StatusUnauthorized, res)
			return
		}

		ctx := context.WithValue(r.Context(), IdentityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole admits only identities holding one of roles. It must run
// after JWTAuth.
func (a *Auth) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentityFromContext(r)
			if identity == nil {
				writeResult(w, http.StatusUnauthorized, models.Fail(string(services.KindUnauthorized), "Unauthorized - No user context", nil))
				return
			}
			for _, role := range roles {
				if identity.Role.Name == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			a.logger.Info("role check failed",
				zap.String("identity", identity.ID),
				zap.String("role", identity.Role.Name),
				zap.String("path", r.URL.Path))
			writeResult(w, http.StatusForbidden, models.Fail(string(services.KindUnauthorized), "Admin access required", nil))
		})
	}
}

func GetIdentityFromContext(r *http.Request) *models.Identity {
	if identity, ok := r.Context().Value(IdentityContextKey).(*models.Identity); ok {
		return identity
	}
	return nil
}

func writeResult(w http.ResponseWriter, status int, res models.Result) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(res)
}
