package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"aceofspace-go/models"
	"aceofspace-go/services"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubAuthenticator struct {
	identity *models.Identity
	res      models.Result
}

func (s stubAuthenticator) Authenticate(ctx context.Context, accessToken string) (*models.Identity, models.Result) {
	return s.identity, s.res
}

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	if GetIdentityFromContext(r) == nil {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	w.WriteHeader(http.StatusOK)
})

func TestJWTAuth(t *testing.T) {
	admin := &models.Identity{ID: "1", Role: models.Role{Name: models.RoleAdmin}}
	tests := []struct {
		name   string
		header string
		auth   stubAuthenticator
		want   int
	}{
		{"missing header", "", stubAuthenticator{}, http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", stubAuthenticator{}, http.StatusUnauthorized},
		{"expired", "Bearer tok", stubAuthenticator{res: models.SessionExpired("", nil)}, http.StatusUnauthorized},
		{"invalid", "Bearer tok", stubAuthenticator{res: models.Fail(string(services.KindUnauthorized), "no", nil)}, http.StatusUnauthorized},
		{"valid", "Bearer tok", stubAuthenticator{identity: admin, res: models.Success("", nil)}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			NewAuth(tt.auth, zap.NewNop()).JWTAuth(ok).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestExpiredTokenReportsSessionExpired(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()

	NewAuth(stubAuthenticator{res: models.SessionExpired("Session expired, please login again", nil)}, zap.NewNop()).JWTAuth(ok).ServeHTTP(rec, req)
	assert.JSONEq(t, `{"status":2,"message":"Session expired, please login again","data":null}`, rec.Body.String())
}

func TestRequireRole(t *testing.T) {
	user := &models.Identity{ID: "2", Role: models.Role{Name: models.RoleUser}}
	auth := NewAuth(stubAuthenticator{identity: user, res: models.Success("", nil)}, zap.NewNop())
	handler := auth.JWTAuth(auth.RequireRole(models.RoleAdmin)(ok))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	auth.JWTAuth(auth.RequireRole(models.RoleAdmin, models.RoleUser)(ok)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	rec := httptest.NewRecorder()
	CORS(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
