package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"qr-hunt-backend/internal/models"
	"qr-hunt-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(auth *services.AuthService) *gin.Engine {
	r := gin.New()
	ok := func(c *gin.Context) {
		id, _ := c.Get(ContextAdminID)
		c.JSON(http.StatusOK, gin.H{"id": id, "role": c.GetString(ContextRole)})
	}
	r.GET("/any", JWTAuth(auth), ok)
	r.GET("/super", JWTAuth(auth), RequireRole(models.RoleSuperAdmin), ok)
	r.GET("/ws", QueryTokenAuth(auth), ok)
	return r
}

func TestJWTAuth(t *testing.T) {
	auth := services.NewAuthService(nil, "secret")
	r := newRouter(auth)
	staff, err := auth.GenerateToken(uuid.New(), models.RoleStaff)
	require.NoError(t, err)
	super, err := auth.GenerateToken(uuid.New(), models.RoleSuperAdmin)
	require.NoError(t, err)

	tests := []struct {
		description string
		path        string
		header      string
		want        int
	}{
		{"no header", "/any", "", http.StatusUnauthorized},
		{"not bearer", "/any", "Basic abc", http.StatusUnauthorized},
		{"bad token", "/any", "Bearer nope", http.StatusUnauthorized},
		{"staff ok", "/any", "Bearer " + staff, http.StatusOK},
		{"staff on superadmin route", "/super", "Bearer " + staff, http.StatusForbidden},
		{"superadmin route", "/super", "Bearer " + super, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestQueryTokenAuth(t *testing.T) {
	auth := services.NewAuthService(nil, "secret")
	r := newRouter(auth)
	token, err := auth.GenerateToken(uuid.New(), models.RoleStaff)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"staff"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
