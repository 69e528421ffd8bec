package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/unidesk/registrar-api/internal/middleware"
	"github.com/unidesk/registrar-api/internal/models"
	"github.com/unidesk/registrar-api/internal/service"
)

type fakeUserStore struct {
	user *models.User
}

func (f *fakeUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.user != nil && f.user.Email == email {
		return f.user, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	if f.user != nil && f.user.ID == id {
		return f.user, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserStore) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func authTestService(t *testing.T) *service.AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret!"), bcrypt.MinCost)
	require.NoError(t, err)
	users := &fakeUserStore{user: &models.User{
		ID:           "u1",
		Email:        "advisor@unidesk.edu",
		PasswordHash: string(hash),
		Role:         "advisor",
		Active:       true,
	}}
	return service.NewAuthService(users, nil, nil, service.AuthConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
		Issuer:     "registrar-api",
	})
}

func postLogin(t *testing.T, h *AuthHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	h.Login(c)
	return rec
}

func TestAuthHandlerLogin(t *testing.T) {
	h := NewAuthHandler(authTestService(t))

	rec := postLogin(t, h, `{"email":"advisor@unidesk.edu","password":"s3cret!"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	var res models.LoginResponse
	require.NoError(t, json.Unmarshal(envelope.Data, &res))
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, "u1", res.User.ID)
}

func TestAuthHandlerLoginBadCredentials(t *testing.T) {
	h := NewAuthHandler(authTestService(t))

	rec := postLogin(t, h, `{"email":"advisor@unidesk.edu","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "INVALID_CREDENTIALS", envelope.Error["code"])
}

func TestJWTMiddleware(t *testing.T) {
	svc := authTestService(t)
	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "advisor@unidesk.edu", Password: "s3cret!"})
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.JWT(svc))
	r.GET("/probe", func(c *gin.Context) {
		claims := claimsFromContext(c)
		require.NotNil(t, claims)
		c.JSON(http.StatusOK, gin.H{"uid": claims.UserID})
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+res.AccessToken)
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/probe", nil)
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
