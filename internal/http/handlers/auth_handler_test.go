package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"research-cms-server/internal/config"
	"research-cms-server/internal/mail"
	"research-cms-server/internal/models"
	"research-cms-server/internal/repo"
	"research-cms-server/internal/services"
	"research-cms-server/internal/session"
)

type memoryUserStore struct {
	users map[int64]*models.User
}

func (m *memoryUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memoryUserStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *memoryUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	return err == nil, nil
}

func (m *memoryUserStore) Create(_ context.Context, email, name string, role models.Role, passwordHash string) (*models.User, error) {
	id := int64(len(m.users) + 1)
	user := &models.User{ID: id, Email: email, Name: name, Role: role, IsActive: true, PasswordHash: passwordHash}
	m.users[id] = user
	copied := *user
	return &copied, nil
}

func (m *memoryUserStore) SetResetToken(_ context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	user, ok := m.users[userID]
	if !ok {
		return repo.ErrNotFound
	}
	user.ResetTokenHash = &tokenHash
	user.ResetTokenExpiresAt = &expiresAt
	return nil
}

func (m *memoryUserStore) ConsumeResetToken(_ context.Context, tokenHash, newPasswordHash string) (bool, error) {
	for _, user := range m.users {
		if user.ResetTokenHash != nil && *user.ResetTokenHash == tokenHash && user.ResetTokenExpiresAt.After(time.Now()) {
			user.PasswordHash = newPasswordHash
			user.ResetTokenHash = nil
			user.ResetTokenExpiresAt = nil
			return true, nil
		}
	}
	return false, nil
}

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	router *gin.Engine
	codec  *session.Codec
	store  *memoryUserStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		PasswordMinLen: 4,
		ResetTokenTTL:  time.Hour,
		ResetURLBase:   "http://localhost:5173/admin/reset-password",
	}
	codec := session.NewCodec("test-secret", 24*time.Hour, false)
	store := &memoryUserStore{users: map[int64]*models.User{}}
	logger := newDiscardLogger()
	auth := services.NewAuthService(store, codec, mail.NewLogMailer(logger), cfg)

	authHandler := NewAuthHandler(auth, codec)
	meHandler := NewMeHandler(auth, codec)

	router := gin.New()
	group := router.Group("/api/auth")
	group.POST("/login", authHandler.Login)
	group.POST("/logout", authHandler.Logout)
	group.GET("/me", meHandler.GetMe)
	group.POST("/forgot-password", authHandler.ForgotPassword)
	group.POST("/reset-password", authHandler.ResetPassword)

	return &testEnv{router: router, codec: codec, store: store}
}

func (e *testEnv) addUser(t *testing.T, id int64, email, password string, role models.Role) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{ID: id, Email: email, Name: "Test User", Role: role, IsActive: true, PasswordHash: string(hash)}
	e.store.users[id] = user
	return user
}

func (e *testEnv) do(method, path, body, cookie string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: cookie})
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	res := rec.Result()
	for _, cookie := range res.Cookies() {
		if cookie.Name == session.CookieName {
			return cookie
		}
	}
	return nil
}

func TestLoginMissingFields(t *testing.T) {
	env := newTestEnv(t)

	for _, body := range []string{`{}`, `{"email":"a@x.com"}`, `{"password":"right"}`} {
		rec := env.do(http.MethodPost, "/api/auth/login", body, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
}

func TestLoginSetsSessionCookieForAdmin(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, 1, "a@x.com", "right", models.RoleAdmin)

	rec := env.do(http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"right"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	cookie := sessionCookie(t, rec)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, 86400, cookie.MaxAge)

	desc, err := env.codec.Decode(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, int64(1), desc.UserID)

	// The response body never includes hash or token material.
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), "reset_token")
}

func TestLoginViewerGets403AndNoCookie(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, 1, "v@x.com", "right", models.RoleViewer)

	rec := env.do(http.MethodPost, "/api/auth/login", `{"email":"v@x.com","password":"right"}`, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, sessionCookie(t, rec))
}

func TestLoginWrongPassword401(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, 1, "a@x.com", "right", models.RoleAdmin)

	rec := env.do(http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, sessionCookie(t, rec))
}

func TestLogoutAlwaysClearsCookie(t *testing.T) {
	env := newTestEnv(t)

	// Without a prior session.
	rec := env.do(http.MethodPost, "/api/auth/logout", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(t, rec)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 1)

	// And with one.
	value, err := env.codec.Encode(session.Descriptor{UserID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)
	rec = env.do(http.MethodPost, "/api/auth/logout", "", value)
	require.Equal(t, http.StatusOK, rec.Code)
	cookie = sessionCookie(t, rec)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
}

func TestMeEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, 1, "a@x.com", "right", models.RoleAdmin)

	// No cookie.
	rec := env.do(http.MethodGet, "/api/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Garbled cookie.
	rec = env.do(http.MethodGet, "/api/auth/me", "", "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Valid session, user present.
	value, err := env.codec.Encode(session.Descriptor{UserID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)
	rec = env.do(http.MethodGet, "/api/auth/me", "", value)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"a@x.com"`)
	assert.NotContains(t, rec.Body.String(), "password")

	// Valid session whose user row has vanished.
	ghost, err := env.codec.Encode(session.Descriptor{UserID: 99, Role: models.RoleAdmin})
	require.NoError(t, err)
	rec = env.do(http.MethodGet, "/api/auth/me", "", ghost)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestForgotPasswordMissingEmail(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/auth/forgot-password", `{}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestForgotPasswordUnknownEmailGenericSuccess(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/auth/forgot-password", `{"email":"nobody@x.com"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestResetPasswordMissingFieldsAndBadToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/auth/reset-password", `{"token":"abc"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/auth/reset-password", `{"token":"neverissued","new_password":"longenough"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_OR_EXPIRED_TOKEN")
}
