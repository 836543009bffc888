package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"notemate/middleware"
	"notemate/model"
	"notemate/services"
	"notemate/test/testutils"
	"notemate/usecase"
	"notemate/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type authFixture struct {
	db        *testutils.DB
	redis     *miniredis.Miniredis
	tokens    *services.TokenService
	blacklist *services.RedisTokenBlacklist
	auth      *middleware.Auth
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	mr, client := newRedis(t)
	db := testutils.NewDB()
	tokens := services.NewTokenService(testutils.TestSecret, time.Hour)
	blacklist := services.NewTokenBlacklist(client)
	users := usecase.NewAuthService(db.Users(), tokens, blacklist, nil, services.LogMailer{}, "")
	return &authFixture{
		db:        db,
		redis:     mr,
		tokens:    tokens,
		blacklist: blacklist,
		auth:      middleware.NewAuth(tokens, blacklist, users),
	}
}

func (f *authFixture) token(t *testing.T, u *model.User) string {
	t.Helper()
	token, err := f.tokens.Issue(u.ID, u.Role)
	require.NoError(t, err)
	return token
}

func whoami(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	if actor == nil {
		c.String(http.StatusOK, "anonymous")
		return
	}
	c.String(http.StatusOK, actor.ID.Hex())
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body utils.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body.Message
}

func TestProtect(t *testing.T) {
	f := newAuthFixture(t)
	jane := testutils.NewUser(t, f.db, "Jane Doe", model.RoleStudent, "")
	r := gin.New()
	r.GET("/me", f.auth.Protect(), whoami)

	w := do(r, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Not authorized, no token", message(t, w))

	w = do(r, http.MethodGet, "/me", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Not authorized, token failed", message(t, w))

	token := f.token(t, jane)
	w = do(r, http.MethodGet, "/me", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, jane.ID.Hex(), w.Body.String())

	claims, err := f.tokens.Parse(token)
	require.NoError(t, err)
	require.NoError(t, f.blacklist.Revoke(context.Background(), claims.ID, claims.ExpiresAt.Time))
	w = do(r, http.MethodGet, "/me", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token has been revoked", message(t, w))
}

func TestProtectRejectsDeactivatedUser(t *testing.T) {
	f := newAuthFixture(t)
	jane := testutils.NewUser(t, f.db, "Jane Doe", model.RoleStudent, "")
	token := f.token(t, jane)
	require.NoError(t, f.db.Users().SoftDelete(context.Background(), jane.ID))

	r := gin.New()
	r.GET("/me", f.auth.Protect(), whoami)
	w := do(r, http.MethodGet, "/me", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Not authorized, user not found", message(t, w))
}

func TestProtectFailsClosedWhenRedisIsDown(t *testing.T) {
	f := newAuthFixture(t)
	jane := testutils.NewUser(t, f.db, "Jane Doe", model.RoleStudent, "")
	token := f.token(t, jane)
	f.redis.Close()

	r := gin.New()
	r.GET("/me", f.auth.Protect(), whoami)
	assert.Equal(t, http.StatusInternalServerError, do(r, http.MethodGet, "/me", token).Code)
}

func TestOptionalAuth(t *testing.T) {
	f := newAuthFixture(t)
	jane := testutils.NewUser(t, f.db, "Jane Doe", model.RoleStudent, "")
	r := gin.New()
	r.GET("/notes", f.auth.Optional(), whoami)

	assert.Equal(t, "anonymous", do(r, http.MethodGet, "/notes", "").Body.String())
	assert.Equal(t, "anonymous", do(r, http.MethodGet, "/notes", "garbage").Body.String())
	assert.Equal(t, jane.ID.Hex(), do(r, http.MethodGet, "/notes", f.token(t, jane)).Body.String())
}

func TestRequireRole(t *testing.T) {
	f := newAuthFixture(t)
	student := testutils.NewUser(t, f.db, "Jane Doe", model.RoleStudent, "")
	teacher := testutils.NewUser(t, f.db, "Dr. John Smith", model.RoleTeacher, "")
	r := gin.New()
	r.POST("/subjects", f.auth.Protect(), middleware.RequireRole(model.RoleTeacher, model.RoleAdmin), whoami)

	w := do(r, http.MethodPost, "/subjects", f.token(t, student))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "User role student is not authorized to access this route", message(t, w))

	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/subjects", f.token(t, teacher)).Code)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(middleware.CORS([]string{"http://localhost:3000"}))
	r.GET("/api/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestSizeLimiter(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestSizeLimiter(8))
	r.POST("/echo", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("0123456789"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("0123"))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(middleware.SecurityHeaders(true))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	w := do(r, http.MethodGet, "/", "")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestRateLimiter(t *testing.T) {
	mr, client := newRedis(t)
	r := gin.New()
	r.Use(middleware.NewRateLimiter(client, 2, time.Minute).Handler())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/", "").Code)
	w := do(r, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = do(r, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/", "").Code, "window resets")
}

func TestRateLimiterRestoresMissingExpiry(t *testing.T) {
	mr, client := newRedis(t)
	r := gin.New()
	r.Use(middleware.NewRateLimiter(client, 2, time.Minute).Handler())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	key := "ratelimit:192.0.2.1"
	require.NoError(t, mr.Set(key, "7"))
	w := do(r, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, time.Minute, mr.TTL(key))

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/", "").Code)
}

func TestRateLimiterFailsOpen(t *testing.T) {
	mr, client := newRedis(t)
	mr.Close()
	r := gin.New()
	r.Use(middleware.NewRateLimiter(client, 1, time.Minute).Handler())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/", "").Code)
}

func TestRequestTracing(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestTracing(zerolog.Nop()))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(middleware.RequestIDKey)) })

	w := do(r, http.MethodGet, "/", "")
	id := w.Header().Get(middleware.RequestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, w.Body.String())

	inbound := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, inbound)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, inbound, w.Header().Get(middleware.RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(middleware.Recovery(false))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := do(r, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Server error", message(t, w))
}

func TestMetrics(t *testing.T) {
	r := gin.New()
	r.Use(middleware.Metrics())
	r.GET("/api/notes/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	counter := utils.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/notes/:id", "404")
	before := testutil.ToFloat64(counter)
	do(r, http.MethodGet, "/api/notes/abc", "")
	do(r, http.MethodGet, "/api/notes/def", "")
	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}
