package handler_test

import (
	"net/http"
	"regexp"
	"testing"

	"notemate/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authData struct {
	Token string `json:"token"`
	User  struct {
		ID    string     `json:"_id"`
		Email string     `json:"email"`
		Role  model.Role `json:"role"`
	} `json:"user"`
}

func registerUser(t *testing.T, f *fixture, email string) authData {
	t.Helper()
	var res authData
	decode(t, f.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Jane Doe", "email": email, "password": "password123",
	}, ""), http.StatusCreated, &res)
	return res
}

func TestRegisterEndpoint(t *testing.T) {
	f := newFixture(t)

	res := registerUser(t, f, "  Jane@Uni.EDU ")
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "jane@uni.edu", res.User.Email)
	assert.Equal(t, model.RoleStudent, res.User.Role)

	env := decode(t, f.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Jane Again", "email": "jane@uni.edu", "password": "password123",
	}, ""), http.StatusConflict, nil)
	assert.Equal(t, "User already exists", env.Message)

	env = decode(t, f.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "J", "email": "not-an-email", "password": "123",
	}, ""), http.StatusBadRequest, nil)
	assert.Equal(t, "Validation failed", env.Message)
	fields := map[string]bool{}
	for _, fe := range env.Errors {
		fields[fe.Field] = true
	}
	assert.Equal(t, map[string]bool{"name": true, "email": true, "password": true}, fields)

	decode(t, f.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Sneaky", "email": "root@uni.edu", "password": "password123", "role": "admin",
	}, ""), http.StatusBadRequest, nil)
}

func TestLoginMeLogout(t *testing.T) {
	f := newFixture(t)
	registerUser(t, f, "jane@uni.edu")

	decode(t, f.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "jane@uni.edu", "password": "wrong",
	}, ""), http.StatusUnauthorized, nil)

	var login authData
	decode(t, f.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "jane@uni.edu", "password": "password123",
	}, ""), http.StatusOK, &login)

	decode(t, f.do(t, http.MethodGet, "/api/auth/me", nil, ""), http.StatusUnauthorized, nil)

	var me struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	decode(t, f.do(t, http.MethodGet, "/api/auth/me", nil, login.Token), http.StatusOK, &me)
	assert.Equal(t, "jane@uni.edu", me.Email)
	assert.Empty(t, me.Password, "password hash is never serialized")

	decode(t, f.do(t, http.MethodPost, "/api/auth/logout", nil, login.Token), http.StatusOK, nil)
	env := decode(t, f.do(t, http.MethodGet, "/api/auth/me", nil, login.Token), http.StatusUnauthorized, nil)
	assert.Equal(t, "Token has been revoked", env.Message)
}

func TestProfileAndPasswordEndpoints(t *testing.T) {
	f := newFixture(t)
	res := registerUser(t, f, "jane@uni.edu")

	var me struct {
		University string `json:"university"`
	}
	decode(t, f.do(t, http.MethodPut, "/api/auth/profile", map[string]string{
		"university": "  State University ",
	}, res.Token), http.StatusOK, &me)
	assert.Equal(t, "State University", me.University)

	env := decode(t, f.do(t, http.MethodPut, "/api/auth/change-password", map[string]string{
		"currentPassword": "nope", "newPassword": "newpass456",
	}, res.Token), http.StatusUnauthorized, nil)
	assert.Equal(t, "Current password is incorrect", env.Message)

	decode(t, f.do(t, http.MethodPut, "/api/auth/change-password", map[string]string{
		"currentPassword": "password123", "newPassword": "newpass456",
	}, res.Token), http.StatusOK, nil)
	decode(t, f.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "jane@uni.edu", "password": "newpass456",
	}, ""), http.StatusOK, nil)
}

var resetLink = regexp.MustCompile(`/reset-password/([0-9a-f]{64})`)

func TestPasswordResetEndpoints(t *testing.T) {
	f := newFixture(t)
	registerUser(t, f, "jane@uni.edu")

	unknown := decode(t, f.do(t, http.MethodPost, "/api/auth/forgot-password", map[string]string{
		"email": "nobody@uni.edu",
	}, ""), http.StatusOK, nil)
	known := decode(t, f.do(t, http.MethodPost, "/api/auth/forgot-password", map[string]string{
		"email": "jane@uni.edu",
	}, ""), http.StatusOK, nil)
	assert.Equal(t, unknown.Message, known.Message, "responses do not reveal which emails exist")

	require.Len(t, f.mailer.sent, 1)
	match := resetLink.FindStringSubmatch(f.mailer.sent[0].Text)
	require.Len(t, match, 2)

	var res authData
	decode(t, f.do(t, http.MethodPut, "/api/auth/reset-password/"+match[1], map[string]string{
		"password": "brandnew789",
	}, ""), http.StatusOK, &res)
	assert.NotEmpty(t, res.Token)

	env := decode(t, f.do(t, http.MethodPut, "/api/auth/reset-password/"+match[1], map[string]string{
		"password": "another000",
	}, ""), http.StatusBadRequest, nil)
	assert.Equal(t, "Invalid or expired reset token", env.Message)
}

func TestTwoFactorEndpointsRequireAuth(t *testing.T) {
	f := newFixture(t)
	decode(t, f.do(t, http.MethodPost, "/api/auth/2fa/setup", nil, ""), http.StatusUnauthorized, nil)

	res := registerUser(t, f, "jane@uni.edu")
	var setup struct {
		Secret string `json:"secret"`
		URL    string `json:"otpauthUrl"`
		QRCode string `json:"qrCode"`
	}
	decode(t, f.do(t, http.MethodPost, "/api/auth/2fa/setup", nil, res.Token), http.StatusOK, &setup)
	assert.NotEmpty(t, setup.Secret)
	assert.Contains(t, setup.URL, "otpauth://totp/")
	assert.Contains(t, setup.QRCode, "data:image/png;base64,")

	decode(t, f.do(t, http.MethodPost, "/api/auth/2fa/enable", map[string]string{"code": "000000"}, res.Token), http.StatusBadRequest, nil)
}
