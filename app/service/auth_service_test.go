package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiber/responta/app/model"
	"fiber/responta/apperror"
	"fiber/responta/helper"
	"fiber/responta/middleware"
)

func newAuthApp(t *testing.T, users *memUserRepo, tokens *memTokenRepo) *fiber.App {
	t.Helper()
	setTestSecrets()
	svc := NewAuthService(users, tokens)

	app := newTestApp()
	app.Post("/auth/login", svc.Login)
	app.Post("/auth/refresh", svc.Refresh)
	protected := app.Group("", middleware.AuthRequired(tokens, users))
	protected.Post("/auth/logout", svc.Logout)
	protected.Get("/auth/profile", svc.Profile)
	return app
}

func userWithPassword(t *testing.T, username string, role model.RoleKey, active bool) model.User {
	t.Helper()
	hash, err := helper.HashPassword("rahasia123")
	require.NoError(t, err)
	return model.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        username + "@kota.go.id",
		FullName:     "Nama " + username,
		PasswordHash: hash,
		Role:         roleOf(role),
		IsActive:     active,
	}
}

func bearer(method, path, token string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestLoginFlow(t *testing.T) {
	lurah := userWithPassword(t, "lurah1", model.RoleLurah, true)
	users, tokens := newMemUserRepo(lurah), newMemTokenRepo()
	app := newAuthApp(t, users, tokens)

	resp := send(t, app, http.MethodPost, "/auth/login", model.LoginRequest{Username: "lurah1", Password: "salah"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, apperror.CodeInvalidCredentials, errorCode(t, resp))

	resp = send(t, app, http.MethodPost, "/auth/login", model.LoginRequest{Username: "tidakada", Password: "rahasia123"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = send(t, app, http.MethodPost, "/auth/login", model.LoginRequest{Username: "lurah1", Password: "rahasia123"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	login := decode[model.LoginSuccessResponse](t, resp)
	assert.Equal(t, "lurah", login.Data.User.Role)
	assert.NotEmpty(t, login.Data.Token)
	assert.Equal(t, login.Data.RefreshToken, users.users[lurah.ID].RefreshToken)

	resp, err := app.Test(bearer(http.MethodGet, "/auth/profile", login.Data.Token), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	profile := decode[model.ProfileResponse](t, resp)
	assert.Equal(t, lurah.ID.String(), profile.Data.UserID)

	resp = send(t, app, http.MethodPost, "/auth/refresh", model.RefreshTokenRequest{RefreshToken: login.Data.RefreshToken})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(bearer(http.MethodPost, "/auth/logout", login.Data.Token), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, users.users[lurah.ID].RefreshToken)

	resp, err = app.Test(bearer(http.MethodGet, "/auth/profile", login.Data.Token), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = send(t, app, http.MethodPost, "/auth/refresh", model.RefreshTokenRequest{RefreshToken: login.Data.RefreshToken})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestLoginInactiveAccount(t *testing.T) {
	staff := userWithPassword(t, "staf1", model.RoleStafDinas, false)
	app := newAuthApp(t, newMemUserRepo(staff), newMemTokenRepo())

	resp := send(t, app, http.MethodPost, "/auth/login", model.LoginRequest{Username: "staf1", Password: "rahasia123"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, apperror.CodeAccountInactive, errorCode(t, resp))
}

func TestDeactivatedAccountLosesAccess(t *testing.T) {
	staff := userWithPassword(t, "staf2", model.RoleStafDinas, true)
	users := newMemUserRepo(staff)
	app := newAuthApp(t, users, newMemTokenRepo())

	token, err := helper.GenerateToken(staff)
	require.NoError(t, err)
	require.NoError(t, users.SetActive(context.Background(), staff.ID, false))

	resp, err := app.Test(bearer(http.MethodGet, "/auth/profile", token), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, apperror.CodeAccountInactive, errorCode(t, resp))
}

func TestAuthMiddlewareRejectsBadTokens(t *testing.T) {
	u := userWithPassword(t, "camat1", model.RoleCamat, true)
	app := newAuthApp(t, newMemUserRepo(u), newMemTokenRepo())

	refresh, err := helper.GenerateRefreshToken(u)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing", "", apperror.CodeTokenMissing},
		{"not bearer", "Basic abc", apperror.CodeTokenInvalid},
		{"garbage", "Bearer abc.def.ghi", apperror.CodeTokenInvalid},
		{"refresh token", "Bearer " + refresh, apperror.CodeTokenInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, tt.code, errorCode(t, resp))
		})
	}

	resp := send(t, app, http.MethodPost, "/auth/refresh", model.RefreshTokenRequest{RefreshToken: strings.Repeat("x", 20)})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
