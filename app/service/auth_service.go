package service

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"fiber/responta/app/model"
	"fiber/responta/app/repo"
	"fiber/responta/apperror"
	"fiber/responta/config"
	"fiber/responta/helper"
)

type AuthService struct {
	repo   repo.UserRepository
	tokens repo.TokenRepository
}

func NewAuthService(repo repo.UserRepository, tokens repo.TokenRepository) *AuthService {
	return &AuthService{repo: repo, tokens: tokens}
}

var errBadCredentials = apperror.Unauthenticated(apperror.CodeInvalidCredentials, "Username atau password salah")

// /api/v1/auth/login
func (s *AuthService) Login(c *fiber.Ctx) error {
	var req model.LoginRequest
	if err := helper.ParseBody(c, &req); err != nil {
		return apperror.Respond(c, err)
	}

	user, err := s.repo.FindByUsername(c.UserContext(), req.Username)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return apperror.Respond(c, errBadCredentials)
		}
		return apperror.Respond(c, err)
	}

	if !helper.CheckPasswordHash(req.Password, user.PasswordHash) {
		return apperror.Respond(c, errBadCredentials)
	}

	if !user.IsActive {
		return apperror.Respond(c, apperror.New(apperror.KindForbidden, apperror.CodeAccountInactive, "Akun tidak aktif"))
	}

	token, err := helper.GenerateToken(*user)
	if err != nil {
		return apperror.Respond(c, apperror.Internal(err))
	}

	refreshToken, err := helper.GenerateRefreshToken(*user)
	if err != nil {
		return apperror.Respond(c, apperror.Internal(err))
	}

	if err := s.repo.UpdateRefreshToken(c.UserContext(), user.ID, refreshToken); err != nil {
		return apperror.Respond(c, err)
	}

	config.Log.WithField("user_id", user.ID).Info("User logged in")

	return c.JSON(model.LoginSuccessResponse{
		Success: true,
		Message: "Login berhasil",
		Data: model.LoginResponse{
			User: model.LoginUser{
				ID:             user.ID.String(),
				Username:       user.Username,
				FullName:       user.FullName,
				Role:           user.Role.Name,
				OrganizationID: user.OrganizationID,
				DinasID:        user.DinasID,
			},
			Token:        token,
			RefreshToken: refreshToken,
		},
	})
}

// /api/v1/auth/refresh
func (s *AuthService) Refresh(c *fiber.Ctx) error {
	var req model.RefreshTokenRequest
	if err := helper.ParseBody(c, &req); err != nil {
		return apperror.Respond(c, err)
	}

	invalid := apperror.Unauthenticated(apperror.CodeTokenInvalid, "Refresh token tidak valid")

	claims, err := helper.ValidateToken(req.RefreshToken)
	if err != nil || claims.Type != helper.TokenRefresh {
		return apperror.Respond(c, invalid)
	}

	listed, err := s.tokens.IsBlacklisted(c.UserContext(), req.RefreshToken)
	if err != nil {
		return apperror.Respond(c, err)
	}
	if listed {
		return apperror.Respond(c, invalid)
	}

	user, err := s.repo.FindByID(c.UserContext(), claims.UserID)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return apperror.Respond(c, invalid)
		}
		return apperror.Respond(c, err)
	}

	if user.RefreshToken == "" || user.RefreshToken != req.RefreshToken {
		return apperror.Respond(c, invalid)
	}
	if !user.IsActive {
		return apperror.Respond(c, apperror.New(apperror.KindForbidden, apperror.CodeAccountInactive, "Akun tidak aktif"))
	}

	newToken, err := helper.GenerateToken(*user)
	if err != nil {
		return apperror.Respond(c, apperror.Internal(err))
	}

	return c.JSON(model.SuccessResponse[model.RefreshTokenResponse]{
		Success: true,
		Message: "Token diperbarui",
		Data: model.RefreshTokenResponse{
			Token: newToken,
		},
	})
}

// /api/v1/auth/logout
func (s *AuthService) Logout(c *fiber.Ctx) error {
	claims, token, ok := helper.ClaimsFrom(c)
	if !ok {
		return apperror.Respond(c, apperror.Unauthenticated(apperror.CodeTokenMissing, "Token tidak ditemukan"))
	}

	if err := s.tokens.AddBlacklistToken(c.UserContext(), model.BlacklistedToken{
		Token:     token,
		ExpiresAt: expiryOf(claims),
	}); err != nil {
		return apperror.Respond(c, err)
	}

	var req model.RefreshTokenRequest
	if err := c.BodyParser(&req); err == nil && req.RefreshToken != "" {
		if refreshClaims, err := helper.ValidateToken(req.RefreshToken); err == nil && refreshClaims.UserID == claims.UserID {
			if err := s.tokens.AddBlacklistToken(c.UserContext(), model.BlacklistedToken{
				Token:     req.RefreshToken,
				ExpiresAt: expiryOf(refreshClaims),
			}); err != nil {
				config.Log.WithError(err).Warn("Failed to blacklist refresh token")
			}
		}
	}

	if err := s.repo.UpdateRefreshToken(c.UserContext(), claims.UserID, ""); err != nil {
		config.Log.WithError(err).WithField("user_id", claims.UserID).Warn("Failed to clear refresh token")
	}

	return c.JSON(model.SuccessMessageResponse{
		Success: true,
		Message: "Logout berhasil",
	})
}

// /api/v1/auth/profile
func (s *AuthService) Profile(c *fiber.Ctx) error {
	actor, err := helper.ActorFrom(c)
	if err != nil {
		return apperror.Respond(c, err)
	}

	user, err := s.repo.FindByID(c.UserContext(), actor.ID)
	if err != nil {
		return apperror.Respond(c, err)
	}

	return c.JSON(model.ProfileResponse{
		Success: true,
		Data: model.ProfileData{
			UserID:         user.ID.String(),
			Username:       user.Username,
			FullName:       user.FullName,
			Role:           user.Role.Name,
			OrganizationID: user.OrganizationID,
			DinasID:        user.DinasID,
		},
	})
}

// expiryOf is how long a blacklist entry must be kept.
func expiryOf(claims *model.JWTClaims) time.Time {
	if claims.ExpiresAt == nil {
		return time.Now().Add(config.Env.RefreshTokenTTL)
	}
	return claims.ExpiresAt.Time
}
