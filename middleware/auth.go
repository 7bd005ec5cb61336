package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"fiber/responta/app/model"
	"fiber/responta/app/repo"
	"fiber/responta/apperror"
	"fiber/responta/helper"
)

// AuthRequired resolves the bearer token to an Actor loaded fresh from the database,
// so role changes and deactivation apply to tokens already issued.
func AuthRequired(tokens repo.TokenRepository, users repo.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bearer := strings.TrimSpace(c.Get("Authorization"))
		if bearer == "" {
			return apperror.Respond(c, apperror.Unauthenticated(apperror.CodeTokenMissing, "Token tidak ditemukan"))
		}

		if len(bearer) < 7 || !strings.EqualFold(bearer[:7], "Bearer ") {
			return apperror.Respond(c, apperror.Unauthenticated(apperror.CodeTokenInvalid, "Format (Bearer) token tidak valid"))
		}
		token := strings.TrimSpace(bearer[7:])

		claims, err := helper.ValidateToken(token)
		if err != nil {
			return apperror.Respond(c, apperror.Unauthenticated(apperror.CodeTokenInvalid, "Token tidak valid"))
		}

		if claims.Type != helper.TokenAccess {
			return apperror.Respond(c, apperror.Unauthenticated(apperror.CodeTokenInvalid, "Tipe token tidak valid"))
		}

		if claims.UserID == uuid.Nil || claims.Username == "" {
			return apperror.Respond(c, apperror.Unauthenticated(apperror.CodeTokenInvalid, "Claim token tidak lengkap"))
		}

		listed, err := tokens.IsBlacklisted(c.UserContext(), token)
		if err != nil {
			return apperror.Respond(c, err)
		}
		if listed {
			return apperror.Respond(c, apperror.Unauthenticated(apperror.CodeTokenInvalid, "Token telah di blacklist"))
		}

		user, err := users.FindByID(c.UserContext(), claims.UserID)
		if err != nil {
			if apperror.Is(err, apperror.KindNotFound) {
				return apperror.Respond(c, apperror.Unauthenticated(apperror.CodeTokenInvalid, "User tidak ditemukan"))
			}
			return apperror.Respond(c, err)
		}

		actor := user.Actor()
		if !actor.Active {
			return apperror.Respond(c, apperror.New(apperror.KindForbidden, apperror.CodeAccountInactive, "Akun tidak aktif"))
		}
		if actor.Role == model.RoleUnknown {
			return apperror.Respond(c, apperror.Forbidden("Role akun tidak dikenal"))
		}

		helper.SetSession(c, actor, claims, token)
		return c.Next()
	}
}
