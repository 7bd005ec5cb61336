package helper

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"fiber/responta/app/model"
	"fiber/responta/apperror"
)

const (
	localActor  = "actor"
	localClaims = "claims"
	localToken  = "token"
)

func SetSession(c *fiber.Ctx, actor model.Actor, claims *model.JWTClaims, token string) {
	c.Locals(localActor, actor)
	c.Locals(localClaims, claims)
	c.Locals(localToken, token)
}

// ActorFrom returns the actor the auth middleware resolved for this request.
func ActorFrom(c *fiber.Ctx) (model.Actor, error) {
	actor, ok := c.Locals(localActor).(model.Actor)
	if !ok {
		return model.Actor{}, apperror.Unauthenticated(apperror.CodeTokenMissing, "Sesi tidak ditemukan")
	}
	return actor, nil
}

func ClaimsFrom(c *fiber.Ctx) (*model.JWTClaims, string, bool) {
	claims, ok := c.Locals(localClaims).(*model.JWTClaims)
	if !ok || claims == nil {
		return nil, "", false
	}
	token, _ := c.Locals(localToken).(string)
	return claims, token, true
}

func ParamUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperror.Wrap(apperror.KindValidation, apperror.CodeInvalidInput, name+" tidak valid", err)
	}
	return id, nil
}

// ParseBody decodes and validates the request body in one step.
func ParseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return apperror.Wrap(apperror.KindValidation, apperror.CodeInvalidInput, "Input tidak valid", err)
	}
	if err := ValidateStruct(dst); err != nil {
		return ValidationFailed(err)
	}
	return nil
}
