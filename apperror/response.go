package apperror

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"fiber/responta/app/model"
)

// Logger receives 5xx details. It is replaced by config.InitLogger at startup.
var Logger = logrus.StandardLogger()

// Respond writes err as the standard error envelope.
func Respond(c *fiber.Ctx, err error) error {
	var appErr *Error
	if !errors.As(err, &appErr) {
		if errors.Is(err, ErrRowVersionConflict) {
			appErr = New(KindConflict, CodeRowVersionConflict, "Aduan telah diubah oleh pengguna lain, muat ulang lalu coba lagi")
		} else {
			appErr = Internal(err)
		}
	}

	status := appErr.Kind.HTTPStatus()
	body := model.ErrorResponse{
		Success: false,
		Code:    appErr.Code,
		Message: appErr.Message,
	}

	if status >= fiber.StatusInternalServerError {
		Logger.WithFields(logrus.Fields{
			"status": status,
			"path":   c.Path(),
			"method": c.Method(),
			"error":  appErr.Error(),
		}).Error(appErr.Message)
	} else if appErr.Err != nil {
		body.Error = appErr.Err.Error()
	}

	return c.Status(status).JSON(body)
}

// Handler is installed as fiber.Config.ErrorHandler.
func Handler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code := CodeInvalidInput
		if fiberErr.Code == fiber.StatusNotFound {
			code = CodeNotFound
		} else if fiberErr.Code >= fiber.StatusInternalServerError {
			code = CodeInternal
		}
		return c.Status(fiberErr.Code).JSON(model.ErrorResponse{
			Success: false,
			Code:    code,
			Message: fiberErr.Message,
		})
	}
	return Respond(c, err)
}
