package helper

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"fiber/responta/apperror"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func FormatValidationErrors(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := e.Field()
		switch e.Tag() {
		case "required", "required_if":
			msgs = append(msgs, field+" wajib diisi")
		case "email":
			msgs = append(msgs, field+" harus email")
		case "min":
			msgs = append(msgs, field+" minimal "+e.Param()+" karakter")
		case "max":
			msgs = append(msgs, field+" maksimal "+e.Param()+" karakter")
		case "oneof":
			msgs = append(msgs, field+" harus salah satu: "+e.Param())
		case "gt":
			msgs = append(msgs, field+" harus lebih besar dari "+e.Param())
		case "latitude":
			msgs = append(msgs, field+" harus di antara -90 dan 90")
		case "longitude":
			msgs = append(msgs, field+" harus di antara -180 dan 180")
		default:
			msgs = append(msgs, field+" tidak valid")
		}
	}
	return strings.Join(msgs, "; ")
}

func ValidationFailed(err error) error {
	return apperror.Wrap(apperror.KindValidation, apperror.CodeValidation, "Validasi gagal", errors.New(FormatValidationErrors(err)))
}
