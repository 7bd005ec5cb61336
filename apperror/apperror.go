// Package apperror carries the error taxonomy shared by the policy, lifecycle,
// repository and HTTP layers. Kinds map to HTTP statuses; Codes are stable strings
// for machine consumers; Messages are Indonesian and meant for people.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind uint8

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindForbidden
	KindInvalidState
	KindValidation
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindInvalidState:
		return "invalid_state_transition"
	case KindValidation:
		return "validation_error"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

func (k Kind) HTTPStatus() int {
	switch k {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidState, KindConflict:
		return http.StatusConflict
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Stable codes.
const (
	CodeTokenMissing       = "token_tidak_ada"
	CodeTokenInvalid       = "token_tidak_valid"
	CodeInvalidCredentials = "kredensial_salah"
	CodeAccountInactive    = "akun_nonaktif"
	CodeForbidden          = "akses_ditolak"
	CodeInvalidTransition  = "status_tidak_valid"
	CodeNotAssigned        = "belum_ditugaskan"
	CodeValidation         = "validasi_gagal"
	CodeInvalidInput       = "input_tidak_valid"
	CodeNotFound           = "tidak_ditemukan"
	CodeRowVersionConflict = "row_version_conflict"
	CodeDuplicate          = "data_duplikat"
	CodeUserReferenced     = "pengguna_masih_dipakai"
	CodeInternal           = "kesalahan_server"
)

var ErrRowVersionConflict = errors.New("row_version_conflict")

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Wrap(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

func Unauthenticated(code, message string) *Error {
	return New(KindUnauthenticated, code, message)
}

func Forbidden(message string) *Error {
	return New(KindForbidden, CodeForbidden, message)
}

func InvalidTransition(message string) *Error {
	return New(KindInvalidState, CodeInvalidTransition, message)
}

func Validation(message string) *Error {
	return New(KindValidation, CodeValidation, message)
}

func NotFound(message string) *Error {
	return New(KindNotFound, CodeNotFound, message)
}

func Internal(err error) *Error {
	return Wrap(KindInternal, CodeInternal, "Terjadi kesalahan pada server", err)
}

// KindOf reports the kind of err, treating foreign errors as internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	if errors.Is(err, ErrRowVersionConflict) {
		return KindConflict
	}
	return KindInternal
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
