// Package policy decides who may do what to a complaint or an account.
// It is pure: no I/O, no mutation. Every mutating operation asks it first.
package policy

import (
	"github.com/google/uuid"

	"fiber/responta/app/model"
	"fiber/responta/apperror"
)

type Engine struct{}

func New() Engine {
	return Engine{}
}

// Check reports whether actor may perform action on target, state gates included.
func (e Engine) Check(actor model.Actor, action Action, target *AduanTarget) bool {
	return e.Authorize(actor, action, target) == nil
}

// Authorize is Check with a reason. Forbidden when no rule grants the action;
// InvalidStateTransition when a rule grants it but the complaint is in the wrong state.
func (e Engine) Authorize(actor model.Actor, action Action, target *AduanTarget) error {
	if !actor.Active {
		return errInactive
	}
	clauses, ok := aduanRules[action]
	if !ok {
		return errDenied
	}
	if target == nil && !action.targetless() {
		return errDenied
	}

	granted := false
	for _, c := range clauses {
		if c(actor, target) {
			granted = true
			break
		}
	}
	if !granted {
		return errDenied
	}

	if gate, ok := stateGates[action]; ok && !gate(target.Status) {
		return apperror.InvalidTransition("Aksi tidak dapat dilakukan pada aduan dengan status " + string(target.Status))
	}
	return nil
}

func (e Engine) CheckUser(actor model.Actor, action Action, target *UserTarget) bool {
	return e.AuthorizeUser(actor, action, target) == nil
}

func (e Engine) AuthorizeUser(actor model.Actor, action Action, target *UserTarget) error {
	if !actor.Active {
		return errInactive
	}
	rule, ok := userRules[action]
	if !ok {
		return errDenied
	}
	if target == nil && !action.targetless() {
		return errDenied
	}
	for _, d := range rule.deny {
		if d(actor, target) {
			return errDenied
		}
	}
	for _, g := range rule.grant {
		if g(actor, target) {
			return nil
		}
	}
	return errDenied
}

// Scope restricts a complaint listing. Zero-valued fields impose nothing;
// non-All scopes match complaints satisfying any populated field.
type Scope struct {
	All                  bool
	OwnerID              uuid.UUID
	DinasID              *uint
	StaffID              *uuid.UUID
	OrganizationID       *uint
	ParentOrganizationID *uint
}

// ListScope mirrors the view clauses so that a listing never shows what Check would hide.
func (e Engine) ListScope(actor model.Actor) (Scope, error) {
	if !actor.Active {
		return Scope{}, errInactive
	}
	if e.Check(actor, ActionListAduan, nil) {
		return Scope{All: true}, nil
	}

	scope := Scope{OwnerID: actor.ID}
	switch actor.Role {
	case model.RoleKepalaDinas:
		scope.DinasID = actor.DinasID
	case model.RoleStafDinas, model.RoleTeknisiLapangan:
		id := actor.ID
		scope.StaffID = &id
	case model.RoleCamat, model.RoleStafKecamatan:
		scope.ParentOrganizationID = actor.OrganizationID
	case model.RoleLurah, model.RoleStafKelurahan:
		scope.OrganizationID = actor.OrganizationID
	}
	return scope, nil
}

// UserListDinas returns the department a user listing is limited to, nil meaning unrestricted.
func (e Engine) UserListDinas(actor model.Actor) (*uint, error) {
	if err := e.AuthorizeUser(actor, ActionListUsers, nil); err != nil {
		return nil, err
	}
	if actor.Role == model.RoleKepalaDinas {
		return actor.DinasID, nil
	}
	return nil, nil
}

var (
	errInactive = apperror.New(apperror.KindForbidden, apperror.CodeAccountInactive, "Akun tidak aktif")
	errDenied   = apperror.Forbidden("Anda tidak memiliki akses untuk aksi ini")
)
