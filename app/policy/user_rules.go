package policy

import (
	"github.com/google/uuid"

	"fiber/responta/app/model"
)

// UserTarget is the actor record an account-management action is aimed at.
// For creation it describes the account about to be created.
type UserTarget struct {
	ID      uuid.UUID
	Role    model.RoleKey
	DinasID *uint
	Active  bool
}

func UserTargetOf(u *model.User) *UserTarget {
	if u == nil {
		return nil
	}
	return &UserTarget{
		ID:      u.ID,
		Role:    u.Role.Key(),
		DinasID: u.DinasID,
		Active:  u.IsActive,
	}
}

type userClause func(actor model.Actor, t *UserTarget) bool

type userRule struct {
	deny  []userClause
	grant []userClause
}

func userRoleIn(keys ...model.RoleKey) userClause {
	set := roles(keys...)
	return func(actor model.Actor, _ *UserTarget) bool {
		return set.has(actor.Role)
	}
}

func isSelf(actor model.Actor, t *UserTarget) bool {
	return t != nil && t.ID == actor.ID
}

// manages is the level tiering: super_admin over everyone, admin_kota over lower levels,
// kepala_dinas over lower levels inside its own department.
func manages(actor model.Actor, t *UserTarget) bool {
	if t == nil {
		return false
	}
	switch actor.Role {
	case model.RoleSuperAdmin:
		return true
	case model.RoleAdminKota:
		return t.Role.Level() < actor.Role.Level()
	case model.RoleKepalaDinas:
		return eqUint(actor.DinasID, t.DinasID) && t.Role.Level() < actor.Role.Level()
	}
	return false
}

func createsDepartmentStaff(actor model.Actor, t *UserTarget) bool {
	if actor.Role != model.RoleKepalaDinas || t == nil {
		return false
	}
	if t.Role != model.RoleStafDinas && t.Role != model.RoleTeknisiLapangan {
		return false
	}
	return eqUint(actor.DinasID, t.DinasID)
}

func protectedSuperAdmin(actor model.Actor, t *UserTarget) bool {
	return t != nil && t.Role == model.RoleSuperAdmin && actor.Role != model.RoleSuperAdmin
}

func targetSuperAdmin(_ model.Actor, t *UserTarget) bool {
	return t != nil && t.Role == model.RoleSuperAdmin
}

var userRules = map[Action]userRule{
	ActionListUsers: {
		grant: []userClause{userRoleIn(model.RoleSuperAdmin, model.RoleAdminKota, model.RoleKepalaDinas)},
	},
	ActionViewUser: {
		grant: []userClause{isSelf, manages},
	},
	ActionUpdateUser: {
		grant: []userClause{isSelf, manages},
	},
	ActionCreateUser: {
		grant: []userClause{
			userRoleIn(model.RoleSuperAdmin),
			func(actor model.Actor, t *UserTarget) bool {
				return actor.Role == model.RoleAdminKota && manages(actor, t)
			},
			createsDepartmentStaff,
		},
	},
	ActionDeleteUser: {
		deny:  []userClause{isSelf, protectedSuperAdmin},
		grant: []userClause{manages},
	},
	ActionActivateUser: {
		deny:  []userClause{isSelf, protectedSuperAdmin},
		grant: []userClause{manages},
	},
	// No one deactivates a super_admin: other roles are below it and a super_admin may not do it to a peer.
	ActionDeactivateUser: {
		deny:  []userClause{isSelf, targetSuperAdmin},
		grant: []userClause{manages},
	},
}
