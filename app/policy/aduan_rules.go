package policy

import (
	"github.com/google/uuid"

	"fiber/responta/app/model"
)

// AduanTarget is the slice of a complaint that rules look at.
type AduanTarget struct {
	OwnerID              uuid.UUID
	Status               model.AduanStatus
	DinasID              *uint
	StaffID              *uuid.UUID
	OrganizationID       *uint
	OrganizationParentID *uint
}

func TargetOf(a *model.Aduan) *AduanTarget {
	if a == nil {
		return nil
	}
	return &AduanTarget{
		OwnerID:              a.UserID,
		Status:               a.Status,
		DinasID:              a.DinasID,
		StaffID:              a.StaffID,
		OrganizationID:       a.OrganizationID,
		OrganizationParentID: a.OrganizationParentID,
	}
}

type roleSet uint32

func roles(keys ...model.RoleKey) roleSet {
	var s roleSet
	for _, k := range keys {
		s |= 1 << k
	}
	return s
}

func (s roleSet) has(k model.RoleKey) bool {
	return k != model.RoleUnknown && s&(1<<k) != 0
}

type clause func(actor model.Actor, t *AduanTarget) bool

func roleIn(keys ...model.RoleKey) clause {
	set := roles(keys...)
	return func(actor model.Actor, _ *AduanTarget) bool {
		return set.has(actor.Role)
	}
}

func anyActor(model.Actor, *AduanTarget) bool { return true }

func isOwner(actor model.Actor, t *AduanTarget) bool {
	return t != nil && t.OwnerID == actor.ID
}

func sameDinas(keys ...model.RoleKey) clause {
	set := roles(keys...)
	return func(actor model.Actor, t *AduanTarget) bool {
		return set.has(actor.Role) && t != nil && eqUint(t.DinasID, actor.DinasID)
	}
}

func assignedStaff(keys ...model.RoleKey) clause {
	set := roles(keys...)
	return func(actor model.Actor, t *AduanTarget) bool {
		return set.has(actor.Role) && isAssigned(actor, t)
	}
}

func isAssigned(actor model.Actor, t *AduanTarget) bool {
	return t != nil && t.StaffID != nil && *t.StaffID == actor.ID
}

// childOrg looks one level up only: a kecamatan sees its direct kelurahan children, never grandchildren.
func childOrg(keys ...model.RoleKey) clause {
	set := roles(keys...)
	return func(actor model.Actor, t *AduanTarget) bool {
		return set.has(actor.Role) && t != nil && eqUint(t.OrganizationParentID, actor.OrganizationID)
	}
}

func sameOrg(keys ...model.RoleKey) clause {
	set := roles(keys...)
	return func(actor model.Actor, t *AduanTarget) bool {
		return set.has(actor.Role) && t != nil && eqUint(t.OrganizationID, actor.OrganizationID)
	}
}

func allOf(cs ...clause) clause {
	return func(actor model.Actor, t *AduanTarget) bool {
		for _, c := range cs {
			if !c(actor, t) {
				return false
			}
		}
		return true
	}
}

func anyOf(cs ...clause) clause {
	return func(actor model.Actor, t *AduanTarget) bool {
		for _, c := range cs {
			if c(actor, t) {
				return true
			}
		}
		return false
	}
}

func eqUint(a, b *uint) bool {
	return a != nil && b != nil && *a == *b
}

var (
	cityAdmins = roleIn(model.RoleSuperAdmin, model.RoleAdminKota)
	adminRoles = roleIn(
		model.RoleSuperAdmin, model.RoleAdminKota, model.RoleKepalaDinas, model.RoleStafDinas,
		model.RoleCamat, model.RoleStafKecamatan, model.RoleLurah, model.RoleStafKelurahan,
		model.RoleVerifikator, model.RoleTeknisiLapangan,
	)
	viewClauses = []clause{
		cityAdmins,
		isOwner,
		roleIn(model.RoleVerifikator),
		sameDinas(model.RoleKepalaDinas),
		assignedStaff(model.RoleStafDinas, model.RoleTeknisiLapangan),
		childOrg(model.RoleCamat, model.RoleStafKecamatan),
		sameOrg(model.RoleLurah, model.RoleStafKelurahan),
	}
	departmentHead = sameDinas(model.RoleKepalaDinas)
)

// aduanRules is the capability table: the first clause that holds grants the action.
var aduanRules = map[Action][]clause{
	ActionListAduan:      {roleIn(model.RoleSuperAdmin, model.RoleAdminKota, model.RoleVerifikator)},
	ActionViewAduan:      viewClauses,
	ActionViewHistory:    viewClauses,
	ActionCreateAduan:    {anyActor},
	ActionUpdateAduan:    {isOwner},
	ActionDeleteAduan:    {isOwner},
	ActionVerifyAduan:    {roleIn(model.RoleSuperAdmin, model.RoleAdminKota, model.RoleVerifikator)},
	ActionRejectAduan:    {roleIn(model.RoleSuperAdmin, model.RoleAdminKota, model.RoleVerifikator)},
	ActionAssignDinas:    {cityAdmins},
	ActionAssignStaff:    {cityAdmins, departmentHead},
	ActionUpdateStatus:   {cityAdmins, departmentHead},
	ActionUpdateProgress: {isAssigned, departmentHead, cityAdmins},
	ActionSetPriority:    {roleIn(model.RoleSuperAdmin, model.RoleAdminKota, model.RoleCamat, model.RoleLurah)},
	ActionAddNote:        {allOf(adminRoles, anyOf(viewClauses...))},
}

type stateGate func(model.AduanStatus) bool

func statusIn(statuses ...model.AduanStatus) stateGate {
	return func(s model.AduanStatus) bool {
		for _, st := range statuses {
			if s == st {
				return true
			}
		}
		return false
	}
}

func nonTerminal(s model.AduanStatus) bool { return !s.Terminal() }

// stateGates hold for an actor who already passed aduanRules; failing one is a state error, not a permission error.
var stateGates = map[Action]stateGate{
	ActionUpdateAduan:    statusIn(model.StatusBaru),
	ActionDeleteAduan:    statusIn(model.StatusBaru),
	ActionVerifyAduan:    statusIn(model.StatusBaru),
	ActionRejectAduan:    statusIn(model.StatusBaru),
	ActionAssignDinas:    statusIn(model.StatusDiverifikasi, model.StatusDiproses),
	ActionAssignStaff:    statusIn(model.StatusDiverifikasi, model.StatusDiproses),
	ActionUpdateStatus:   statusIn(model.StatusDiverifikasi, model.StatusDiproses),
	ActionUpdateProgress: statusIn(model.StatusDiverifikasi, model.StatusDiproses),
	ActionSetPriority:    nonTerminal,
	ActionAddNote:        nonTerminal,
}
