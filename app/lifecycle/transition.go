// Package lifecycle is the complaint state machine and the append-only history it leaves behind.
//
//	baru ──verify──▶ diverifikasi ──status──▶ diproses ──status──▶ selesai
//	  └───reject──▶ ditolak
//
// Assignment, priority, progress and notes never move the status.
package lifecycle

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"fiber/responta/app/model"
	"fiber/responta/app/policy"
	"fiber/responta/apperror"
)

// Transition mutates a complaint in memory and describes the history row it produces.
// Apply must leave the complaint untouched when it returns an error.
type Transition interface {
	Action() policy.Action
	Apply(a *model.Aduan, actor uuid.UUID, now time.Time) (model.AduanHistory, error)
}

// Staff is the assignee information AssignStaff needs to validate membership.
type Staff struct {
	ID      uuid.UUID
	Role    model.RoleKey
	DinasID *uint
	Active  bool
}

func history(a *model.Aduan, action string, actor uuid.UUID, oldValue, newValue, notes string, now time.Time) model.AduanHistory {
	return model.AduanHistory{
		ID:        uuid.New(),
		AduanID:   a.ID,
		Action:    action,
		UserID:    actor,
		OldValue:  oldValue,
		NewValue:  newValue,
		Notes:     notes,
		CreatedAt: now,
	}
}

func requireStatus(a *model.Aduan, allowed ...model.AduanStatus) error {
	for _, s := range allowed {
		if a.Status == s {
			return nil
		}
	}
	return apperror.InvalidTransition(fmt.Sprintf("Aduan berstatus %s tidak dapat diproses dengan aksi ini", a.Status))
}

func uintString(v *uint) string {
	if v == nil {
		return ""
	}
	return strconv.FormatUint(uint64(*v), 10)
}

type Verify struct {
	Notes string
}

func (Verify) Action() policy.Action { return policy.ActionVerifyAduan }

func (t Verify) Apply(a *model.Aduan, actor uuid.UUID, now time.Time) (model.AduanHistory, error) {
	if err := requireStatus(a, model.StatusBaru); err != nil {
		return model.AduanHistory{}, err
	}
	old := a.Status
	a.Status = model.StatusDiverifikasi
	a.VerificationNotes = t.Notes
	a.VerifiedBy = &actor
	a.VerifiedAt = &now
	return history(a, "verify", actor, string(old), string(a.Status), t.Notes, now), nil
}

type Reject struct {
	Reason string
}

func (Reject) Action() policy.Action { return policy.ActionRejectAduan }

func (t Reject) Apply(a *model.Aduan, actor uuid.UUID, now time.Time) (model.AduanHistory, error) {
	if err := requireStatus(a, model.StatusBaru); err != nil {
		return model.AduanHistory{}, err
	}
	reason := strings.TrimSpace(t.Reason)
	if reason == "" {
		return model.AduanHistory{}, apperror.Validation("Alasan penolakan wajib diisi")
	}
	old := a.Status
	a.Status = model.StatusDitolak
	a.RejectionReason = reason
	a.RejectedAt = &now
	return history(a, "reject", actor, string(old), string(a.Status), reason, now), nil
}

type AssignDinas struct {
	DinasID uint
	Notes   string
}

func (AssignDinas) Action() policy.Action { return policy.ActionAssignDinas }

// Apply moves the complaint to a department. A department change drops the staff assignee,
// who belonged to the previous department.
func (t AssignDinas) Apply(a *model.Aduan, actor uuid.UUID, now time.Time) (model.AduanHistory, error) {
	if err := requireStatus(a, model.StatusDiverifikasi, model.StatusDiproses); err != nil {
		return model.AduanHistory{}, err
	}
	if t.DinasID == 0 {
		return model.AduanHistory{}, apperror.Validation("dinas_id wajib diisi")
	}
	if a.DinasID != nil && *a.DinasID == t.DinasID {
		return model.AduanHistory{}, apperror.Validation("Aduan sudah ditugaskan ke dinas tersebut")
	}
	old := uintString(a.DinasID)
	id := t.DinasID
	a.DinasID = &id
	a.StaffID = nil
	return history(a, "assign_dinas", actor, old, uintString(a.DinasID), t.Notes, now), nil
}

type AssignStaff struct {
	Staff Staff
	Notes string
}

func (AssignStaff) Action() policy.Action { return policy.ActionAssignStaff }

func (t AssignStaff) Apply(a *model.Aduan, actor uuid.UUID, now time.Time) (model.AduanHistory, error) {
	if err := requireStatus(a, model.StatusDiverifikasi, model.StatusDiproses); err != nil {
		return model.AduanHistory{}, err
	}
	if a.DinasID == nil {
		return model.AduanHistory{}, apperror.Validation("Aduan belum ditugaskan ke dinas")
	}
	s := t.Staff
	if s.Role != model.RoleStafDinas && s.Role != model.RoleTeknisiLapangan {
		return model.AduanHistory{}, apperror.Validation("Petugas harus berperan staf_dinas atau teknisi_lapangan")
	}
	if !s.Active {
		return model.AduanHistory{}, apperror.Validation("Petugas tidak aktif")
	}
	if s.DinasID == nil || *s.DinasID != *a.DinasID {
		return model.AduanHistory{}, apperror.Validation("Petugas bukan anggota dinas yang ditugaskan")
	}
	if a.StaffID != nil && *a.StaffID == s.ID {
		return model.AduanHistory{}, apperror.Validation("Aduan sudah ditugaskan ke petugas tersebut")
	}
	old := ""
	if a.StaffID != nil {
		old = a.StaffID.String()
	}
	id := s.ID
	a.StaffID = &id
	return history(a, "assign_staff", actor, old, id.String(), t.Notes, now), nil
}

type UpdateStatus struct {
	Status model.AduanStatus
	Notes  string
}

func (UpdateStatus) Action() policy.Action { return policy.ActionUpdateStatus }

func (t UpdateStatus) Apply(a *model.Aduan, actor uuid.UUID, now time.Time) (model.AduanHistory, error) {
	old := a.Status
	switch {
	case old == model.StatusDiverifikasi && t.Status == model.StatusDiproses:
		if a.DinasID == nil {
			return model.AduanHistory{}, apperror.New(apperror.KindInvalidState, apperror.CodeNotAssigned,
				"Aduan harus ditugaskan ke dinas sebelum diproses")
		}
		a.Status = model.StatusDiproses
		a.ProcessedAt = &now
	case old == model.StatusDiproses && t.Status == model.StatusSelesai:
		a.Status = model.StatusSelesai
		a.Progress = 100
		a.CompletedAt = &now
	default:
		return model.AduanHistory{}, apperror.InvalidTransition(
			fmt.Sprintf("Status tidak dapat diubah dari %s ke %s", old, t.Status))
	}
	return history(a, "update_status", actor, string(old), string(a.Status), t.Notes, now), nil
}

type UpdateProgress struct {
	Progress int
	Notes    string
}

func (UpdateProgress) Action() policy.Action { return policy.ActionUpdateProgress }

// Apply rejects out-of-range values instead of clamping them, and never lets progress go backwards.
func (t UpdateProgress) Apply(a *model.Aduan, actor uuid.UUID, now time.Time) (model.AduanHistory, error) {
	if err := requireStatus(a, model.StatusDiverifikasi, model.StatusDiproses); err != nil {
		return model.AduanHistory{}, err
	}
	if t.Progress < 0 || t.Progress > 100 {
		return model.AduanHistory{}, apperror.Validation("Progres harus di antara 0 dan 100")
	}
	if a.DinasID == nil {
		return model.AduanHistory{}, apperror.Validation("Progres hanya dapat diisi setelah aduan ditugaskan")
	}
	if t.Progress < a.Progress {
		return model.AduanHistory{}, apperror.Validation(
			fmt.Sprintf("Progres tidak boleh turun dari %d ke %d", a.Progress, t.Progress))
	}
	old := a.Progress
	a.Progress = t.Progress
	return history(a, "update_progress", actor, strconv.Itoa(old), strconv.Itoa(a.Progress), t.Notes, now), nil
}

type SetPriority struct {
	Priority model.Priority
	Notes    string
}

func (SetPriority) Action() policy.Action { return policy.ActionSetPriority }

func (t SetPriority) Apply(a *model.Aduan, actor uuid.UUID, now time.Time) (model.AduanHistory, error) {
	if a.Status.Terminal() {
		return model.AduanHistory{}, apperror.InvalidTransition("Prioritas tidak dapat diubah pada aduan yang sudah ditutup")
	}
	if _, err := model.ParsePriority(string(t.Priority)); err != nil {
		return model.AduanHistory{}, apperror.Validation("Prioritas tidak valid")
	}
	if a.Priority == t.Priority {
		return model.AduanHistory{}, apperror.Validation("Prioritas tidak berubah")
	}
	old := a.Priority
	a.Priority = t.Priority
	return history(a, "set_priority", actor, string(old), string(a.Priority), t.Notes, now), nil
}

type AddNote struct {
	Notes string
}

func (AddNote) Action() policy.Action { return policy.ActionAddNote }

func (t AddNote) Apply(a *model.Aduan, actor uuid.UUID, now time.Time) (model.AduanHistory, error) {
	if a.Status.Terminal() {
		return model.AduanHistory{}, apperror.InvalidTransition("Catatan tidak dapat ditambahkan pada aduan yang sudah ditutup")
	}
	notes := strings.TrimSpace(t.Notes)
	if notes == "" {
		return model.AduanHistory{}, apperror.Validation("Catatan wajib diisi")
	}
	old := a.AdminNotes
	a.AdminNotes = notes
	return history(a, "note", actor, old, notes, notes, now), nil
}
