package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"fiber/responta/app/model"
	"fiber/responta/app/policy"
	"fiber/responta/apperror"
)

// Repository persists a complaint together with the history row of the transition
// that changed it. SaveTransition must be atomic and must fail with
// apperror.ErrRowVersionConflict when the stored row_version differs from expectedVersion.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Aduan, error)
	SaveTransition(ctx context.Context, a *model.Aduan, expectedVersion int64, h model.AduanHistory) error
	ListHistory(ctx context.Context, id uuid.UUID) ([]model.AduanHistory, error)
}

type StaffFinder interface {
	FindStaff(ctx context.Context, id uuid.UUID) (*Staff, error)
}

type DinasFinder interface {
	DinasExists(ctx context.Context, id uint) (bool, error)
}

type Authorizer interface {
	Authorize(actor model.Actor, action policy.Action, target *policy.AduanTarget) error
}

type Manager struct {
	repo    Repository
	staff   StaffFinder
	dinas   DinasFinder
	policy  Authorizer
	metrics *Metrics
	Now     func() time.Time
}

func NewManager(repo Repository, staff StaffFinder, dinas DinasFinder, authz Authorizer, metrics *Metrics) *Manager {
	return &Manager{
		repo:    repo,
		staff:   staff,
		dinas:   dinas,
		policy:  authz,
		metrics: metrics,
		Now:     time.Now,
	}
}

// Get loads a complaint the actor is allowed to see.
func (m *Manager) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Aduan, error) {
	a, err := m.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := m.policy.Authorize(actor, policy.ActionViewAduan, policy.TargetOf(a)); err != nil {
		return nil, err
	}
	return a, nil
}

func (m *Manager) History(ctx context.Context, actor model.Actor, id uuid.UUID) ([]model.AduanHistory, error) {
	a, err := m.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := m.policy.Authorize(actor, policy.ActionViewHistory, policy.TargetOf(a)); err != nil {
		return nil, err
	}
	return m.repo.ListHistory(ctx, id)
}

func (m *Manager) Verify(ctx context.Context, actor model.Actor, id uuid.UUID, notes string) (*model.Aduan, error) {
	return m.apply(ctx, actor, id, policy.ActionVerifyAduan, func(context.Context, *model.Aduan) (Transition, error) {
		return Verify{Notes: notes}, nil
	})
}

func (m *Manager) Reject(ctx context.Context, actor model.Actor, id uuid.UUID, reason string) (*model.Aduan, error) {
	return m.apply(ctx, actor, id, policy.ActionRejectAduan, func(context.Context, *model.Aduan) (Transition, error) {
		return Reject{Reason: reason}, nil
	})
}

func (m *Manager) AssignDinas(ctx context.Context, actor model.Actor, id uuid.UUID, dinasID uint, notes string) (*model.Aduan, error) {
	return m.apply(ctx, actor, id, policy.ActionAssignDinas, func(ctx context.Context, _ *model.Aduan) (Transition, error) {
		ok, err := m.dinas.DinasExists(ctx, dinasID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperror.Validation("Dinas tidak ditemukan")
		}
		return AssignDinas{DinasID: dinasID, Notes: notes}, nil
	})
}

func (m *Manager) AssignStaff(ctx context.Context, actor model.Actor, id uuid.UUID, staffID uuid.UUID, notes string) (*model.Aduan, error) {
	return m.apply(ctx, actor, id, policy.ActionAssignStaff, func(ctx context.Context, _ *model.Aduan) (Transition, error) {
		staff, err := m.staff.FindStaff(ctx, staffID)
		if err != nil {
			if apperror.Is(err, apperror.KindNotFound) {
				return nil, apperror.Validation("Petugas tidak ditemukan")
			}
			return nil, err
		}
		return AssignStaff{Staff: *staff, Notes: notes}, nil
	})
}

func (m *Manager) UpdateStatus(ctx context.Context, actor model.Actor, id uuid.UUID, status model.AduanStatus, notes string) (*model.Aduan, error) {
	return m.apply(ctx, actor, id, policy.ActionUpdateStatus, func(context.Context, *model.Aduan) (Transition, error) {
		return UpdateStatus{Status: status, Notes: notes}, nil
	})
}

func (m *Manager) UpdateProgress(ctx context.Context, actor model.Actor, id uuid.UUID, progress int, notes string) (*model.Aduan, error) {
	return m.apply(ctx, actor, id, policy.ActionUpdateProgress, func(context.Context, *model.Aduan) (Transition, error) {
		return UpdateProgress{Progress: progress, Notes: notes}, nil
	})
}

func (m *Manager) SetPriority(ctx context.Context, actor model.Actor, id uuid.UUID, priority model.Priority, notes string) (*model.Aduan, error) {
	return m.apply(ctx, actor, id, policy.ActionSetPriority, func(context.Context, *model.Aduan) (Transition, error) {
		return SetPriority{Priority: priority, Notes: notes}, nil
	})
}

func (m *Manager) AddNote(ctx context.Context, actor model.Actor, id uuid.UUID, notes string) (*model.Aduan, error) {
	return m.apply(ctx, actor, id, policy.ActionAddNote, func(context.Context, *model.Aduan) (Transition, error) {
		return AddNote{Notes: notes}, nil
	})
}

type buildFunc func(ctx context.Context, a *model.Aduan) (Transition, error)

// apply authorizes against the loaded complaint before any staff or dinas lookup and before any write.
// The complaint is mutated on a copy; nothing reaches the repository unless Apply succeeded.
func (m *Manager) apply(ctx context.Context, actor model.Actor, id uuid.UUID, action policy.Action, build buildFunc) (*model.Aduan, error) {
	current, err := m.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := m.policy.Authorize(actor, action, policy.TargetOf(current)); err != nil {
		m.metrics.observe(action, err)
		return nil, err
	}

	t, err := build(ctx, current)
	if err != nil {
		m.metrics.observe(action, err)
		return nil, err
	}

	next := *current
	now := m.Now()
	h, err := t.Apply(&next, actor.ID, now)
	if err != nil {
		m.metrics.observe(action, err)
		return nil, err
	}

	next.UpdatedAt = now
	if err := m.repo.SaveTransition(ctx, &next, current.RowVersion, h); err != nil {
		if errors.Is(err, apperror.ErrRowVersionConflict) {
			err = apperror.Wrap(apperror.KindConflict, apperror.CodeRowVersionConflict,
				"Aduan telah diubah oleh pengguna lain, muat ulang lalu coba lagi", err)
		}
		m.metrics.observe(action, err)
		return nil, err
	}
	next.RowVersion = current.RowVersion + 1
	m.metrics.observe(action, nil)
	return &next, nil
}
