package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiber/responta/app/model"
	"fiber/responta/app/policy"
	"fiber/responta/apperror"
)

type memoryRepo struct {
	mu      sync.Mutex
	aduan   map[uuid.UUID]model.Aduan
	history map[uuid.UUID][]model.AduanHistory
	// stale simulates a concurrent writer bumping the version between read and write.
	stale bool
}

func newMemoryRepo(items ...*model.Aduan) *memoryRepo {
	r := &memoryRepo{
		aduan:   map[uuid.UUID]model.Aduan{},
		history: map[uuid.UUID][]model.AduanHistory{},
	}
	for _, a := range items {
		r.aduan[a.ID] = *a
	}
	return r
}

func (r *memoryRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Aduan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.aduan[id]
	if !ok {
		return nil, apperror.NotFound("Aduan tidak ditemukan")
	}
	return &a, nil
}

func (r *memoryRepo) SaveTransition(_ context.Context, a *model.Aduan, expected int64, h model.AduanHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := r.aduan[a.ID]
	if r.stale {
		stored.RowVersion++
		r.aduan[a.ID] = stored
	}
	if stored.RowVersion != expected {
		return apperror.ErrRowVersionConflict
	}
	next := *a
	next.RowVersion = expected + 1
	r.aduan[a.ID] = next
	r.history[a.ID] = append(r.history[a.ID], h)
	return nil
}

func (r *memoryRepo) ListHistory(_ context.Context, id uuid.UUID) ([]model.AduanHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.AduanHistory(nil), r.history[id]...), nil
}

type staffMap map[uuid.UUID]Staff

func (s staffMap) FindStaff(_ context.Context, id uuid.UUID) (*Staff, error) {
	st, ok := s[id]
	if !ok {
		return nil, apperror.NotFound("Pengguna tidak ditemukan")
	}
	return &st, nil
}

type dinasSet map[uint]bool

func (d dinasSet) DinasExists(_ context.Context, id uint) (bool, error) {
	return d[id], nil
}

func newManager(repo *memoryRepo, staff staffMap) (*Manager, *Metrics) {
	metrics := NewMetrics(prometheus.NewRegistry())
	m := NewManager(repo, staff, dinasSet{3: true, 4: true}, policy.New(), metrics)
	m.Now = func() time.Time { return now }
	return m, metrics
}

func active(role model.RoleKey) model.Actor {
	return model.Actor{ID: uuid.New(), Role: role, Active: true}
}

func TestVerifyScenario(t *testing.T) {
	ctx := context.Background()
	owner := active(model.RoleMasyarakat)
	a := newAduan(model.StatusBaru)
	a.UserID = owner.ID
	repo := newMemoryRepo(a)
	m, metrics := newManager(repo, nil)

	verifier := active(model.RoleVerifikator)
	got, err := m.Verify(ctx, verifier, a.ID, "ok")
	require.NoError(t, err)
	assert.Equal(t, model.StatusDiverifikasi, got.Status)
	assert.Equal(t, int64(2), got.RowVersion)

	history, err := m.History(ctx, owner, a.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "verify", history[0].Action)
	assert.Equal(t, "baru", history[0].OldValue)
	assert.Equal(t, "diverifikasi", history[0].NewValue)
	assert.Equal(t, "ok", history[0].Notes)
	assert.Equal(t, verifier.ID, history[0].UserID)

	_, err = m.Verify(ctx, verifier, a.ID, "again")
	assert.True(t, apperror.Is(err, apperror.KindInvalidState))
	history, _ = repo.ListHistory(ctx, a.ID)
	assert.Len(t, history, 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.transitions.WithLabelValues("verify", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.transitions.WithLabelValues("verify", "invalid_state_transition")))
}

func TestDeniedLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	a := newAduan(model.StatusDiverifikasi)
	a.DinasID = uintPtr(7)
	repo := newMemoryRepo(a)
	staffID := uuid.New()
	m, _ := newManager(repo, staffMap{staffID: {ID: staffID, Role: model.RoleStafDinas, DinasID: uintPtr(7), Active: true}})

	kd := model.Actor{ID: uuid.New(), Role: model.RoleKepalaDinas, DinasID: uintPtr(5), Active: true}
	_, err := m.AssignStaff(ctx, kd, a.ID, staffID, "")
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	citizen := active(model.RoleMasyarakat)
	_, err = m.UpdateStatus(ctx, citizen, a.ID, model.StatusDiproses, "")
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	stored, _ := repo.FindByID(ctx, a.ID)
	assert.Equal(t, *a, *stored)
	history, _ := repo.ListHistory(ctx, a.ID)
	assert.Empty(t, history)
}

func TestDeniedActorNeverTriggersLookups(t *testing.T) {
	ctx := context.Background()
	a := newAduan(model.StatusDiverifikasi)
	repo := newMemoryRepo(a)
	m, _ := newManager(repo, staffMap{})

	// unknown staff would be a validation error, but the permission check comes first
	_, err := m.AssignStaff(ctx, active(model.RoleStafDinas), a.ID, uuid.New(), "")
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
}

func TestFullLifecycle(t *testing.T) {
	ctx := context.Background()
	a := newAduan(model.StatusBaru)
	repo := newMemoryRepo(a)
	teknisiID := uuid.New()
	m, _ := newManager(repo, staffMap{teknisiID: {ID: teknisiID, Role: model.RoleTeknisiLapangan, DinasID: uintPtr(3), Active: true}})

	admin := active(model.RoleAdminKota)
	kd := model.Actor{ID: uuid.New(), Role: model.RoleKepalaDinas, DinasID: uintPtr(3), Active: true}
	teknisi := model.Actor{ID: teknisiID, Role: model.RoleTeknisiLapangan, DinasID: uintPtr(3), Active: true}

	_, err := m.Verify(ctx, admin, a.ID, "")
	require.NoError(t, err)

	_, err = m.UpdateStatus(ctx, admin, a.ID, model.StatusDiproses, "")
	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeNotAssigned, appErr.Code)

	_, err = m.AssignDinas(ctx, admin, a.ID, 99, "")
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = m.AssignDinas(ctx, admin, a.ID, 3, "dinas PU")
	require.NoError(t, err)
	_, err = m.AssignStaff(ctx, kd, a.ID, teknisiID, "")
	require.NoError(t, err)
	_, err = m.AssignStaff(ctx, kd, a.ID, uuid.New(), "")
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	_, err = m.UpdateStatus(ctx, kd, a.ID, model.StatusDiproses, "")
	require.NoError(t, err)
	_, err = m.UpdateProgress(ctx, teknisi, a.ID, 150, "")
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	_, err = m.UpdateProgress(ctx, teknisi, a.ID, 50, "setengah")
	require.NoError(t, err)
	_, err = m.SetPriority(ctx, admin, a.ID, model.PriorityHigh, "")
	require.NoError(t, err)
	_, err = m.AddNote(ctx, kd, a.ID, "material datang besok")
	require.NoError(t, err)
	done, err := m.UpdateStatus(ctx, kd, a.ID, model.StatusSelesai, "")
	require.NoError(t, err)
	assert.Equal(t, 100, done.Progress)

	_, err = m.AddNote(ctx, kd, a.ID, "terlambat")
	assert.True(t, apperror.Is(err, apperror.KindInvalidState))

	history, err := m.History(ctx, teknisi, a.ID)
	require.NoError(t, err)
	actions := make([]string, 0, len(history))
	for _, h := range history {
		actions = append(actions, h.Action)
	}
	assert.Equal(t, []string{
		"verify", "assign_dinas", "assign_staff", "update_status",
		"update_progress", "set_priority", "note", "update_status",
	}, actions)
	assert.Equal(t, int64(9), done.RowVersion)
}

func TestVersionConflict(t *testing.T) {
	ctx := context.Background()
	a := newAduan(model.StatusBaru)
	repo := newMemoryRepo(a)
	repo.stale = true
	m, _ := newManager(repo, nil)

	_, err := m.Reject(ctx, active(model.RoleVerifikator), a.ID, "duplikat")
	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.KindConflict, appErr.Kind)
	assert.Equal(t, apperror.CodeRowVersionConflict, appErr.Code)

	history, _ := repo.ListHistory(ctx, a.ID)
	assert.Empty(t, history)
}

func TestGetNotFound(t *testing.T) {
	m, _ := newManager(newMemoryRepo(), nil)
	_, err := m.Get(context.Background(), active(model.RoleSuperAdmin), uuid.New())
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}
