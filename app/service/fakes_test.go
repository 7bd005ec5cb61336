package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"fiber/responta/app/lifecycle"
	"fiber/responta/app/model"
	"fiber/responta/app/policy"
	"fiber/responta/apperror"
	"fiber/responta/config"
	"fiber/responta/helper"
)

var testNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func uintPtr(v uint) *uint { return &v }

func actorOf(role model.RoleKey) model.Actor {
	return model.Actor{ID: uuid.New(), Role: role, Active: true}
}

// withActor stands in for the auth middleware.
func withActor(actor model.Actor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := &model.JWTClaims{UserID: actor.ID, Username: "tester", Role: actor.Role.String(), Type: helper.TokenAccess}
		helper.SetSession(c, actor, claims, "access-token")
		return c.Next()
	}
}

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: apperror.Handler})
}

type memAduanRepo struct {
	mu      sync.Mutex
	items   map[uuid.UUID]model.Aduan
	history map[uuid.UUID][]model.AduanHistory
	parents map[uint]uint
	tickets map[string]bool
	created int
	// duplicates is the number of Create calls that fail with a ticket collision before one succeeds.
	duplicates int
	lastScope  policy.Scope
}

func newMemAduanRepo() *memAduanRepo {
	return &memAduanRepo{
		items:   map[uuid.UUID]model.Aduan{},
		history: map[uuid.UUID][]model.AduanHistory{},
		parents: map[uint]uint{},
		tickets: map[string]bool{},
	}
}

func (r *memAduanRepo) put(a model.Aduan) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.RowVersion == 0 {
		a.RowVersion = 1
	}
	r.items[a.ID] = a
}

func (r *memAduanRepo) get(id uuid.UUID) (model.Aduan, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	return a, ok
}

func (r *memAduanRepo) Create(_ context.Context, a *model.Aduan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.duplicates > 0 {
		r.duplicates--
		return apperror.New(apperror.KindConflict, apperror.CodeDuplicate, "Data sudah ada")
	}
	if r.tickets[a.NomorTiket] {
		return apperror.New(apperror.KindConflict, apperror.CodeDuplicate, "Data sudah ada")
	}
	r.tickets[a.NomorTiket] = true
	a.RowVersion = 1
	r.items[a.ID] = *a
	r.created++
	return nil
}

func (r *memAduanRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Aduan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return nil, apperror.NotFound("Aduan tidak ditemukan")
	}
	if a.OrganizationID != nil {
		if p, ok := r.parents[*a.OrganizationID]; ok {
			a.OrganizationParentID = &p
		}
	}
	return &a, nil
}

func (r *memAduanRepo) FindByTicket(ctx context.Context, nomor string) (*model.Aduan, error) {
	r.mu.Lock()
	var id uuid.UUID
	for _, a := range r.items {
		if a.NomorTiket == nomor {
			id = a.ID
		}
	}
	r.mu.Unlock()
	return r.FindByID(ctx, id)
}

func (r *memAduanRepo) FindAll(_ context.Context, scope policy.Scope, _ model.AduanFilter) ([]model.Aduan, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastScope = scope
	out := []model.Aduan{}
	for _, a := range r.items {
		if scope.All || a.UserID == scope.OwnerID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (r *memAduanRepo) UpdateDetails(_ context.Context, a *model.Aduan, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[a.ID]
	if !ok || cur.RowVersion != expectedVersion {
		return apperror.ErrRowVersionConflict
	}
	a.RowVersion = expectedVersion + 1
	r.items[a.ID] = *a
	return nil
}

func (r *memAduanRepo) Delete(_ context.Context, id uuid.UUID, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[id]
	if !ok || cur.RowVersion != expectedVersion || cur.Status != model.StatusBaru {
		return apperror.ErrRowVersionConflict
	}
	delete(r.items, id)
	return nil
}

func (r *memAduanRepo) BumpVersion(_ context.Context, id uuid.UUID, expectedVersion int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[id]
	if !ok || cur.RowVersion != expectedVersion || cur.Status != model.StatusBaru {
		return apperror.ErrRowVersionConflict
	}
	cur.RowVersion++
	cur.UpdatedAt = at
	r.items[id] = cur
	return nil
}

func (r *memAduanRepo) SaveTransition(_ context.Context, a *model.Aduan, expectedVersion int64, h model.AduanHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[a.ID]
	if !ok || cur.RowVersion != expectedVersion {
		return apperror.ErrRowVersionConflict
	}
	next := *a
	next.RowVersion = expectedVersion + 1
	r.items[a.ID] = next
	r.history[a.ID] = append(r.history[a.ID], h)
	return nil
}

func (r *memAduanRepo) ListHistory(_ context.Context, id uuid.UUID) ([]model.AduanHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.AduanHistory{}, r.history[id]...), nil
}

type memPhotoRepo struct {
	mu     sync.Mutex
	photos map[uuid.UUID][]model.Photo
	fail   error
	// afterAdd runs once the photos are stored, outside the lock.
	afterAdd func()
}

func newMemPhotoRepo() *memPhotoRepo {
	return &memPhotoRepo{photos: map[uuid.UUID][]model.Photo{}}
}

func (r *memPhotoRepo) Add(_ context.Context, photos ...model.Photo) error {
	r.mu.Lock()
	if r.fail != nil {
		r.mu.Unlock()
		return r.fail
	}
	for _, p := range photos {
		id := uuid.MustParse(p.AduanID)
		r.photos[id] = append(r.photos[id], p)
	}
	hook := r.afterAdd
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}

func (r *memPhotoRepo) ListByAduan(_ context.Context, id uuid.UUID) ([]model.Photo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Photo{}, r.photos[id]...), nil
}

func (r *memPhotoRepo) ListByAduanIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID][]model.Photo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[uuid.UUID][]model.Photo{}
	for _, id := range ids {
		if p, ok := r.photos[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (r *memPhotoRepo) Count(_ context.Context, id uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.photos[id])), nil
}

func (r *memPhotoRepo) Remove(_ context.Context, id uuid.UUID, fileURLs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	drop := map[string]bool{}
	for _, u := range fileURLs {
		drop[u] = true
	}
	kept := r.photos[id][:0]
	for _, p := range r.photos[id] {
		if !drop[p.FileURL] {
			kept = append(kept, p)
		}
	}
	r.photos[id] = kept
	return nil
}

func (r *memPhotoRepo) DeleteByAduan(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.photos, id)
	return nil
}

type memOrgRepo struct {
	orgs  map[uint]model.Organization
	dinas map[uint]model.Dinas
}

func newMemOrgRepo() *memOrgRepo {
	kota, kec := uint(1), uint(10)
	return &memOrgRepo{
		orgs: map[uint]model.Organization{
			1:  {ID: 1, Name: "Kota", Code: "KOTA", Type: model.OrgKota},
			10: {ID: 10, Name: "Kecamatan Utara", Code: "KEC-UTR", Type: model.OrgKecamatan, ParentID: &kota},
			11: {ID: 11, Name: "Kelurahan Satu", Code: "KEL-01", Type: model.OrgKelurahan, ParentID: &kec},
		},
		dinas: map[uint]model.Dinas{
			5: {ID: 5, Name: "Dinas Pekerjaan Umum", Code: "DPU"},
			7: {ID: 7, Name: "Dinas Lingkungan Hidup", Code: "DLH"},
		},
	}
}

func (r *memOrgRepo) FindAll(_ context.Context, typ model.OrganizationType) ([]model.Organization, error) {
	out := []model.Organization{}
	for _, id := range []uint{1, 10, 11} {
		if o := r.orgs[id]; typ == "" || o.Type == typ {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *memOrgRepo) FindByID(_ context.Context, id uint) (*model.Organization, error) {
	o, ok := r.orgs[id]
	if !ok {
		return nil, apperror.NotFound("Organisasi tidak ditemukan")
	}
	return &o, nil
}

func (r *memOrgRepo) ListDinas(context.Context) ([]model.Dinas, error) {
	return []model.Dinas{r.dinas[5], r.dinas[7]}, nil
}

func (r *memOrgRepo) FindDinas(_ context.Context, id uint) (*model.Dinas, error) {
	d, ok := r.dinas[id]
	if !ok {
		return nil, apperror.NotFound("Dinas tidak ditemukan")
	}
	return &d, nil
}

func (r *memOrgRepo) DinasExists(_ context.Context, id uint) (bool, error) {
	_, ok := r.dinas[id]
	return ok, nil
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]model.User
	// referenced marks accounts that complaints or history point at.
	referenced map[uuid.UUID]bool
}

func newMemUserRepo(users ...model.User) *memUserRepo {
	r := &memUserRepo{users: map[uuid.UUID]model.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func roleOf(key model.RoleKey) model.Role {
	return model.Role{ID: uuid.New(), Name: key.String(), Level: key.Level()}
}

func (r *memUserRepo) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == u.Username {
			return apperror.New(apperror.KindConflict, apperror.CodeDuplicate, "Data sudah ada")
		}
	}
	u.ID = uuid.New()
	u.IsActive = true
	r.users[u.ID] = *u
	return nil
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, apperror.NotFound("User tidak ditemukan")
}

func (r *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperror.NotFound("User tidak ditemukan")
	}
	return &u, nil
}

func (r *memUserRepo) FindAll(_ context.Context, dinasID *uint, _, _ int, _, _, _ string) ([]model.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.User{}
	for _, u := range r.users {
		if dinasID == nil || (u.DinasID != nil && *u.DinasID == *dinasID) {
			out = append(out, u)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memUserRepo) Update(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return apperror.NotFound("User tidak ditemukan")
	}
	r.users[u.ID] = *u
	return nil
}

func (r *memUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return apperror.NotFound("User tidak ditemukan")
	}
	if r.referenced[id] {
		return apperror.New(apperror.KindConflict, apperror.CodeUserReferenced, "User masih terkait dengan aduan")
	}
	delete(r.users, id)
	return nil
}

func (r *memUserRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return apperror.NotFound("User tidak ditemukan")
	}
	u.IsActive = active
	if !active {
		u.RefreshToken = ""
	}
	r.users[id] = u
	return nil
}

func (r *memUserRepo) UpdateRefreshToken(_ context.Context, id uuid.UUID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.users[id]
	u.RefreshToken = token
	r.users[id] = u
	return nil
}

func (r *memUserRepo) FindRoleByName(_ context.Context, name string) (*model.Role, error) {
	key, err := model.ParseRole(name)
	if err != nil {
		return nil, apperror.NotFound("Role tidak ditemukan")
	}
	role := roleOf(key)
	return &role, nil
}

func (r *memUserRepo) ListStaffByDinas(_ context.Context, dinasID uint) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.User{}
	for _, u := range r.users {
		k := u.Role.Key()
		if u.DinasID != nil && *u.DinasID == dinasID && u.IsActive &&
			(k == model.RoleStafDinas || k == model.RoleTeknisiLapangan) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *memUserRepo) FindStaff(ctx context.Context, id uuid.UUID) (*lifecycle.Staff, error) {
	u, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &lifecycle.Staff{ID: u.ID, Role: u.Role.Key(), DinasID: u.DinasID, Active: u.IsActive}, nil
}

type memTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]time.Time
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{tokens: map[string]time.Time{}}
}

func (r *memTokenRepo) AddBlacklistToken(_ context.Context, t model.BlacklistedToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[t.Token] = t.ExpiresAt
	return nil
}

func (r *memTokenRepo) IsBlacklisted(_ context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tokens[token]
	return ok, nil
}

func (r *memTokenRepo) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for tok, exp := range r.tokens {
		if exp.Before(now) {
			delete(r.tokens, tok)
			n++
		}
	}
	return n, nil
}

func setTestSecrets() {
	config.Env.JWTSecret = "test-secret"
	config.Env.AccessTokenTTL = time.Minute
	config.Env.RefreshTokenTTL = time.Hour
}
