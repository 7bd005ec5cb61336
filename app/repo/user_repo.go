package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fiber/responta/app/lifecycle"
	"fiber/responta/app/model"
	"fiber/responta/apperror"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindAll(ctx context.Context, dinasID *uint, page, limit int, search, sortBy, order string) ([]model.User, int64, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	UpdateRefreshToken(ctx context.Context, id uuid.UUID, token string) error
	FindRoleByName(ctx context.Context, name string) (*model.Role, error)
	ListStaffByDinas(ctx context.Context, dinasID uint) ([]model.User, error)
	FindStaff(ctx context.Context, id uuid.UUID) (*lifecycle.Staff, error)
}

type UserRepo struct {
	DB *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{
		DB: db,
	}
}

const userNotFound = "User tidak ditemukan"

const userSelect = `
		SELECT u.id, u.username, u.email, u.password_hash, u.full_name, u.phone, u.role_id,
		       u.organization_id, u.dinas_id, u.is_active, u.refresh_token, u.created_at, u.updated_at,
		       r.id, r.name, r.level
		FROM users u
		LEFT JOIN roles r ON u.role_id = r.id`

var userSortWhitelist = map[string]string{
	"created_at": "u.created_at",
	"username":   "u.username",
	"email":      "u.email",
	"full_name":  "u.full_name",
	"role":       "r.level",
}

func scanUser(row rowScanner) (*model.User, error) {
	var user model.User
	var phone, refreshToken, roleID, roleName sql.NullString
	var roleLevel sql.NullInt64

	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.FullName, &phone, &user.RoleID,
		&user.OrganizationID, &user.DinasID, &user.IsActive, &refreshToken, &user.CreatedAt, &user.UpdatedAt,
		&roleID, &roleName, &roleLevel,
	)
	if err != nil {
		return nil, err
	}

	user.Phone = phone.String
	user.RefreshToken = refreshToken.String
	if roleID.Valid {
		user.Role.ID, _ = uuid.Parse(roleID.String)
		user.Role.Name = roleName.String
		user.Role.Level = int(roleLevel.Int64)
	}
	return &user, nil
}

func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, full_name, phone, role_id, organization_id, dinas_id,
		                   is_active, refresh_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, '', $10, $11)
		RETURNING id`

	now := time.Now()
	err := r.DB.QueryRowContext(ctx,
		query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FullName,
		user.Phone,
		user.RoleID,
		user.OrganizationID,
		user.DinasID,
		true,
		now,
		now,
	).Scan(&user.ID)
	if err != nil {
		return translate(err, userNotFound)
	}
	user.IsActive = true
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// FindByUsername returns inactive accounts too; the caller decides what an inactive account may do.
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := scanUser(r.DB.QueryRowContext(ctx, userSelect+` WHERE u.username = $1`, username))
	if err != nil {
		return nil, translate(err, userNotFound)
	}
	return user, nil
}

func (r *UserRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := scanUser(r.DB.QueryRowContext(ctx, userSelect+` WHERE u.id = $1`, id))
	if err != nil {
		return nil, translate(err, userNotFound)
	}
	return user, nil
}

func (r *UserRepo) FindAll(ctx context.Context, dinasID *uint, page, limit int, search, sortBy, order string) ([]model.User, int64, error) {
	where := " WHERE 1=1"
	args := []interface{}{}

	if dinasID != nil {
		args = append(args, *dinasID)
		where += fmt.Sprintf(" AND u.dinas_id = $%d", len(args))
	}
	if search != "" {
		args = append(args, "%"+search+"%")
		n := len(args)
		where += fmt.Sprintf(" AND (u.username ILIKE $%d OR u.email ILIKE $%d OR u.full_name ILIKE $%d)", n, n, n)
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM users u` + where
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, translate(err, userNotFound)
	}

	query := userSelect + where
	if order != "asc" && order != "desc" {
		order = "desc"
	}
	if sortColumn, ok := userSortWhitelist[sortBy]; ok {
		query += fmt.Sprintf(" ORDER BY %s %s", sortColumn, order)
	} else {
		query += " ORDER BY u.created_at DESC"
	}

	page, limit = normalizePage(page, limit)
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, (page-1)*limit)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, translate(err, userNotFound)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, translate(err, userNotFound)
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}

func (r *UserRepo) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET username = $1, email = $2, password_hash = $3, full_name = $4, phone = $5, updated_at = $6
		WHERE id = $7`

	res, err := r.DB.ExecContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.FullName, user.Phone, time.Now(), user.ID)
	if err != nil {
		return translate(err, userNotFound)
	}
	return expectAffected(res, userNotFound)
}

// Delete removes an account no complaint or history entry points at.
// Referenced accounts are kept and reported as a conflict; they can be deactivated instead.
func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM users
		WHERE id = $1
		  AND NOT EXISTS (SELECT 1 FROM aduan WHERE user_id = $1 OR staff_id = $1 OR verified_by = $1)
		  AND NOT EXISTS (SELECT 1 FROM aduan_history WHERE user_id = $1)`

	res, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return translate(err, userNotFound)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return translate(err, userNotFound)
	}
	if n > 0 {
		return nil
	}

	var exists bool
	if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
		return translate(err, userNotFound)
	}
	if !exists {
		return apperror.NotFound(userNotFound)
	}
	return apperror.New(apperror.KindConflict, apperror.CodeUserReferenced,
		"User masih terkait dengan aduan, nonaktifkan akun sebagai gantinya")
}

// SetActive also drops the refresh token on deactivation so the account cannot mint new access tokens.
func (r *UserRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `UPDATE users SET is_active = $1, updated_at = $2 WHERE id = $3`
	if !active {
		query = `UPDATE users SET is_active = $1, updated_at = $2, refresh_token = '' WHERE id = $3`
	}
	res, err := r.DB.ExecContext(ctx, query, active, time.Now(), id)
	if err != nil {
		return translate(err, userNotFound)
	}
	return expectAffected(res, userNotFound)
}

func (r *UserRepo) UpdateRefreshToken(ctx context.Context, id uuid.UUID, token string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE users SET refresh_token = $1 WHERE id = $2`, token, id)
	return translate(err, userNotFound)
}

func (r *UserRepo) FindRoleByName(ctx context.Context, name string) (*model.Role, error) {
	query := `SELECT id, name, level, description, created_at FROM roles WHERE name = $1`
	var role model.Role
	var desc sql.NullString
	err := r.DB.QueryRowContext(ctx, query, name).Scan(&role.ID, &role.Name, &role.Level, &desc, &role.CreatedAt)
	if err != nil {
		return nil, translate(err, "Role tidak ditemukan")
	}
	role.Description = desc.String
	return &role, nil
}

// ListStaffByDinas returns the accounts a complaint of that department can be assigned to.
func (r *UserRepo) ListStaffByDinas(ctx context.Context, dinasID uint) ([]model.User, error) {
	query := userSelect + `
		WHERE u.dinas_id = $1 AND u.is_active = true AND r.name IN ($2, $3)
		ORDER BY u.full_name ASC`

	rows, err := r.DB.QueryContext(ctx, query, dinasID, model.RoleStafDinas.String(), model.RoleTeknisiLapangan.String())
	if err != nil {
		return nil, translate(err, userNotFound)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, translate(err, userNotFound)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *UserRepo) FindStaff(ctx context.Context, id uuid.UUID) (*lifecycle.Staff, error) {
	u, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &lifecycle.Staff{
		ID:      u.ID,
		Role:    u.Role.Key(),
		DinasID: u.DinasID,
		Active:  u.IsActive,
	}, nil
}

func expectAffected(res sql.Result, notFound string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return translate(err, notFound)
	}
	if n == 0 {
		return translate(sql.ErrNoRows, notFound)
	}
	return nil
}
