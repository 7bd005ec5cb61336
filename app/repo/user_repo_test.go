package repo

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"fiber/responta/app/model"
	"fiber/responta/apperror"
)

var userColumns = []string{
	"id", "username", "email", "password_hash", "full_name", "phone", "role_id",
	"organization_id", "dinas_id", "is_active", "refresh_token", "created_at", "updated_at",
	"r_id", "r_name", "r_level",
}

func userRow(id uuid.UUID, username, role string, level int, dinasID interface{}, active bool) []driver.Value {
	roleID := uuid.NewString()
	at := time.Date(2026, 1, 10, 7, 0, 0, 0, time.UTC)
	return []driver.Value{
		id.String(), username, username + "@kota.go.id", "$2a$10$hash", "Nama " + username, nil, roleID,
		nil, dinasID, active, nil, at, at,
		roleID, role, level,
	}
}

func TestFindByUsernameReturnsInactive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE u.username = $1")).
		WithArgs("budi").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(userRow(id, "budi", "staf_dinas", 40, 3, false)...))

	u, err := NewUserRepo(db).FindByUsername(context.Background(), "budi")
	require.NoError(t, err)
	assert.False(t, u.IsActive)
	assert.Equal(t, model.RoleStafDinas, u.Role.Key())
	assert.Equal(t, 40, u.Role.Level)
	require.NotNil(t, u.DinasID)
	assert.Equal(t, uint(3), *u.DinasID)
	assert.Empty(t, u.Phone)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindStaff(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE u.id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(userRow(id, "tekno", "teknisi_lapangan", 30, 5, true)...))

	staff, err := NewUserRepo(db).FindStaff(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, staff.ID)
	assert.Equal(t, model.RoleTeknisiLapangan, staff.Role)
	assert.True(t, staff.Active)
	assert.Equal(t, uint(5), *staff.DinasID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindAllUsersByDinas(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	dinas := uint(5)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users u WHERE 1=1 AND u.dinas_id = $1 AND (u.username ILIKE $2")).
		WithArgs(dinas, "%an%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY u.full_name asc LIMIT $3 OFFSET $4")).
		WithArgs(dinas, "%an%", 10, 0).
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(userRow(uuid.New(), "andi", "staf_dinas", 40, 5, true)...))

	users, total, err := NewUserRepo(db).FindAll(context.Background(), &dinas, 0, 0, "an", "full_name", "asc")
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Equal(t, "andi", users[0].Username)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeactivateClearsRefreshToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	mock.ExpectExec(regexp.QuoteMeta("refresh_token = '' WHERE id = $3")).
		WithArgs(false, sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewUserRepo(db).SetActive(context.Background(), id, false))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUnknownUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	mock.ExpectExec("DELETE FROM users").WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err = NewUserRepo(db).Delete(context.Background(), id)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteReferencedUserConflicts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	mock.ExpectExec(regexp.QuoteMeta("AND NOT EXISTS (SELECT 1 FROM aduan WHERE user_id = $1 OR staff_id = $1 OR verified_by = $1)")).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err = NewUserRepo(db).Delete(context.Background(), id)
	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.KindConflict, appErr.Kind)
	assert.Equal(t, apperror.CodeUserReferenced, appErr.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUnreferencedUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	mock.ExpectExec("DELETE FROM users").WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewUserRepo(db).Delete(context.Background(), id))
	require.NoError(t, mock.ExpectationsWereMet())
}

func newGormMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)
	return gdb, mock
}

func TestTokenBlacklist(t *testing.T) {
	gdb, mock := newGormMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "blacklisted_tokens" WHERE token = $1`)).
		WithArgs("abc").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	listed, err := NewTokenRepo(gdb).IsBlacklisted(context.Background(), "abc")
	require.NoError(t, err)
	assert.True(t, listed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDinasExists(t *testing.T) {
	gdb, mock := newGormMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "dinas" WHERE id = $1`)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	ok, err := NewOrganizationRepo(gdb).DinasExists(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindDinasNotFound(t *testing.T) {
	gdb, mock := newGormMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "dinas" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "code", "organization_id", "created_at"}))

	_, err := NewOrganizationRepo(gdb).FindDinas(context.Background(), 9)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}
