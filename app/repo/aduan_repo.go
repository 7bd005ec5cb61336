package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"fiber/responta/app/model"
	"fiber/responta/app/policy"
	"fiber/responta/apperror"
)

type AduanRepository interface {
	Create(ctx context.Context, a *model.Aduan) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Aduan, error)
	FindByTicket(ctx context.Context, nomor string) (*model.Aduan, error)
	FindAll(ctx context.Context, scope policy.Scope, f model.AduanFilter) ([]model.Aduan, int64, error)
	UpdateDetails(ctx context.Context, a *model.Aduan, expectedVersion int64) error
	Delete(ctx context.Context, id uuid.UUID, expectedVersion int64) error
	BumpVersion(ctx context.Context, id uuid.UUID, expectedVersion int64, at time.Time) error
	SaveTransition(ctx context.Context, a *model.Aduan, expectedVersion int64, h model.AduanHistory) error
	ListHistory(ctx context.Context, id uuid.UUID) ([]model.AduanHistory, error)
}

type AduanRepo struct {
	DB *sql.DB
}

func NewAduanRepo(db *sql.DB) *AduanRepo {
	return &AduanRepo{DB: db}
}

const aduanNotFound = "Aduan tidak ditemukan"

const aduanSelect = `
		SELECT a.id, a.nomor_tiket, a.user_id, a.category, a.description, a.latitude, a.longitude, a.address,
		       a.status, a.priority, a.progress, a.dinas_id, a.staff_id, a.organization_id,
		       a.admin_notes, a.verification_notes, a.rejection_reason, a.verified_by,
		       a.verified_at, a.rejected_at, a.processed_at, a.completed_at,
		       a.row_version, a.created_at, a.updated_at, o.parent_id
		FROM aduan a
		LEFT JOIN organizations o ON o.id = a.organization_id`

var aduanSortWhitelist = map[string]string{
	"created_at":  "a.created_at",
	"updated_at":  "a.updated_at",
	"status":      "a.status",
	"priority":    "a.priority",
	"progress":    "a.progress",
	"nomor_tiket": "a.nomor_tiket",
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAduan(row rowScanner) (*model.Aduan, error) {
	var a model.Aduan
	err := row.Scan(
		&a.ID, &a.NomorTiket, &a.UserID, &a.Category, &a.Description, &a.Latitude, &a.Longitude, &a.Address,
		&a.Status, &a.Priority, &a.Progress, &a.DinasID, &a.StaffID, &a.OrganizationID,
		&a.AdminNotes, &a.VerificationNotes, &a.RejectionReason, &a.VerifiedBy,
		&a.VerifiedAt, &a.RejectedAt, &a.ProcessedAt, &a.CompletedAt,
		&a.RowVersion, &a.CreatedAt, &a.UpdatedAt, &a.OrganizationParentID,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AduanRepo) Create(ctx context.Context, a *model.Aduan) error {
	query := `
		INSERT INTO aduan (id, nomor_tiket, user_id, category, description, latitude, longitude, address,
		                   status, priority, progress, organization_id,
		                   admin_notes, verification_notes, rejection_reason,
		                   row_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, '', '', '', 1, $13, $14)`

	_, err := r.DB.ExecContext(ctx, query,
		a.ID, a.NomorTiket, a.UserID, a.Category, a.Description, a.Latitude, a.Longitude, a.Address,
		a.Status, a.Priority, a.Progress, a.OrganizationID,
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return translate(err, aduanNotFound)
	}
	a.RowVersion = 1
	return nil
}

func (r *AduanRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Aduan, error) {
	a, err := scanAduan(r.DB.QueryRowContext(ctx, aduanSelect+` WHERE a.id = $1`, id))
	if err != nil {
		return nil, translate(err, aduanNotFound)
	}
	return a, nil
}

func (r *AduanRepo) FindByTicket(ctx context.Context, nomor string) (*model.Aduan, error) {
	a, err := scanAduan(r.DB.QueryRowContext(ctx, aduanSelect+` WHERE a.nomor_tiket = $1`, nomor))
	if err != nil {
		return nil, translate(err, aduanNotFound)
	}
	return a, nil
}

// scopeClause turns a list scope into an OR of the populated fields. The clauses mirror the view rules.
func scopeClause(scope policy.Scope, args *[]interface{}) string {
	if scope.All {
		return ""
	}
	next := func(v interface{}) string {
		*args = append(*args, v)
		return fmt.Sprintf("$%d", len(*args))
	}

	var ors []string
	if scope.OwnerID != uuid.Nil {
		ors = append(ors, "a.user_id = "+next(scope.OwnerID))
	}
	if scope.DinasID != nil {
		ors = append(ors, "a.dinas_id = "+next(*scope.DinasID))
	}
	if scope.StaffID != nil {
		ors = append(ors, "a.staff_id = "+next(*scope.StaffID))
	}
	if scope.ParentOrganizationID != nil {
		ors = append(ors, "o.parent_id = "+next(*scope.ParentOrganizationID))
	}
	if scope.OrganizationID != nil {
		ors = append(ors, "a.organization_id = "+next(*scope.OrganizationID))
	}
	if len(ors) == 0 {
		return "FALSE"
	}
	return "(" + strings.Join(ors, " OR ") + ")"
}

func (r *AduanRepo) FindAll(ctx context.Context, scope policy.Scope, f model.AduanFilter) ([]model.Aduan, int64, error) {
	args := []interface{}{}
	where := []string{}

	if clause := scopeClause(scope, &args); clause != "" {
		where = append(where, clause)
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("a.status = $%d", len(args)))
	}
	if f.Priority != "" {
		args = append(args, f.Priority)
		where = append(where, fmt.Sprintf("a.priority = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(a.nomor_tiket ILIKE $%d OR a.category ILIKE $%d OR a.description ILIKE $%d OR a.address ILIKE $%d)", n, n, n, n))
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM aduan a LEFT JOIN organizations o ON o.id = a.organization_id` + whereSQL
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, translate(err, aduanNotFound)
	}

	order := strings.ToLower(f.Order)
	if order != "asc" && order != "desc" {
		order = "desc"
	}
	query := aduanSelect + whereSQL
	if column, ok := aduanSortWhitelist[f.SortBy]; ok {
		query += fmt.Sprintf(" ORDER BY %s %s", column, order)
	} else {
		query += " ORDER BY a.created_at DESC"
	}

	page, limit := normalizePage(f.Page, f.Limit)
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, (page-1)*limit)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, translate(err, aduanNotFound)
	}
	defer rows.Close()

	items := []model.Aduan{}
	for rows.Next() {
		a, err := scanAduan(rows)
		if err != nil {
			return nil, 0, translate(err, aduanNotFound)
		}
		items = append(items, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, translate(err, aduanNotFound)
	}
	return items, total, nil
}

// UpdateDetails writes the owner-editable fields only.
func (r *AduanRepo) UpdateDetails(ctx context.Context, a *model.Aduan, expectedVersion int64) error {
	query := `
		UPDATE aduan
		SET category = $1, description = $2, latitude = $3, longitude = $4, address = $5,
		    updated_at = $6, row_version = row_version + 1
		WHERE id = $7 AND row_version = $8`

	res, err := r.DB.ExecContext(ctx, query,
		a.Category, a.Description, a.Latitude, a.Longitude, a.Address, a.UpdatedAt, a.ID, expectedVersion)
	if err != nil {
		return translate(err, aduanNotFound)
	}
	if err := expectOneRow(res); err != nil {
		return err
	}
	a.RowVersion = expectedVersion + 1
	return nil
}

func (r *AduanRepo) Delete(ctx context.Context, id uuid.UUID, expectedVersion int64) error {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM aduan WHERE id = $1 AND row_version = $2 AND status = $3`,
		id, expectedVersion, model.StatusBaru)
	if err != nil {
		return translate(err, aduanNotFound)
	}
	return expectOneRow(res)
}

// BumpVersion claims the row for a change stored outside it, such as new photos.
// Only a complaint still in baru can be claimed.
func (r *AduanRepo) BumpVersion(ctx context.Context, id uuid.UUID, expectedVersion int64, at time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE aduan SET row_version = row_version + 1, updated_at = $1 WHERE id = $2 AND row_version = $3 AND status = $4`,
		at, id, expectedVersion, model.StatusBaru)
	if err != nil {
		return translate(err, aduanNotFound)
	}
	return expectOneRow(res)
}

// SaveTransition writes the lifecycle columns and the history row in one transaction.
// A stale expectedVersion rolls back both.
func (r *AduanRepo) SaveTransition(ctx context.Context, a *model.Aduan, expectedVersion int64, h model.AduanHistory) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return translate(err, aduanNotFound)
	}
	defer tx.Rollback()

	update := `
		UPDATE aduan
		SET status = $1, priority = $2, progress = $3, dinas_id = $4, staff_id = $5,
		    admin_notes = $6, verification_notes = $7, rejection_reason = $8, verified_by = $9,
		    verified_at = $10, rejected_at = $11, processed_at = $12, completed_at = $13,
		    updated_at = $14, row_version = row_version + 1
		WHERE id = $15 AND row_version = $16`

	res, err := tx.ExecContext(ctx, update,
		a.Status, a.Priority, a.Progress, a.DinasID, a.StaffID,
		a.AdminNotes, a.VerificationNotes, a.RejectionReason, a.VerifiedBy,
		a.VerifiedAt, a.RejectedAt, a.ProcessedAt, a.CompletedAt,
		a.UpdatedAt, a.ID, expectedVersion,
	)
	if err != nil {
		return translate(err, aduanNotFound)
	}
	if err := expectOneRow(res); err != nil {
		return err
	}

	insert := `
		INSERT INTO aduan_history (id, aduan_id, action, user_id, old_value, new_value, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := tx.ExecContext(ctx, insert,
		h.ID, h.AduanID, h.Action, h.UserID, h.OldValue, h.NewValue, h.Notes, h.CreatedAt,
	); err != nil {
		return translate(err, aduanNotFound)
	}

	if err := tx.Commit(); err != nil {
		return translate(err, aduanNotFound)
	}
	return nil
}

func (r *AduanRepo) ListHistory(ctx context.Context, id uuid.UUID) ([]model.AduanHistory, error) {
	query := `
		SELECT h.id, h.aduan_id, h.action, h.user_id, h.old_value, h.new_value, h.notes, h.created_at, u.full_name
		FROM aduan_history h
		LEFT JOIN users u ON u.id = h.user_id
		WHERE h.aduan_id = $1
		ORDER BY h.created_at ASC, h.id ASC`

	rows, err := r.DB.QueryContext(ctx, query, id)
	if err != nil {
		return nil, translate(err, aduanNotFound)
	}
	defer rows.Close()

	history := []model.AduanHistory{}
	for rows.Next() {
		var h model.AduanHistory
		var oldValue, newValue, notes, userName sql.NullString
		if err := rows.Scan(&h.ID, &h.AduanID, &h.Action, &h.UserID, &oldValue, &newValue, &notes, &h.CreatedAt, &userName); err != nil {
			return nil, translate(err, aduanNotFound)
		}
		h.OldValue = oldValue.String
		h.NewValue = newValue.String
		h.Notes = notes.String
		h.UserName = userName.String
		history = append(history, h)
	}
	return history, rows.Err()
}

// expectOneRow reports a row_version conflict when the guarded write matched nothing.
func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperror.Internal(err)
	}
	if n == 0 {
		return apperror.ErrRowVersionConflict
	}
	return nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
