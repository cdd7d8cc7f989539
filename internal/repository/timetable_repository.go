package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/timetable-portal-api/internal/models"
)

// TimetableRepository handles persistence of generated timetable versions.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs the repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// CreateVersioned stores a timetable with the next version number and its
// entries inside one transaction.
func (r *TimetableRepository) CreateVersioned(ctx context.Context, timetable *models.Timetable, entries []models.TimetableEntry) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin timetable create: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if timetable.ID == "" {
		timetable.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	timetable.CreatedAt = now
	timetable.UpdatedAt = now
	if timetable.Status == "" {
		timetable.Status = models.TimetableStatusDraft
	}
	if timetable.Meta == nil {
		timetable.Meta = types.JSONText(`{}`)
	}

	const versionQuery = `SELECT COALESCE(MAX(version), 0) + 1 FROM timetables`
	if err = tx.GetContext(ctx, &timetable.Version, versionQuery); err != nil {
		return fmt.Errorf("next timetable version: %w", err)
	}

	const insertQuery = `INSERT INTO timetables (id, version, status, fully_placed, meta, created_at, updated_at)
        VALUES (:id, :version, :status, :fully_placed, :meta, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertQuery, timetable); err != nil {
		return fmt.Errorf("insert timetable: %w", err)
	}

	for i := range entries {
		entries[i].TimetableID = timetable.ID
		if entries[i].ID == "" {
			entries[i].ID = uuid.NewString()
		}
		entries[i].CreatedAt = now
		const entryQuery = `INSERT INTO timetable_entries (id, timetable_id, subject, faculty, day, slot, room, created_at)
            VALUES (:id, :timetable_id, :subject, :faculty, :day, :slot, :room, :created_at)`
		if _, err = tx.NamedExecContext(ctx, entryQuery, entries[i]); err != nil {
			return fmt.Errorf("insert timetable entry %s: %w", entries[i].Subject, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit timetable create: %w", err)
	}
	return nil
}

// FindByID returns a timetable by its ID.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.Timetable, error) {
	const query = `SELECT id, version, status, fully_placed, meta, created_at, updated_at FROM timetables WHERE id = $1`
	var timetable models.Timetable
	if err := r.db.GetContext(ctx, &timetable, query, id); err != nil {
		return nil, err
	}
	return &timetable, nil
}

// FindPublished returns the single published timetable, if any.
func (r *TimetableRepository) FindPublished(ctx context.Context) (*models.Timetable, error) {
	const query = `SELECT id, version, status, fully_placed, meta, created_at, updated_at FROM timetables WHERE status = $1 ORDER BY version DESC LIMIT 1`
	var timetable models.Timetable
	if err := r.db.GetContext(ctx, &timetable, query, models.TimetableStatusPublished); err != nil {
		return nil, err
	}
	return &timetable, nil
}

// List returns all timetable versions, newest first.
func (r *TimetableRepository) List(ctx context.Context) ([]models.Timetable, error) {
	const query = `SELECT id, version, status, fully_placed, meta, created_at, updated_at FROM timetables ORDER BY version DESC`
	var timetables []models.Timetable
	if err := r.db.SelectContext(ctx, &timetables, query); err != nil {
		return nil, fmt.Errorf("list timetables: %w", err)
	}
	return timetables, nil
}

// ListEntries returns the placed courses of one timetable version.
func (r *TimetableRepository) ListEntries(ctx context.Context, timetableID string) ([]models.TimetableEntry, error) {
	const query = `SELECT id, timetable_id, subject, faculty, day, slot, room, created_at
        FROM timetable_entries WHERE timetable_id = $1 ORDER BY subject`
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, timetableID); err != nil {
		return nil, fmt.Errorf("list timetable entries: %w", err)
	}
	return entries, nil
}

// Publish marks a version as published and archives the previous one inside
// one transaction, keeping a single active version.
func (r *TimetableRepository) Publish(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin publish: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if _, err = tx.ExecContext(ctx,
		`UPDATE timetables SET status = $1, updated_at = $2 WHERE status = $3`,
		models.TimetableStatusArchived, now, models.TimetableStatusPublished); err != nil {
		return fmt.Errorf("archive published timetable: %w", err)
	}

	var res sql.Result
	res, err = tx.ExecContext(ctx,
		`UPDATE timetables SET status = $1, updated_at = $2 WHERE id = $3`,
		models.TimetableStatusPublished, now, id)
	if err != nil {
		return fmt.Errorf("publish timetable: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit publish: %w", err)
	}
	return nil
}

// Delete removes a timetable version and its entries.
func (r *TimetableRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM timetables WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete timetable: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
