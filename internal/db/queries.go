package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/hpungsan/yougpt/internal/errors"
	"github.com/hpungsan/yougpt/internal/record"
)

const summaryColumns = `id, video_id, source_url, title, format, length, prompt,
	summary_text, transcript_chars, tokens_estimate, language, created_at, deleted_at`

// ListFilter narrows a history listing. Empty string fields match everything.
type ListFilter struct {
	VideoID        string
	Format         string
	Limit          int
	Offset         int
	IncludeDeleted bool
}

// Insert stores a new summary in the database.
func Insert(ctx context.Context, db *sql.DB, s *record.Summary) error {
	query := `
		INSERT INTO summaries (
			id, video_id, source_url, title, format, length, prompt,
			summary_text, transcript_chars, tokens_estimate, language,
			created_at, deleted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`

	_, err := db.ExecContext(ctx, query,
		s.ID, s.VideoID, s.SourceURL, toNullString(s.Title), s.Format, s.Length, s.Prompt,
		s.SummaryText, s.TranscriptChars, s.TokensEstimate, toNullString(s.Language),
		s.CreatedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetByID retrieves a summary by its ULID.
// If includeDeleted is false, soft-deleted summaries are excluded.
func GetByID(ctx context.Context, db *sql.DB, id string, includeDeleted bool) (*record.Summary, error) {
	query := `SELECT ` + summaryColumns + ` FROM summaries WHERE id = ?`
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	}

	s, err := scanSummary(db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return s, nil
}

// List returns history items matching f, newest first, plus the total
// number of matching rows ignoring Limit and Offset.
func List(ctx context.Context, db *sql.DB, f ListFilter) ([]record.Item, int, error) {
	where, args := f.where()

	total, err := count(ctx, db, where, args)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, video_id, title, format, length, length(summary_text),
			transcript_chars, language, created_at, deleted_at
		FROM summaries` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	limit := f.Limit
	if limit <= 0 {
		limit = -1 // no limit
	}
	rows, err := db.QueryContext(ctx, query, append(args, limit, max(f.Offset, 0))...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	var items []record.Item
	for rows.Next() {
		var (
			it        record.Item
			title     sql.NullString
			language  sql.NullString
			deletedAt sql.NullInt64
		)
		if err := rows.Scan(
			&it.ID, &it.VideoID, &title, &it.Format, &it.Length, &it.SummaryChars,
			&it.TranscriptChars, &language, &it.CreatedAt, &deletedAt,
		); err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		it.Title = fromNullString(title)
		it.Language = fromNullString(language)
		if deletedAt.Valid {
			it.DeletedAt = &deletedAt.Int64
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	return items, total, nil
}

// Count returns the number of summaries matching f. Limit and Offset are ignored.
func Count(ctx context.Context, db *sql.DB, f ListFilter) (int, error) {
	where, args := f.where()
	return count(ctx, db, where, args)
}

func count(ctx context.Context, db *sql.DB, where string, args []any) (int, error) {
	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM summaries`+where, args...).Scan(&total); err != nil {
		return 0, errors.NewInternal(err)
	}
	return total, nil
}

func (f ListFilter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if !f.IncludeDeleted {
		conds = append(conds, "deleted_at IS NULL")
	}
	if f.VideoID != "" {
		conds = append(conds, "video_id = ?")
		args = append(args, f.VideoID)
	}
	if f.Format != "" {
		conds = append(conds, "format = ?")
		args = append(args, f.Format)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// SoftDelete marks a summary as deleted by setting deleted_at.
func SoftDelete(ctx context.Context, db *sql.DB, id string) error {
	result, err := db.ExecContext(ctx, `
		UPDATE summaries
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, time.Now().Unix(), id)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}
	return nil
}

// SoftDeleteOlderThan soft-deletes active summaries created before cutoff
// (Unix seconds) and returns how many were marked.
func SoftDeleteOlderThan(ctx context.Context, db *sql.DB, cutoff int64) (int, error) {
	result, err := db.ExecContext(ctx, `
		UPDATE summaries
		SET deleted_at = ?
		WHERE created_at < ? AND deleted_at IS NULL
	`, time.Now().Unix(), cutoff)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}

// PurgeDeleted permanently removes soft-deleted summaries.
// If olderThanDays is set, only rows deleted more than that many days ago are removed.
func PurgeDeleted(ctx context.Context, db *sql.DB, olderThanDays *int) (int, error) {
	query := `DELETE FROM summaries WHERE deleted_at IS NOT NULL`
	var args []any
	if olderThanDays != nil {
		cutoff := time.Now().Add(-time.Duration(*olderThanDays) * 24 * time.Hour).Unix()
		query += " AND deleted_at < ?"
		args = append(args, cutoff)
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}

// scanSummary scans a single row into a Summary struct.
func scanSummary(row *sql.Row) (*record.Summary, error) {
	var (
		s         record.Summary
		title     sql.NullString
		language  sql.NullString
		deletedAt sql.NullInt64
	)

	err := row.Scan(
		&s.ID, &s.VideoID, &s.SourceURL, &title, &s.Format, &s.Length, &s.Prompt,
		&s.SummaryText, &s.TranscriptChars, &s.TokensEstimate, &language,
		&s.CreatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	s.Title = fromNullString(title)
	s.Language = fromNullString(language)
	if deletedAt.Valid {
		s.DeletedAt = &deletedAt.Int64
	}
	return &s, nil
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
