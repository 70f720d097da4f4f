package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/wellness-directory/internal/apperror"
	"github.com/sakif/wellness-directory/internal/model"
)

const submissionColumns = `id, title, url, category, description,
	creator_name, creator_link, creator_background, thumbnail_url,
	submitter_ip, reviewed, approved, created_at, reviewed_at`

func scanSubmission(row rowScanner, s *model.Submission) error {
	var reviewedAt sql.NullTime
	err := row.Scan(
		&s.ID, &s.Title, &s.URL, &s.Category, &s.Description,
		&s.CreatorName, &s.CreatorLink, &s.CreatorBackground, &s.ThumbnailURL,
		&s.SubmitterIP, &s.Reviewed, &s.Approved, &s.CreatedAt, &reviewedAt,
	)
	if err != nil {
		return err
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		s.ReviewedAt = &t
	}
	return nil
}

// CreateSubmission stores a new pending submission. Reviewed and Approved
// are forced to false whatever the caller passed.
func (db *DB) CreateSubmission(ctx context.Context, s *model.Submission) error {
	s.ID = xid.New().String()
	s.CreatedAt = now()
	s.Reviewed = false
	s.Approved = false
	s.ReviewedAt = nil

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO submissions (id, title, url, category, description,
			creator_name, creator_link, creator_background, thumbnail_url,
			submitter_ip, reviewed, approved, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, ?)`,
		s.ID, s.Title, s.URL, string(s.Category), s.Description,
		s.CreatorName, s.CreatorLink, s.CreatorBackground, s.ThumbnailURL,
		s.SubmitterIP, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating submission: %w", err)
	}
	return nil
}

// GetSubmission returns a submission in any state.
func (db *DB) GetSubmission(ctx context.Context, id string) (*model.Submission, error) {
	return getSubmission(ctx, db.conn, id)
}

func getSubmission(ctx context.Context, q querier, id string) (*model.Submission, error) {
	var s model.Submission
	err := scanSubmission(q.QueryRowContext(ctx,
		"SELECT "+submissionColumns+" FROM submissions WHERE id = ?", id,
	), &s)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("submission", id)
		}
		return nil, fmt.Errorf("sqlite: getting submission %s: %w", id, err)
	}
	return &s, nil
}

// ListPendingSubmissions returns unreviewed submissions, newest first.
func (db *DB) ListPendingSubmissions(ctx context.Context) ([]model.Submission, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+submissionColumns+` FROM submissions
		 WHERE reviewed = 0
		 ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing pending submissions: %w", err)
	}
	defer rows.Close()

	subs := make([]model.Submission, 0)
	for rows.Next() {
		var s model.Submission
		if err := scanSubmission(rows, &s); err != nil {
			return nil, fmt.Errorf("sqlite: scanning submission row: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating submissions: %w", err)
	}
	return subs, nil
}

// ApproveSubmission moves a pending submission to approved and creates its
// tool in the same transaction.
//
// The UPDATE only matches while reviewed = 0, so of two concurrent approvals
// exactly one sees a row affected; the other gets ErrConflict and writes
// nothing.
func (db *DB) ApproveSubmission(ctx context.Context, id string) (*model.Tool, error) {
	var tool *model.Tool

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		if err := markReviewed(ctx, tx, id, true); err != nil {
			return err
		}

		sub, err := getSubmission(ctx, tx, id)
		if err != nil {
			return err
		}

		tool = model.NewToolFromSubmission(sub)
		return insertTool(ctx, tx, tool)
	})
	if err != nil {
		return nil, err
	}
	return tool, nil
}

// RejectSubmission moves a pending submission to rejected.
func (db *DB) RejectSubmission(ctx context.Context, id string) (*model.Submission, error) {
	var sub *model.Submission

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		if err := markReviewed(ctx, tx, id, false); err != nil {
			return err
		}
		var err error
		sub, err = getSubmission(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// markReviewed is the compare-and-swap at the heart of moderation: it flips
// reviewed only if the row is still pending, then tells "missing" apart
// from "already reviewed" when nothing matched.
func markReviewed(ctx context.Context, q querier, id string, approved bool) error {
	result, err := q.ExecContext(ctx,
		`UPDATE submissions SET reviewed = 1, approved = ?, reviewed_at = ?
		 WHERE id = ? AND reviewed = 0`,
		approved, now(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: reviewing submission %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 1 {
		return nil
	}

	var exists int
	err = q.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("sqlite: checking submission %s: %w", id, err)
	}
	if exists == 0 {
		return apperror.NotFound("submission", id)
	}
	return apperror.Conflict(fmt.Sprintf("submission %s has already been reviewed", id))
}
