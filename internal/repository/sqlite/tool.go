package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/wellness-directory/internal/apperror"
	"github.com/sakif/wellness-directory/internal/model"
	"github.com/sakif/wellness-directory/internal/repository"
)

const toolColumns = `id, COALESCE(submission_id, ''), title, url, category, description,
	creator_name, creator_link, creator_background, thumbnail_url,
	avg_rating, total_ratings, view_count, click_count, approved,
	created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTool(row rowScanner, t *model.Tool) error {
	return row.Scan(
		&t.ID, &t.SubmissionID, &t.Title, &t.URL, &t.Category, &t.Description,
		&t.CreatorName, &t.CreatorLink, &t.CreatorBackground, &t.ThumbnailURL,
		&t.AvgRating, &t.TotalRatings, &t.ViewCount, &t.ClickCount, &t.Approved,
		&t.CreatedAt, &t.UpdatedAt,
	)
}

// orderBy maps a sort key to its ORDER BY clause. Ties fall back to newest
// first so the order is deterministic.
func orderBy(sort model.ToolSort) string {
	switch sort {
	case model.SortNewest:
		return "created_at DESC, id DESC"
	case model.SortPopular:
		return "total_ratings DESC, created_at DESC, id DESC"
	default:
		return "avg_rating DESC, created_at DESC, id DESC"
	}
}

// ListApprovedTools returns approved tools matching the filter.
//
// The WHERE clause is assembled from fixed fragments; user input only ever
// travels through ? placeholders.
func (db *DB) ListApprovedTools(ctx context.Context, filter repository.ToolFilter) ([]model.Tool, error) {
	where := []string{"approved = 1"}
	var args []any

	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(filter.Category))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := repository.LikePattern(search)
		where = append(where, `(unicode_lower(title) LIKE ? ESCAPE '\'
			OR unicode_lower(description) LIKE ? ESCAPE '\'
			OR unicode_lower(creator_name) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern)
	}

	query := "SELECT " + toolColumns + " FROM tools WHERE " +
		strings.Join(where, " AND ") + " ORDER BY " + orderBy(filter.Sort)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tools: %w", err)
	}
	defer rows.Close()

	tools := make([]model.Tool, 0)
	for rows.Next() {
		var t model.Tool
		if err := scanTool(rows, &t); err != nil {
			return nil, fmt.Errorf("sqlite: scanning tool row: %w", err)
		}
		tools = append(tools, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tools: %w", err)
	}

	return tools, nil
}

// GetApprovedTool returns one approved tool. Unapproved tools are reported
// as not found, exactly like missing ones.
func (db *DB) GetApprovedTool(ctx context.Context, id string) (*model.Tool, error) {
	return getApprovedTool(ctx, db.conn, id)
}

func getApprovedTool(ctx context.Context, q querier, id string) (*model.Tool, error) {
	var t model.Tool
	err := scanTool(q.QueryRowContext(ctx,
		"SELECT "+toolColumns+" FROM tools WHERE id = ? AND approved = 1", id,
	), &t)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("tool", id)
		}
		return nil, fmt.Errorf("sqlite: getting tool %s: %w", id, err)
	}
	return &t, nil
}

// IncrementToolCounter adds one to a view or click counter.
func (db *DB) IncrementToolCounter(ctx context.Context, id string, counter model.Counter) error {
	col, ok := counter.Column()
	if !ok {
		return apperror.ValidationFailed("action", fmt.Sprintf("unknown counter %q", counter))
	}

	// col comes from a closed set in model.Counter.Column, never from input.
	result, err := db.conn.ExecContext(ctx,
		fmt.Sprintf(`UPDATE tools SET %[1]s = %[1]s + 1 WHERE id = ? AND approved = 1`, col),
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: incrementing %s for tool %s: %w", col, id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("tool", id)
	}
	return nil
}

// CountToolsByCategory counts approved tools per category. Categories with
// no tools are absent from the map.
func (db *DB) CountToolsByCategory(ctx context.Context) (map[model.Category]int, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT category, COUNT(*) FROM tools WHERE approved = 1 GROUP BY category`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: counting tools by category: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.Category]int)
	for rows.Next() {
		var cat model.Category
		var n int
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, fmt.Errorf("sqlite: scanning category count: %w", err)
		}
		counts[cat] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating category counts: %w", err)
	}
	return counts, nil
}

// insertTool writes a new tool inside the caller's transaction, filling in
// ID and timestamps.
func insertTool(ctx context.Context, q querier, t *model.Tool) error {
	t.ID = xid.New().String()
	ts := now()
	t.CreatedAt = ts
	t.UpdatedAt = ts

	_, err := q.ExecContext(ctx,
		`INSERT INTO tools (id, submission_id, title, url, category, description,
			creator_name, creator_link, creator_background, thumbnail_url,
			avg_rating, total_ratings, view_count, click_count, approved,
			created_at, updated_at)
		 VALUES (?, NULLIF(?, ''), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.SubmissionID, t.Title, t.URL, string(t.Category), t.Description,
		t.CreatorName, t.CreatorLink, t.CreatorBackground, t.ThumbnailURL,
		t.AvgRating, t.TotalRatings, t.ViewCount, t.ClickCount, t.Approved,
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating tool: %w", err)
	}
	return nil
}
