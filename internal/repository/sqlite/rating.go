package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/wellness-directory/internal/model"
)

// UpsertRating stores or replaces a rater's score and recomputes the tool
// aggregate from every stored rating, all in one transaction.
func (db *DB) UpsertRating(ctx context.Context, r *model.Rating) (*model.RatingSummary, error) {
	var summary *model.RatingSummary

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getApprovedTool(ctx, tx, r.ToolID); err != nil {
			return err
		}

		ts := now()
		_, err := tx.ExecContext(ctx,
			`INSERT INTO ratings (id, tool_id, rater_id, rating, review, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (tool_id, rater_id) DO UPDATE SET
				rating = excluded.rating,
				review = excluded.review,
				updated_at = excluded.updated_at`,
			xid.New().String(), r.ToolID, r.RaterID, r.Rating, r.Review, ts, ts,
		)
		if err != nil {
			return fmt.Errorf("sqlite: upserting rating for tool %s: %w", r.ToolID, err)
		}

		// The row may predate this call; read back its stable id and creation time.
		err = tx.QueryRowContext(ctx,
			`SELECT id, created_at, updated_at FROM ratings WHERE tool_id = ? AND rater_id = ?`,
			r.ToolID, r.RaterID,
		).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
		if err != nil {
			return fmt.Errorf("sqlite: reading rating for tool %s: %w", r.ToolID, err)
		}

		var avg float64
		var total int
		err = tx.QueryRowContext(ctx,
			`SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM ratings WHERE tool_id = ?`,
			r.ToolID,
		).Scan(&avg, &total)
		if err != nil {
			return fmt.Errorf("sqlite: aggregating ratings for tool %s: %w", r.ToolID, err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE tools SET avg_rating = ?, total_ratings = ?, updated_at = ? WHERE id = ?`,
			avg, total, ts, r.ToolID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating aggregate for tool %s: %w", r.ToolID, err)
		}

		summary = &model.RatingSummary{
			ToolID:       r.ToolID,
			AvgRating:    avg,
			TotalRatings: total,
			Rating:       r.Rating,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// ListRatings returns a tool's ratings, most recently updated first.
func (db *DB) ListRatings(ctx context.Context, toolID string) ([]model.Rating, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, tool_id, rater_id, rating, review, created_at, updated_at
		 FROM ratings WHERE tool_id = ?
		 ORDER BY updated_at DESC, id DESC`,
		toolID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing ratings for tool %s: %w", toolID, err)
	}
	defer rows.Close()

	ratings := make([]model.Rating, 0)
	for rows.Next() {
		var r model.Rating
		if err := rows.Scan(&r.ID, &r.ToolID, &r.RaterID, &r.Rating, &r.Review, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning rating row: %w", err)
		}
		ratings = append(ratings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating ratings: %w", err)
	}
	return ratings, nil
}
