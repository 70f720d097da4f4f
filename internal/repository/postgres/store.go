package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sakif/wellness-directory/internal/apperror"
	"github.com/sakif/wellness-directory/internal/model"
	"github.com/sakif/wellness-directory/internal/repository"
)

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

func approvedTools(tx *gorm.DB) *gorm.DB {
	return tx.Model(&toolRow{}).Where("approved = ?", true)
}

// ListApprovedTools returns approved tools matching the filter.
func (db *DB) ListApprovedTools(ctx context.Context, filter repository.ToolFilter) ([]model.Tool, error) {
	q := approvedTools(db.gdb.WithContext(ctx))
	if filter.Category != "" {
		q = q.Where("category = ?", string(filter.Category))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := repository.LikePattern(search)
		q = q.Where(`(title ILIKE ? ESCAPE '\' OR description ILIKE ? ESCAPE '\' OR creator_name ILIKE ? ESCAPE '\')`,
			pattern, pattern, pattern)
	}

	var rows []toolRow
	if err := q.Order(orderBy(filter.Sort)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("postgres: listing tools: %w", err)
	}

	tools := make([]model.Tool, 0, len(rows))
	for i := range rows {
		tools = append(tools, *toolFromRow(&rows[i]))
	}
	return tools, nil
}

// GetApprovedTool returns one approved tool.
func (db *DB) GetApprovedTool(ctx context.Context, id string) (*model.Tool, error) {
	return getApprovedTool(db.gdb.WithContext(ctx), id)
}

func getApprovedTool(tx *gorm.DB, id string) (*model.Tool, error) {
	var row toolRow
	err := approvedTools(tx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("tool", id)
		}
		return nil, fmt.Errorf("postgres: getting tool %s: %w", id, err)
	}
	return toolFromRow(&row), nil
}

// IncrementToolCounter adds one to a view or click counter.
func (db *DB) IncrementToolCounter(ctx context.Context, id string, counter model.Counter) error {
	col, ok := counter.Column()
	if !ok {
		return apperror.ValidationFailed("action", fmt.Sprintf("unknown counter %q", counter))
	}

	result := approvedTools(db.gdb.WithContext(ctx)).
		Where("id = ?", id).
		UpdateColumn(col, gorm.Expr(col+" + 1"))
	if result.Error != nil {
		return fmt.Errorf("postgres: incrementing %s for tool %s: %w", col, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("tool", id)
	}
	return nil
}

// CountToolsByCategory counts approved tools per category.
func (db *DB) CountToolsByCategory(ctx context.Context) (map[model.Category]int, error) {
	var rows []struct {
		Category string
		N        int
	}
	err := approvedTools(db.gdb.WithContext(ctx)).
		Select("category, COUNT(*) AS n").
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("postgres: counting tools by category: %w", err)
	}

	counts := make(map[model.Category]int, len(rows))
	for _, r := range rows {
		counts[model.Category(r.Category)] = r.N
	}
	return counts, nil
}

// CreateSubmission stores a new pending submission.
func (db *DB) CreateSubmission(ctx context.Context, s *model.Submission) error {
	row := submissionRow{
		ID:                xid.New().String(),
		Title:             s.Title,
		URL:               s.URL,
		Category:          string(s.Category),
		Description:       s.Description,
		CreatorName:       s.CreatorName,
		CreatorLink:       s.CreatorLink,
		CreatorBackground: s.CreatorBackground,
		ThumbnailURL:      s.ThumbnailURL,
		SubmitterIP:       s.SubmitterIP,
		CreatedAt:         time.Now().UTC(),
	}
	if err := db.gdb.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("postgres: creating submission: %w", err)
	}
	*s = *submissionFromRow(&row)
	return nil
}

// GetSubmission returns a submission in any state.
func (db *DB) GetSubmission(ctx context.Context, id string) (*model.Submission, error) {
	return getSubmission(db.gdb.WithContext(ctx), id)
}

func getSubmission(tx *gorm.DB, id string) (*model.Submission, error) {
	var row submissionRow
	if err := tx.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("submission", id)
		}
		return nil, fmt.Errorf("postgres: getting submission %s: %w", id, err)
	}
	return submissionFromRow(&row), nil
}

// ListPendingSubmissions returns unreviewed submissions, newest first.
func (db *DB) ListPendingSubmissions(ctx context.Context) ([]model.Submission, error) {
	var rows []submissionRow
	err := db.gdb.WithContext(ctx).
		Where("reviewed = ?", false).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("postgres: listing pending submissions: %w", err)
	}

	subs := make([]model.Submission, 0, len(rows))
	for i := range rows {
		subs = append(subs, *submissionFromRow(&rows[i]))
	}
	return subs, nil
}

// ApproveSubmission moves a pending submission to approved and creates its
// tool in one transaction.
func (db *DB) ApproveSubmission(ctx context.Context, id string) (*model.Tool, error) {
	var tool *model.Tool

	err := db.gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := markReviewed(tx, id, true); err != nil {
			return err
		}
		sub, err := getSubmission(tx, id)
		if err != nil {
			return err
		}

		tool = model.NewToolFromSubmission(sub)
		tool.ID = xid.New().String()
		ts := time.Now().UTC()
		tool.CreatedAt, tool.UpdatedAt = ts, ts

		if err := tx.Create(toolToRow(tool)).Error; err != nil {
			return fmt.Errorf("postgres: creating tool: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tool, nil
}

// RejectSubmission moves a pending submission to rejected.
func (db *DB) RejectSubmission(ctx context.Context, id string) (*model.Submission, error) {
	var sub *model.Submission

	err := db.gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := markReviewed(tx, id, false); err != nil {
			return err
		}
		var err error
		sub, err = getSubmission(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// markReviewed flips reviewed only while the row is still pending.
func markReviewed(tx *gorm.DB, id string, approved bool) error {
	result := tx.Model(&submissionRow{}).
		Where("id = ? AND reviewed = ?", id, false).
		Updates(map[string]any{
			"reviewed":    true,
			"approved":    approved,
			"reviewed_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("postgres: reviewing submission %s: %w", id, result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}

	var n int64
	if err := tx.Model(&submissionRow{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return fmt.Errorf("postgres: checking submission %s: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("submission", id)
	}
	return apperror.Conflict(fmt.Sprintf("submission %s has already been reviewed", id))
}

// UpsertRating stores or replaces a rater's score and recomputes the tool
// aggregate from every stored rating in one transaction.
func (db *DB) UpsertRating(ctx context.Context, r *model.Rating) (*model.RatingSummary, error) {
	var summary *model.RatingSummary

	err := db.gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Row lock on the tool serializes concurrent aggregate updates.
		var locked toolRow
		err := approvedTools(tx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", r.ToolID).
			First(&locked).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("tool", r.ToolID)
			}
			return fmt.Errorf("postgres: locking tool %s: %w", r.ToolID, err)
		}

		ts := time.Now().UTC()
		row := ratingRow{
			ID:        xid.New().String(),
			ToolID:    r.ToolID,
			RaterID:   r.RaterID,
			Rating:    r.Rating,
			Review:    r.Review,
			CreatedAt: ts,
			UpdatedAt: ts,
		}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tool_id"}, {Name: "rater_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "review", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("postgres: upserting rating for tool %s: %w", r.ToolID, err)
		}

		var stored ratingRow
		if err := tx.Where("tool_id = ? AND rater_id = ?", r.ToolID, r.RaterID).First(&stored).Error; err != nil {
			return fmt.Errorf("postgres: reading rating for tool %s: %w", r.ToolID, err)
		}
		*r = ratingFromRow(&stored)

		var agg struct {
			Avg   float64
			Total int
		}
		err = tx.Model(&ratingRow{}).
			Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS total").
			Where("tool_id = ?", r.ToolID).
			Scan(&agg).Error
		if err != nil {
			return fmt.Errorf("postgres: aggregating ratings for tool %s: %w", r.ToolID, err)
		}

		err = tx.Model(&toolRow{}).Where("id = ?", r.ToolID).Updates(map[string]any{
			"avg_rating":    agg.Avg,
			"total_ratings": agg.Total,
			"updated_at":    ts,
		}).Error
		if err != nil {
			return fmt.Errorf("postgres: updating aggregate for tool %s: %w", r.ToolID, err)
		}

		summary = &model.RatingSummary{
			ToolID:       r.ToolID,
			AvgRating:    agg.Avg,
			TotalRatings: agg.Total,
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
	var rows []ratingRow
	err := db.gdb.WithContext(ctx).
		Where("tool_id = ?", toolID).
		Order("updated_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("postgres: listing ratings for tool %s: %w", toolID, err)
	}

	ratings := make([]model.Rating, 0, len(rows))
	for i := range rows {
		ratings = append(ratings, ratingFromRow(&rows[i]))
	}
	return ratings, nil
}
