package repositories

import (
	"context"
	"fmt"
	"time"

	"taskflow/internal/models"

	"github.com/google/uuid"
)

// DashboardRepository runs the aggregate queries behind the dashboard endpoints.
type DashboardRepository interface {
	WeekCounts(ctx context.Context, userID uuid.UUID, weekStart time.Time) (models.StatusCounts, error)
	// RecentWeeks includes archived tasks so that history survives archival.
	RecentWeeks(ctx context.Context, userID uuid.UUID, limit int) ([]models.WeeklyStats, error)
	DailyTrend(ctx context.Context, userID uuid.UUID, since time.Time) ([]models.DailyTrend, error)
	PriorityDistribution(ctx context.Context, userID uuid.UUID, since time.Time) ([]models.PriorityBucket, error)
}

type dashboardRepo struct {
	db DB
}

func NewDashboardRepo(db DB) DashboardRepository {
	return &dashboardRepo{db: db}
}

func (r *dashboardRepo) WeekCounts(ctx context.Context, userID uuid.UUID, weekStart time.Time) (models.StatusCounts, error) {
	var counts models.StatusCounts
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'pending')
		FROM tasks
		WHERE user_id = $1 AND week_start = $2 AND archived = FALSE
	`
	err := r.db.QueryRow(ctx, query, userID, weekStart).Scan(&counts.Total, &counts.Completed, &counts.Pending)
	if err != nil {
		return counts, fmt.Errorf("failed to count weekly tasks: %w", err)
	}
	return counts, nil
}

func (r *dashboardRepo) RecentWeeks(ctx context.Context, userID uuid.UUID, limit int) ([]models.WeeklyStats, error) {
	query := `
		SELECT week_start, COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'pending')
		FROM tasks
		WHERE user_id = $1
		GROUP BY week_start
		ORDER BY week_start DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query weekly history: %w", err)
	}
	defer rows.Close()

	weeks := []models.WeeklyStats{}
	for rows.Next() {
		var w models.WeeklyStats
		if err := rows.Scan(&w.WeekStart, &w.Total, &w.Completed, &w.Pending); err != nil {
			return nil, err
		}
		weeks = append(weeks, w)
	}
	return weeks, rows.Err()
}

func (r *dashboardRepo) DailyTrend(ctx context.Context, userID uuid.UUID, since time.Time) ([]models.DailyTrend, error) {
	query := `
		SELECT DATE(created_at AT TIME ZONE 'UTC') AS day, COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed')
		FROM tasks
		WHERE user_id = $1 AND archived = FALSE AND created_at >= $2
		GROUP BY day
		ORDER BY day ASC
	`
	rows, err := r.db.Query(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily trend: %w", err)
	}
	defer rows.Close()

	trend := []models.DailyTrend{}
	for rows.Next() {
		var d models.DailyTrend
		if err := rows.Scan(&d.Date, &d.Total, &d.Completed); err != nil {
			return nil, err
		}
		trend = append(trend, d)
	}
	return trend, rows.Err()
}

func (r *dashboardRepo) PriorityDistribution(ctx context.Context, userID uuid.UUID, since time.Time) ([]models.PriorityBucket, error) {
	query := `
		SELECT priority, COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed')
		FROM tasks
		WHERE user_id = $1 AND archived = FALSE AND created_at >= $2
		GROUP BY priority
		ORDER BY priority DESC
	`
	rows, err := r.db.Query(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query priority distribution: %w", err)
	}
	defer rows.Close()

	buckets := []models.PriorityBucket{}
	for rows.Next() {
		var b models.PriorityBucket
		if err := rows.Scan(&b.Priority, &b.Count, &b.Completed); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}
