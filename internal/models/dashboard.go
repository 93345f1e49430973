package models

import "time"

type StatusCounts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

type WeeklyStats struct {
	WeekStart time.Time `json:"week_start"`
	StatusCounts
}

// DashboardStats summarizes the current week and the most recent week buckets.
type DashboardStats struct {
	CurrentWeek WeeklyStats   `json:"current_week"`
	RecentWeeks []WeeklyStats `json:"recent_weeks"`
}

type DailyTrend struct {
	Date      time.Time `json:"date"`
	Total     int       `json:"total"`
	Completed int       `json:"completed"`
}

type PriorityBucket struct {
	Priority  int `json:"priority"`
	Count     int `json:"count"`
	Completed int `json:"completed"`
}

type Analytics struct {
	Timeframe            string           `json:"timeframe"`
	Days                 int              `json:"days"`
	Since                time.Time        `json:"since"`
	DailyTrend           []DailyTrend     `json:"daily_trend"`
	PriorityDistribution []PriorityBucket `json:"priority_distribution"`
}
