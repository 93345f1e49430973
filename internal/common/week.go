package common

import "time"

// WeekStart returns the UTC midnight of the Monday that opens the ISO week containing t.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	sinceMonday := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-sinceMonday, 0, 0, 0, 0, time.UTC)
}

// ArchiveCutoff is the bucket of the week before t's week. Tasks whose bucket is strictly
// earlier than the cutoff are eligible for archival.
func ArchiveCutoff(t time.Time) time.Time {
	return WeekStart(t).AddDate(0, 0, -7)
}
