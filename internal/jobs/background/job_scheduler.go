package background

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"taskflow/internal/common"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

const (
	archiveJobName     = "weekly-archive"
	archiveConcurrency = 5
)

// ArchivableUserLister finds users whose tasks have fallen behind the archive cutoff.
type ArchivableUserLister interface {
	ListUsersWithArchivable(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
}

// Archiver archives one user's stale tasks and reports how many moved.
type Archiver interface {
	Archive(ctx context.Context, userID uuid.UUID) (int, error)
}

// ArchiveResult summarizes one sweep.
type ArchiveResult struct {
	Users    int
	Archived int
	Failed   int
}

// JobScheduler runs the weekly archive sweep on a cron schedule.
type JobScheduler struct {
	scheduler gocron.Scheduler
	users     ArchivableUserLister
	archiver  Archiver
	now       func() time.Time
}

// NewJobScheduler registers the archive job; the scheduler does not run until Start.
func NewJobScheduler(users ArchivableUserLister, archiver Archiver, cronExpr string) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	js := &JobScheduler{
		scheduler: scheduler,
		users:     users,
		archiver:  archiver,
		now:       time.Now,
	}

	_, err = scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(js.runScheduled),
		gocron.WithName(archiveJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, fmt.Errorf("register %s job: %w", archiveJobName, err)
	}

	return js, nil
}

func (js *JobScheduler) Start() {
	slog.Info("starting background job scheduler", "jobs", len(js.scheduler.Jobs()))
	js.scheduler.Start()
}

func (js *JobScheduler) Stop() error {
	slog.Info("stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) runScheduled() {
	ctx := context.Background()
	if _, err := js.RunOnce(ctx); err != nil {
		slog.Error("archive sweep failed", "error", err)
	}
}

// RunOnce archives stale tasks for every affected user. A failure for one user is
// logged and does not stop the sweep.
func (js *JobScheduler) RunOnce(ctx context.Context) (ArchiveResult, error) {
	cutoff := common.ArchiveCutoff(js.now())

	userIDs, err := js.users.ListUsersWithArchivable(ctx, cutoff)
	if err != nil {
		return ArchiveResult{}, fmt.Errorf("list users with archivable tasks: %w", err)
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		result = ArchiveResult{Users: len(userIDs)}
	)
	semaphore := make(chan struct{}, archiveConcurrency)

	for _, userID := range userIDs {
		wg.Add(1)
		go func(userID uuid.UUID) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			count, err := js.archiver.Archive(ctx, userID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Error("failed to archive tasks", "user_id", userID, "error", err)
				result.Failed++
				return
			}
			result.Archived += count
		}(userID)
	}
	wg.Wait()

	slog.Info("archive sweep finished",
		"cutoff", cutoff.Format("2006-01-02"),
		"users", result.Users,
		"archived", result.Archived,
		"failed", result.Failed,
	)
	return result, nil
}
