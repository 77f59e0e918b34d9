// Package cascade enforces the deletion consistency rule: once a user is
// gone, no task they owned remains and no task's shared-with set still
// references them. The rule runs synchronously inside account deletion and
// asynchronously for deletions observed at the storage layer; both paths
// converge on the same idempotent bulk operations.
package cascade

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/taskhub/backend/internal/infrastructure/journal"
	"github.com/taskhub/backend/repository"
)

// ConnectionHealth gates reconciliation on storage availability.
type ConnectionHealth interface {
	IsOnline() bool
}

// Config controls the reconciler schedule and retry budget.
type Config struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// Cascader runs deletion cascades and retries the ones that failed.
type Cascader struct {
	tasks   repository.TaskRepository
	journal *journal.Store
	monitor ConnectionHealth
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     Config
}

func New(tasks repository.TaskRepository, jrnl *journal.Store, monitor ConnectionHealth, logger *zap.Logger, cfg Config) *Cascader {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Cascader{
		tasks:   tasks,
		journal: jrnl,
		monitor: monitor,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = c.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := c.Reconcile(ctx); err != nil {
			c.logger.Error("cascade reconciliation failed", zap.Error(err))
		}
	})

	return c
}

// Start launches the reconciler schedule.
func (c *Cascader) Start() {
	if c == nil || c.cron == nil {
		return
	}
	c.cron.Start()
	c.logger.Info("cascade reconciler started")
}

// Stop gracefully stops the schedule.
func (c *Cascader) Stop(ctx context.Context) {
	if c == nil || c.cron == nil {
		return
	}
	stopCtx := c.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	c.logger.Info("cascade reconciler stopped")
}

// Result reports what a cascade touched.
type Result struct {
	TasksDeleted int64 `json:"tasks_deleted"`
	SharesPruned int64 `json:"shares_pruned"`
}

// Run deletes the user's owned tasks and prunes the user from every other
// task's shared-with set. Both operations are idempotent, so Run is safe to
// repeat after a timeout or partial failure.
func (c *Cascader) Run(ctx context.Context, userID string) (Result, error) {
	deleted, err := c.tasks.DeleteByOwner(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("delete owned tasks: %w", err)
	}
	pruned, err := c.tasks.PruneSharedWith(ctx, userID)
	if err != nil {
		return Result{TasksDeleted: deleted}, fmt.Errorf("prune shared references: %w", err)
	}
	c.logger.Info("cascade completed",
		zap.String("user_id", userID),
		zap.Int64("tasks_deleted", deleted),
		zap.Int64("shares_pruned", pruned))
	return Result{TasksDeleted: deleted, SharesPruned: pruned}, nil
}

// HandleDeletion is the asynchronous trigger path: the storage layer has
// already removed the user (possibly bypassing the application), so the
// cascade is journaled before it runs and only confirmed once it succeeds.
func (c *Cascader) HandleDeletion(ctx context.Context, userID string) {
	if userID == "" {
		return
	}
	if c.journal != nil {
		if err := c.journal.Enqueue(userID); err != nil {
			c.logger.Error("failed to journal cascade", zap.String("user_id", userID), zap.Error(err))
		}
	}
	if _, err := c.Run(ctx, userID); err != nil {
		c.logger.Warn("cascade deferred to reconciler",
			zap.String("user_id", userID),
			zap.Error(err))
		return
	}
	c.confirm(userID)
}

// Reconcile re-runs journaled cascades while storage is reachable. Entries
// that keep failing past the retry budget are dropped with an error log and
// left for manual reconciliation.
func (c *Cascader) Reconcile(ctx context.Context) error {
	if c == nil || c.journal == nil {
		return nil
	}
	if c.monitor != nil && !c.monitor.IsOnline() {
		c.logger.Debug("skipping cascade reconciliation (offline)")
		return nil
	}

	entries, err := c.journal.Pending(c.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if _, err := c.Run(ctx, entry.UserID); err != nil {
			retries, bumpErr := c.journal.Bump(entry.UserID)
			if bumpErr != nil {
				c.logger.Warn("failed to bump cascade retries", zap.Error(bumpErr))
				continue
			}
			if retries >= c.cfg.MaxRetries {
				c.logger.Error("giving up on cascade after max retries",
					zap.String("user_id", entry.UserID),
					zap.Int("retries", retries))
				_ = c.journal.Remove(entry.UserID)
			}
			continue
		}
		c.confirm(entry.UserID)
	}
	return nil
}

func (c *Cascader) confirm(userID string) {
	if c.journal == nil {
		return
	}
	if err := c.journal.Remove(userID); err != nil {
		c.logger.Warn("failed to clear cascade journal entry",
			zap.String("user_id", userID),
			zap.Error(err))
	}
}
