// Package cleaner purges case attachments past their retention window.
package cleaner

import (
	"context"
	"time"

	attachmentdomain "github.com/reclaimlabs/recoveryhub/internal/attachment/domain"
	"github.com/reclaimlabs/recoveryhub/internal/attachment/store"
	"github.com/reclaimlabs/recoveryhub/internal/clock"
	"github.com/reclaimlabs/recoveryhub/internal/config"
	"github.com/reclaimlabs/recoveryhub/internal/observability/metrics"
	"github.com/reclaimlabs/recoveryhub/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	lockKey = "attachment:cleanup:lock"
	lockTTL = 5 * time.Minute

	batchSize = 200
)

// Result summarizes a sweep. Failures leave their rows in place for
// the next run.
type Result struct {
	Deleted int
	Failed  int
}

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Cfg     config.Config
	Clock   clock.Clock
	Store   store.ObjectStore
	Locker  *ratelimit.Locker `optional:"true"`
	Metrics *metrics.Metrics  `optional:"true"`
}

type Cleaner struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	store   store.ObjectStore
	locker  *ratelimit.Locker
	metrics *metrics.Metrics

	maxAge   time.Duration
	interval time.Duration
}

func New(p Params) *Cleaner {
	return &Cleaner{
		db:       p.DB,
		log:      p.Log.Named("attachment.cleaner"),
		clock:    p.Clock,
		store:    p.Store,
		locker:   p.Locker,
		metrics:  p.Metrics,
		maxAge:   p.Cfg.AttachmentMaxAge,
		interval: p.Cfg.CleanupInterval,
	}
}

func (c *Cleaner) RunForever(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		if _, err := c.RunOnce(ctx); err != nil {
			c.log.Warn("attachment cleanup run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce deletes attachments older than the retention window. Only
// one replica sweeps at a time when a locker is configured.
func (c *Cleaner) RunOnce(ctx context.Context) (Result, error) {
	if c.locker != nil {
		token, ok, err := c.locker.TryLock(ctx, lockKey, lockTTL)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return Result{}, nil
		}
		defer func() {
			if err := c.locker.Release(ctx, lockKey, token); err != nil {
				c.log.Warn("failed to release cleanup lock", zap.Error(err))
			}
		}()
	}

	cutoff := c.clock.Now().Add(-c.maxAge)

	var rows []attachmentdomain.Attachment
	if err := c.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Order("created_at ASC").
		Limit(batchSize).
		Find(&rows).Error; err != nil {
		return Result{}, err
	}

	var result Result
	for _, row := range rows {
		if err := c.purge(ctx, row); err != nil {
			result.Failed++
			c.log.Warn("failed to purge attachment",
				zap.Error(err),
				zap.String("attachment_id", row.ID.String()),
				zap.String("object_key", row.ObjectKey))
			continue
		}
		result.Deleted++
	}

	if result.Deleted > 0 || result.Failed > 0 {
		c.metrics.RecordAttachmentsCleaned(ctx, result.Deleted, result.Failed)
		c.log.Info("attachment cleanup sweep finished",
			zap.Int("deleted", result.Deleted),
			zap.Int("failed", result.Failed),
			zap.Time("cutoff", cutoff))
	}
	return result, nil
}

// purge removes the blob first; a row without a blob is a dangling
// reference, a blob without a row is only wasted space.
func (c *Cleaner) purge(ctx context.Context, att attachmentdomain.Attachment) error {
	if err := c.store.Delete(ctx, att.ObjectKey); err != nil {
		return err
	}
	return c.db.WithContext(ctx).Delete(&attachmentdomain.Attachment{}, "id = ?", att.ID).Error
}
