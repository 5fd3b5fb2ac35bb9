package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"
	"github.com/dustin/go-humanize"
	"github.com/heyfriend/heyfriend/internal/store"
	"go.uber.org/zap"
)

// Janitor deletes uploaded blobs that nothing refers to once they are older
// than the grace period. Sweeps follow a cron schedule.
type Janitor struct {
	db       *store.DB
	schedule string
	grace    time.Duration
	metrics  *Metrics
	logger   *zap.Logger
	now      func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewJanitor validates the configured schedule.
func NewJanitor(p Params, db *store.DB, metrics *Metrics, logger *zap.Logger) (*Janitor, error) {
	cfg := p.server()
	if !gronx.IsValid(cfg.JanitorSchedule) {
		return nil, fmt.Errorf("invalid janitor schedule %q", cfg.JanitorSchedule)
	}
	return &Janitor{
		db:       db,
		schedule: cfg.JanitorSchedule,
		grace:    cfg.BlobGrace,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Start runs sweeps in the background until Stop or ctx cancellation.
func (j *Janitor) Start(ctx context.Context) {
	ctx, j.cancel = context.WithCancel(ctx)
	j.done = make(chan struct{})
	j.logger.Info("blob janitor scheduled", zap.String("schedule", j.schedule), zap.Duration("grace", j.grace))
	go j.loop(ctx)
}

// Stop cancels the loop and waits for it to exit.
func (j *Janitor) Stop() {
	if j.cancel == nil {
		return
	}
	j.cancel()
	<-j.done
}

func (j *Janitor) loop(ctx context.Context) {
	defer close(j.done)
	for {
		now := j.now()
		next, err := gronx.NextTickAfter(j.schedule, now, false)
		if err != nil {
			j.logger.Error("janitor schedule", zap.Error(err))
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(next.Sub(now)):
			_, _ = j.RunOnce()
		}
	}
}

// RunOnce performs a single sweep.
func (j *Janitor) RunOnce() (store.PruneResult, error) {
	cutoff := j.now().Add(-j.grace)
	res, err := j.db.PruneBlobs(cutoff)
	if err != nil {
		j.logger.Error("blob sweep failed", zap.Error(err))
		return res, err
	}
	if j.metrics != nil {
		j.metrics.prunedBlobs(res.Blobs, res.Bytes)
	}
	if res.Blobs > 0 {
		j.logger.Info("blobs pruned",
			zap.Int64("count", res.Blobs),
			zap.String("freed", humanize.Bytes(uint64(res.Bytes))),
		)
	} else {
		j.logger.Debug("blob sweep found nothing")
	}
	return res, nil
}
