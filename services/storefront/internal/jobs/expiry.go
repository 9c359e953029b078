package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Expirer cancels orders whose payment deadline has passed.
type Expirer interface {
	ExpireOverduePayments(ctx context.Context) (int, error)
}

type ExpiryJob struct {
	Orders  Expirer
	Log     *slog.Logger
	Timeout time.Duration
}

func (j *ExpiryJob) Run(ctx context.Context) {
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	n, err := j.Orders.ExpireOverduePayments(ctx)
	if err != nil {
		j.Log.Error("payment_expiry_failed", "error", err)
		return
	}
	if n > 0 {
		j.Log.Info("payment_expiry_done", "cancelled", n)
	}
}

// Start schedules the job every interval. Overlapping runs are skipped.
// Call Shutdown on the returned scheduler to stop it.
func Start(ctx context.Context, interval time.Duration, job *ExpiryJob) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { job.Run(ctx) }),
		gocron.WithName("expire-overdue-payments"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, err
	}

	s.Start()
	return s, nil
}
