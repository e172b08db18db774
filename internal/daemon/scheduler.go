package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/ankittk/hardcheck/internal/bot"
	"github.com/ankittk/hardcheck/internal/config"
	"github.com/ankittk/hardcheck/internal/schedule"
	"github.com/ankittk/hardcheck/pkg/models"
)

// newScheduler registers the broadcast, reminder sweep and cleanup jobs. An empty expression
// disables that job.
func newScheduler(cfg config.Config, b *bot.Bot, loc *time.Location, now func() time.Time) (*schedule.Scheduler, error) {
	s := schedule.New(loc, now)
	jobs := []struct {
		name string
		spec string
		job  schedule.Job
	}{
		{models.EventBroadcast, cfg.Schedule.Broadcast, broadcastJob(b)},
		{models.EventReminderSweep, cfg.Schedule.Reminders, reminderJob(b)},
		{models.EventCleanup, cfg.Schedule.Cleanup, cleanupJob(b)},
	}
	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		if err := s.Add(j.name, j.spec, j.job); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func broadcastJob(b *bot.Bot) schedule.Job {
	return func(ctx context.Context) error {
		res := b.Broadcast(ctx)
		if res.Failed > 0 {
			return fmt.Errorf("%d of %d check-ins failed to send", res.Failed, res.Sent+res.Failed)
		}
		return nil
	}
}

func reminderJob(b *bot.Bot) schedule.Job {
	return func(ctx context.Context) error {
		res := b.ReminderSweep(ctx)
		if res.Failed > 0 {
			return fmt.Errorf("%d of %d reminders failed to send", res.Failed, res.Users)
		}
		return nil
	}
}

func cleanupJob(b *bot.Bot) schedule.Job {
	return func(ctx context.Context) error {
		b.Cleanup(ctx)
		return nil
	}
}

// tickInterval prefers the --interval flag over config.yaml.
func tickInterval(opts StartOptions, cfg config.Config) time.Duration {
	if opts.IntervalSec > 0 {
		return time.Duration(opts.IntervalSec * float64(time.Second))
	}
	return cfg.TickInterval
}
