package services

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"

	"nexura/pkg/log"
)

// Ticker is a unit of background work run on an interval
type Ticker interface {
	Tick(ctx context.Context)
}

// StartScheduler runs the relay worker and the referral reconcile job.
// The caller owns the returned scheduler and must shut it down.
func (s *Service) StartScheduler(relay Ticker, relayInterval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	// every relay interval: submit due on-chain actions and check receipts
	_, err = sched.NewJob(
		gocron.DurationJob(relayInterval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), relayInterval)
			defer cancel()
			relay.Tick(ctx)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}

	// every 10 minutes: repair referral records left Inactive
	_, err = sched.NewJob(
		gocron.DurationJob(10*time.Minute),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			n, err := s.SyncReferrals(ctx)
			if err != nil {
				log.Errorf("[Scheduler] referral sync failed: %v", err)
				return
			}
			if n > 0 {
				log.Infof("[Scheduler] activated %d referral records", n)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	return sched, nil
}
