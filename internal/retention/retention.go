// Package retention purges messages past the cutoff age on a cron
// schedule. The chat only ever serves the most recent window, so old rows
// are dead weight the sweeper trims.
package retention

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/adhocore/gronx"

	"teamchat/internal/message"
	"teamchat/internal/metrics"
)

type Sweeper struct {
	repo *message.Repository
	cron string
	days int
}

// Start validates the cron expression and launches the scheduler. An empty
// expression disables the sweeper. Returns a cancel func.
func Start(ctx context.Context, repo *message.Repository, cronExpr string, days int) (context.CancelFunc, error) {
	if cronExpr == "" || days <= 0 {
		log.Println("[Retention] disabled")
		return func() {}, nil
	}
	if !gronx.IsValid(cronExpr) {
		return nil, fmt.Errorf("invalid retention cron expression: %s", cronExpr)
	}

	s := &Sweeper{repo: repo, cron: cronExpr, days: days}
	ctx, cancel := context.WithCancel(ctx)
	go s.run(ctx)

	log.Printf("[Retention] scheduled %q, cutoff %dd", cronExpr, days)
	return cancel, nil
}

func (s *Sweeper) run(ctx context.Context) {
	for {
		next, err := gronx.NextTickAfter(s.cron, time.Now(), false)
		if err != nil {
			log.Printf("[Retention] schedule error: %v", err)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
			s.sweep(ctx)
		}
	}
}

// Sweep runs one purge immediately. Exposed for the admin trigger.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -s.days)
	n, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return n, err
	}
	metrics.MessagesPurged.Add(float64(n))
	return n, nil
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.Sweep(ctx)
	if err != nil {
		log.Printf("[Retention] sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[Retention] purged %d messages", n)
	}
}
