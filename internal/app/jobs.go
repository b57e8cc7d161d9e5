package app

import (
	"context"
	"fmt"
	"time"

	"github.com/araddon/dateparse"
	"github.com/montanaflynn/stats"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/campushop/campushop/internal/domain"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// pendingReminderAge is how long an order may sit pending before the
// operator channel gets a nudge.
const pendingReminderAge = 6 * time.Hour

func (a *Application) initJob() {
	loc, _ := time.LoadLocation(a.appConfig.System.Location)
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	var err error
	_, err = a.sched.AddFunc("@hourly", func() {
		removed := a.limiter.Prune()
		if removed > 0 {
			zap.S().Debugf("rate limiter pruned %d idle keys", removed)
		}
		if err := a.resJrnl.PruneCommitted(72 * time.Hour); err != nil {
			zap.S().Warnf("journal prune failed: %v", err)
		}
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@every 30m", func() {
		a.SchedPendingOrderReminder()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@daily", func() {
		a.SchedDailySalesSummary()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}
}

// StartBackgroundJobs starts the cron runner and stops it on ctx cancel.
func (a *Application) StartBackgroundJobs(ctx context.Context) {
	a.sched.Start()
	go func() {
		<-ctx.Done()
		a.sched.Stop()
	}()
}

// SchedPendingOrderReminder pings the operator channel about orders that
// have been waiting on a decision for too long. Notification failures on
// submission make this the safety net besides the admin panel.
func (a *Application) SchedPendingOrderReminder() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	all, err := a.orders.All(ctx)
	if err != nil {
		zap.S().Warnf("pending reminder: load orders failed: %v", err)
		return
	}

	now := time.Now()
	stale := 0
	for _, o := range all {
		if o.Status != domain.OrderPending {
			continue
		}
		created, err := dateparse.ParseLocal(o.Date)
		if err != nil {
			zap.S().Debugf("pending reminder: unparseable date %q on %s", o.Date, o.ID)
			continue
		}
		if now.Sub(created) >= pendingReminderAge {
			stale++
		}
	}
	if stale == 0 {
		return
	}
	msg := fmt.Sprintf("⏳ %d order(s) pending for more than %s, check the admin panel.", stale, pendingReminderAge)
	if err := a.notifier.SendText(msg); err != nil {
		zap.S().Warnf("pending reminder: send failed: %v", err)
	}
}

// SchedDailySalesSummary posts yesterday-inclusive ledger aggregates to
// the operator channel.
func (a *Application) SchedDailySalesSummary() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sales, err := a.orders.Sales(ctx)
	if err != nil {
		zap.S().Warnf("sales summary: load ledger failed: %v", err)
		return
	}

	cutoff := time.Now().Add(-24 * time.Hour)
	var totals, profits []float64
	for _, s := range sales {
		at, err := dateparse.ParseLocal(s.Date)
		if err != nil || at.Before(cutoff) {
			continue
		}
		totals = append(totals, s.Total)
		profits = append(profits, s.Profit)
	}
	if len(totals) == 0 {
		return
	}

	sum, _ := stats.Sum(totals)
	mean, _ := stats.Mean(totals)
	profit, _ := stats.Sum(profits)
	msg := fmt.Sprintf("📊 Last 24h: %d sale(s), revenue %.2f, avg order %.2f, profit %.2f",
		len(totals), sum, mean, profit)
	if err := a.notifier.SendText(msg); err != nil {
		zap.S().Warnf("sales summary: send failed: %v", err)
	}
}
