// Package publisher coordinates the publish pipeline: authorize, persist,
// broadcast, then notify. Stage order is the delivery guarantee — once the
// append succeeds the alert is in every future history snapshot, the
// broadcast offers it to every currently connected session, and push/feed
// are best-effort extras that can degrade but never fail the publish.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/vigilhq/vigil/internal/domain/alert"
	"github.com/vigilhq/vigil/internal/domain/user"
	"github.com/vigilhq/vigil/internal/services/push"
)

var ErrUnauthorized = errors.New("publish requires the admin role")

var (
	mPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vigil_alerts_published_total",
		Help: "Alerts appended and broadcast.",
	})
	mStoreFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vigil_alert_store_failures_total",
		Help: "Publish attempts that failed at the append stage.",
	})
	mPushDegraded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vigil_push_degraded_total",
		Help: "Publishes whose push dispatch failed or partially failed.",
	})
	mFeedDegraded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vigil_feed_degraded_total",
		Help: "Publishes that could not be mirrored to the alert feed.",
	})
)

type Broadcaster interface {
	Broadcast(a *alert.Alert)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, a *alert.Alert) (*push.Report, error)
}

type FeedPublisher interface {
	Publish(ctx context.Context, a *alert.Alert) error
}

type Usecase struct {
	store alert.Store
	hub   Broadcaster
	push  Dispatcher
	feed  FeedPublisher // nil when no brokers are configured
	log   *zap.Logger

	// mu spans append through broadcast: without it two racing publishes
	// could fan out in the opposite order of their assigned ids, and a
	// session's wire would see id 2 before id 1.
	mu sync.Mutex
}

func NewUsecase(store alert.Store, hub Broadcaster, push Dispatcher, feed FeedPublisher, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{
		store: store,
		hub:   hub,
		push:  push,
		feed:  feed,
		log:   log.With(zap.String("component", "publisher")),
	}
}

// Publish runs the pipeline strictly in stage order. Only an authorization
// failure or a store failure is returned to the caller; everything past the
// append is contained here and logged.
func (u *Usecase) Publish(ctx context.Context, c alert.Candidate, requester *user.User) (*alert.Alert, error) {
	if requester == nil || !requester.IsAdmin() {
		return nil, ErrUnauthorized
	}

	u.mu.Lock()
	a, err := u.store.Append(ctx, c)
	if err != nil {
		u.mu.Unlock()
		mStoreFailures.Inc()
		return nil, fmt.Errorf("append alert: %w", err)
	}
	u.hub.Broadcast(a)
	u.mu.Unlock()

	mPublished.Inc()
	u.log.Info("alert published",
		zap.Int64("alert_id", a.ID),
		zap.String("priority", string(a.Priority)),
		zap.String("by", requester.Username),
	)

	report, err := u.push.Dispatch(ctx, a)
	switch {
	case err != nil:
		mPushDegraded.Inc()
		u.log.Warn("push dispatch failed", zap.Int64("alert_id", a.ID), zap.Error(err))
	case len(report.FailedTokens) > 0 || len(report.InvalidTokens) > 0:
		mPushDegraded.Inc()
		u.log.Warn("push dispatch degraded",
			zap.Int64("alert_id", a.ID),
			zap.Int("attempted", report.Attempted),
			zap.Int("succeeded", report.Succeeded),
		)
	}

	if u.feed != nil {
		if err := u.feed.Publish(ctx, a); err != nil {
			mFeedDegraded.Inc()
			u.log.Warn("feed publish failed", zap.Int64("alert_id", a.ID), zap.Error(err))
		}
	}

	return a, nil
}

// History reads the full log, newest first.
func (u *Usecase) History(ctx context.Context) ([]*alert.Alert, error) {
	return u.store.List(ctx)
}

// HistoryBefore pages backwards from beforeID, newest first.
func (u *Usecase) HistoryBefore(ctx context.Context, beforeID int64, limit int) ([]*alert.Alert, error) {
	return u.store.ListBefore(ctx, beforeID, limit)
}
