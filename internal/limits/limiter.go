// Package limits enforces the free tier's daily quotas on detail views and
// searches. Usage is kept in one record per device-local calendar day.
//
// A storage fault never blocks the user: reads that fail are treated as
// allowed and nothing is recorded.
package limits

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jengzang/dialysis-locator-go/internal/models"
	"github.com/jengzang/dialysis-locator-go/internal/repository"
)

const (
	MaxViews    = 5
	MaxSearches = 5

	// RecordKey is the KV key of the persisted DailyLimitRecord.
	RecordKey = "daily_limits"

	dateLayout = "2006-01-02"
)

// Limiter tracks the daily view and search quotas.
type Limiter struct {
	mu    sync.Mutex
	store repository.KVStore
	now   func() time.Time
	log   logrus.FieldLogger
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock sets the clock; the date is taken in the returned time's location.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(l *Limiter) { l.log = log }
}

// New creates a limiter over store.
func New(store repository.KVStore, opts ...Option) *Limiter {
	l := &Limiter{
		store: store,
		now:   time.Now,
		log:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CanViewDetail reports whether opening the detail view for id is allowed.
// Ids already viewed today are always allowed.
func (l *Limiter) CanViewDetail(ctx context.Context, id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.load(ctx)
	if !ok {
		return true
	}
	return rec.HasViewed(id) || len(rec.ViewedIDs) < MaxViews
}

// RecordView records a view of id. It returns false, recording nothing,
// when the quota is used up.
func (l *Limiter) RecordView(ctx context.Context, id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.load(ctx)
	if !ok {
		return true
	}
	if rec.HasViewed(id) {
		return true
	}
	if len(rec.ViewedIDs) >= MaxViews {
		return false
	}
	rec.ViewedIDs = append(rec.ViewedIDs, id)
	l.save(ctx, rec)
	return true
}

// CanSearch reports whether another search is allowed today.
func (l *Limiter) CanSearch(ctx context.Context) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.load(ctx)
	if !ok {
		return true
	}
	return rec.SearchCount < MaxSearches
}

// RecordSearch counts a search. It returns false, recording nothing,
// when the quota is used up.
func (l *Limiter) RecordSearch(ctx context.Context) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.load(ctx)
	if !ok {
		return true
	}
	if rec.SearchCount >= MaxSearches {
		return false
	}
	rec.SearchCount++
	l.save(ctx, rec)
	return true
}

// IsLimitReached reports whether either quota is exhausted.
func (l *Limiter) IsLimitReached(ctx context.Context) bool {
	return l.Status(ctx).LimitReached
}

// Status summarizes today's usage.
func (l *Limiter) Status(ctx context.Context) models.LimitStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.load(ctx)
	if !ok {
		return models.LimitStatus{
			Date:              l.today(),
			ViewsRemaining:    MaxViews,
			SearchesRemaining: MaxSearches,
		}
	}
	views, searches := len(rec.ViewedIDs), rec.SearchCount
	return models.LimitStatus{
		Date:              rec.Date,
		ViewsUsed:         views,
		ViewsRemaining:    max(MaxViews-views, 0),
		SearchesUsed:      searches,
		SearchesRemaining: max(MaxSearches-searches, 0),
		LimitReached:      views >= MaxViews || searches >= MaxSearches,
	}
}

func (l *Limiter) today() string {
	return l.now().Format(dateLayout)
}

// load returns today's record, replacing a missing, malformed or expired
// one with an empty record. ok is false when storage could not be read.
// Callers hold mu, so the rollover and the check that follows are atomic.
func (l *Limiter) load(ctx context.Context) (*models.DailyLimitRecord, bool) {
	today := l.today()

	raw, found, err := l.store.Get(ctx, RecordKey)
	if err != nil {
		l.log.Warnf("[DailyLimiter] storage read failed, allowing: %v", err)
		return nil, false
	}

	var rec models.DailyLimitRecord
	if found {
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			l.log.Debugf("[DailyLimiter] discarding malformed record: %v", err)
			rec = models.DailyLimitRecord{}
		}
	}

	if rec.Date != today {
		rec = models.DailyLimitRecord{Date: today, ViewedIDs: []string{}}
		l.save(ctx, &rec)
	}
	return &rec, true
}

func (l *Limiter) save(ctx context.Context, rec *models.DailyLimitRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		l.log.Errorf("[DailyLimiter] failed to encode record: %v", err)
		return
	}
	if err := l.store.Set(ctx, RecordKey, string(data)); err != nil {
		l.log.Warnf("[DailyLimiter] storage write failed: %v", err)
	}
}
