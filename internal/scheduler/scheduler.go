package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"controlling_pod/internal/health"
	"controlling_pod/internal/logger"
	"controlling_pod/internal/models"
	"controlling_pod/internal/schedule"

	"github.com/robfig/cron/v3"
)

// ErrHandlerFailure wraps anything a fired handler returned or panicked with.
var ErrHandlerFailure = errors.New("handler failure")

// Handler performs the action bound to a trigger.
type Handler func(ctx context.Context, t schedule.Trigger) error

// Outcome describes one finished firing.
type Outcome struct {
	Key      string
	Trigger  schedule.Trigger
	Started  time.Time
	Duration time.Duration
	Err      error
}

type ReconcileResult struct {
	Added    []string `json:"added"`
	Removed  []string `json:"removed"`
	Replaced []string `json:"replaced"`
	Kept     []string `json:"kept"`
}

// JobInfo is the externally visible view of one registered trigger.
type JobInfo struct {
	Key         string              `json:"key"`
	Kind        schedule.Kind       `json:"kind"`
	Side        models.Side         `json:"side,omitempty"`
	Description string              `json:"description"`
	TimeZone    string              `json:"timeZone"`
	Next        time.Time           `json:"next"`
	LastRun     time.Time           `json:"lastRun,omitempty"`
	Runs        int                 `json:"runs"`
	Health      models.HealthRecord `json:"health"`
}

type Option func(*Scheduler)

// WithOutcome registers a callback invoked after every firing.
func WithOutcome(fn func(Outcome)) Option {
	return func(s *Scheduler) { s.onOutcome = fn }
}

// WithClock overrides time.Now, used for next-fire reporting.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithContext sets the context handed to handlers.
func WithContext(ctx context.Context) Option {
	return func(s *Scheduler) { s.ctx = ctx }
}

type jobStatus struct {
	lastRun time.Time
	runs    int
	record  models.HealthRecord
}

// Scheduler keeps one weekly cron entry per trigger key. Trigger definitions
// survive Stop/Start; cron entries exist only while started.
type Scheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	handler Handler
	store   *health.Store
	log     *logger.Logger
	ctx     context.Context
	now     func() time.Time

	onOutcome func(Outcome)

	started  bool
	triggers map[string]schedule.Trigger
	entries  map[string]*entry
	// one run lock per key, kept across replace, stop and start
	runLocks map[string]*sync.Mutex

	statusMu sync.Mutex
	status   map[string]*jobStatus
}

func New(handler Handler, store *health.Store, log *logger.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		cron:     cron.New(cron.WithLogger(log.Cron())),
		handler:  handler,
		store:    store,
		log:      log,
		ctx:      context.Background(),
		now:      time.Now,
		triggers: make(map[string]schedule.Trigger),
		entries:  make(map[string]*entry),
		runLocks: make(map[string]*sync.Mutex),
		status:   make(map[string]*jobStatus),
	}
	for _, opt := range opts {
		opt(s)
	}
	store.Set(health.Jobs, models.StatusNotStarted, "")
	return s
}

// Reconcile diffs ts against the registered set by key. Unchanged triggers
// keep their timers. A trigger whose key is unchanged but whose fire time or
// zone moved is replaced.
func (s *Scheduler) Reconcile(ts []schedule.Trigger) ReconcileResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res ReconcileResult
	next := make(map[string]schedule.Trigger, len(ts))
	for _, t := range ts {
		next[t.Key] = t
	}

	for key := range s.triggers {
		if _, ok := next[key]; !ok {
			s.unregister(key)
			delete(s.triggers, key)
			s.dropStatus(key)
			res.Removed = append(res.Removed, key)
		}
	}

	for key, t := range next {
		old, exists := s.triggers[key]
		switch {
		case !exists:
			res.Added = append(res.Added, key)
		case sameFireTime(old, t):
			res.Kept = append(res.Kept, key)
			continue
		default:
			s.unregister(key)
			res.Replaced = append(res.Replaced, key)
		}
		s.triggers[key] = t
		if s.started {
			s.register(t)
		}
	}

	sort.Strings(res.Added)
	sort.Strings(res.Removed)
	sort.Strings(res.Replaced)
	sort.Strings(res.Kept)
	s.log.Infow("jobs_reconciled",
		"added", len(res.Added), "removed", len(res.Removed),
		"replaced", len(res.Replaced), "kept", len(res.Kept))
	return res
}

func sameFireTime(a, b schedule.Trigger) bool {
	return a.Weekday == b.Weekday && a.Hour == b.Hour && a.Minute == b.Minute && a.TimeZone == b.TimeZone
}

// Start arms every registered trigger. Calling it twice is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	for _, t := range s.triggers {
		s.register(t)
	}
	s.cron.Start()
	s.started = true
	s.store.Healthy(health.Jobs)
	s.log.Infow("scheduler_started", "jobs", len(s.triggers))
}

// Stop disarms every trigger. Once it returns no new firing begins; firings
// already in progress run to completion and still record their outcome.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	for key := range s.entries {
		s.unregister(key)
	}
	s.cron.Stop()
	s.started = false
	s.store.Set(health.Jobs, models.StatusNotStarted, "")
	s.log.Infow("scheduler_stopped")
}

// Running reports whether Start has been called without a later Stop.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Snapshot lists registered triggers ordered by their next fire time.
func (s *Scheduler) Snapshot() []JobInfo {
	s.mu.Lock()
	ts := make([]schedule.Trigger, 0, len(s.triggers))
	for _, t := range s.triggers {
		ts = append(ts, t)
	}
	s.mu.Unlock()

	now := s.now()
	out := make([]JobInfo, 0, len(ts))
	for _, t := range ts {
		info := JobInfo{
			Key:         t.Key,
			Kind:        t.Kind,
			Side:        t.Side,
			Description: schedule.Describe(t),
			TimeZone:    t.TimeZone,
			Next:        NextOccurrence(t.Weekday, t.Hour, t.Minute, t.Location, now),
			Health:      health.Blank(t.Key),
		}
		info.Health.Description = info.Description
		if st := s.jobStatus(t.Key); st != nil {
			info.LastRun, info.Runs, info.Health = st.lastRun, st.runs, st.record
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Next.Equal(out[j].Next) {
			return out[i].Next.Before(out[j].Next)
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Fire runs the handler for key right away, outside its weekly slot. It shares
// the per-trigger serialization with scheduled firings.
func (s *Scheduler) Fire(key string) (Outcome, error) {
	s.mu.Lock()
	e, ok := s.entries[key]
	t, known := s.triggers[key]
	if known && !ok {
		// not armed; still serialized with any firing of the same key
		e = &entry{trigger: t, s: s, run: s.runLock(key)}
	}
	s.mu.Unlock()
	if !known {
		return Outcome{}, fmt.Errorf("unknown job %q", key)
	}
	return e.fire(), nil
}

// register must be called with s.mu held.
func (s *Scheduler) register(t schedule.Trigger) {
	e := &entry{trigger: t, s: s, run: s.runLock(t.Key)}
	e.id = s.cron.Schedule(weekly{weekday: t.Weekday, hour: t.Hour, minute: t.Minute, loc: t.Location}, e)
	s.entries[t.Key] = e
}

// runLock must be called with s.mu held.
func (s *Scheduler) runLock(key string) *sync.Mutex {
	l, ok := s.runLocks[key]
	if !ok {
		l = &sync.Mutex{}
		s.runLocks[key] = l
	}
	return l
}

// unregister must be called with s.mu held.
func (s *Scheduler) unregister(key string) {
	e, ok := s.entries[key]
	if !ok {
		return
	}
	e.cancel()
	s.cron.Remove(e.id)
	delete(s.entries, key)
}

func (s *Scheduler) invoke(t schedule.Trigger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrHandlerFailure, r)
		}
	}()
	if err := s.handler(s.ctx, t); err != nil {
		return fmt.Errorf("%w: %w", ErrHandlerFailure, err)
	}
	return nil
}

func (s *Scheduler) record(o Outcome) {
	s.statusMu.Lock()
	st, ok := s.status[o.Key]
	if !ok {
		st = &jobStatus{record: health.Blank(o.Key)}
		st.record.Description = schedule.Describe(o.Trigger)
		s.status[o.Key] = st
	}
	st.lastRun = o.Started
	st.runs++
	if o.Err != nil {
		st.record.Status, st.record.Message = models.StatusFailed, o.Err.Error()
	} else {
		st.record.Status, st.record.Message = models.StatusHealthy, ""
	}
	s.statusMu.Unlock()

	if o.Err != nil {
		s.log.Errorw("job_failed", "key", o.Key, "duration", o.Duration, "error", o.Err)
	} else {
		s.log.Infow("job_succeeded", "key", o.Key, "duration", o.Duration)
	}
	if s.onOutcome != nil {
		s.onOutcome(o)
	}
}

func (s *Scheduler) jobStatus(key string) *jobStatus {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	st, ok := s.status[key]
	if !ok {
		return nil
	}
	cp := *st
	return &cp
}

func (s *Scheduler) dropStatus(key string) {
	s.statusMu.Lock()
	delete(s.status, key)
	s.statusMu.Unlock()
}
