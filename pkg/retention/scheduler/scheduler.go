package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention/engine"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention/policy"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/telemetry/metrics"
)

// Config contains configuration for the scheduler.
type Config struct {
	// TickInterval is how often the scheduler evaluates policy schedules.
	TickInterval time.Duration `yaml:"tick_interval" json:"tick_interval"`

	// MaxConcurrent bounds simultaneous policy executions.
	MaxConcurrent int `yaml:"max_concurrent" json:"max_concurrent"`
}

// DefaultConfig returns a scheduler configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		TickInterval:  30 * time.Second,
		MaxConcurrent: 4,
	}
}

// dueEntry caches a policy's next scheduled run together with the schedule
// it was computed from, so schedule edits recompute on the next tick.
type dueEntry struct {
	schedule string
	next     time.Time
}

// Scheduler drives policy executions from their cron schedules. Each tick
// it loads the enabled policies, fires the ones whose next-due time has
// passed, and skips policies that still have a run in flight.
type Scheduler struct {
	config   *Config
	policies policy.Store
	engine   *engine.Engine
	metrics  *metrics.Collector
	logger   *slog.Logger

	// now is the clock used for due computation.
	now func() time.Time

	sem      chan struct{}
	reloadCh chan struct{}
	stopCh   chan struct{}
	wg       sync.WaitGroup

	mu       sync.Mutex
	started  bool
	stopped  bool
	lastTick time.Time
	inFlight map[string]struct{}
	nextDue  map[string]dueEntry
}

// New creates a scheduler. The scheduler is inert until Start; TriggerNow
// works without Start for one-shot manual executions.
func New(config *Config, policies policy.Store, eng *engine.Engine, collector *metrics.Collector) *Scheduler {
	if config == nil {
		config = DefaultConfig()
	}
	return &Scheduler{
		config:   config,
		policies: policies,
		engine:   eng,
		metrics:  collector,
		logger:   slog.Default().With("component", "retention.scheduler"),
		now:      time.Now,
		sem:      make(chan struct{}, config.MaxConcurrent),
		reloadCh: make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		inFlight: make(map[string]struct{}),
		nextDue:  make(map[string]dueEntry),
	}
}

// Start launches the tick loop. The first evaluation runs immediately;
// subsequent evaluations run every TickInterval. Canceling ctx aborts
// in-flight executions; use Stop for a graceful drain.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already started")
	}
	if s.stopped {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already stopped")
	}
	s.started = true
	s.mu.Unlock()

	s.logger.Info("scheduler started",
		"tick_interval", s.config.TickInterval,
		"max_concurrent", s.config.MaxConcurrent)

	s.wg.Add(1)
	go s.loop(ctx)
	return nil
}

// loop is the scheduler's tick loop. Reload pokes force an immediate
// evaluation between ticks.
func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-s.reloadCh:
			s.tick(ctx)
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick evaluates every enabled policy's schedule and launches the due ones.
func (s *Scheduler) tick(ctx context.Context) {
	now := s.now().UTC()

	s.mu.Lock()
	s.lastTick = now
	s.mu.Unlock()
	s.metrics.RecordTick(now)

	enabled := true
	policies, err := s.policies.List(ctx, &retention.PolicyFilter{Enabled: &enabled})
	if err != nil {
		s.logger.Error("failed to load policies for tick", "error", err)
		return
	}
	s.metrics.SetPoliciesEnabled(len(policies))

	s.mu.Lock()
	previous := s.nextDue
	due := make(map[string]dueEntry, len(policies))
	var launch []*retention.Policy

	for _, p := range policies {
		schedule, err := cron.ParseStandard(p.Schedule)
		if err != nil {
			s.logger.Warn("skipping policy with unparseable schedule",
				"policy_id", p.ID,
				"policy", p.Name,
				"schedule", p.Schedule,
				"error", err)
			continue
		}

		entry, seen := previous[p.ID]
		if !seen || entry.schedule != p.Schedule {
			// New or edited policy: it runs at its next cron time, not
			// immediately.
			due[p.ID] = dueEntry{schedule: p.Schedule, next: schedule.Next(now)}
			continue
		}

		if entry.next.After(now) {
			due[p.ID] = entry
			continue
		}

		// Due. A skipped occurrence is not queued; either way the policy
		// waits for its next cron time.
		due[p.ID] = dueEntry{schedule: p.Schedule, next: schedule.Next(now)}
		if _, busy := s.inFlight[p.ID]; busy {
			concErr := retention.NewConcurrencyError(p.ID)
			s.logger.Warn("skipping due execution, policy already in flight",
				"policy_id", p.ID,
				"policy", p.Name,
				"error", concErr)
			s.metrics.RecordSchedulerSkip(p.Name)
			continue
		}
		s.inFlight[p.ID] = struct{}{}
		launch = append(launch, p)
	}
	s.nextDue = due
	s.mu.Unlock()

	for _, p := range launch {
		s.wg.Add(1)
		go s.execute(ctx, p)
	}
}

// execute runs one scheduled policy on the worker pool. The caller has
// already claimed the policy's in-flight slot.
func (s *Scheduler) execute(ctx context.Context, p *retention.Policy) {
	defer s.wg.Done()
	defer s.release(p.ID)

	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		return
	case <-s.stopCh:
		return
	}

	if _, err := s.engine.Execute(ctx, p, false); err != nil {
		s.logger.Error("scheduled execution could not be tracked",
			"policy_id", p.ID,
			"policy", p.Name,
			"error", err)
	}
}

// TriggerNow synchronously executes one policy outside its schedule. It
// honors the single-flight rule (ConcurrencyError if the policy already has
// a run in flight) and the concurrency bound, and works whether or not the
// tick loop is running.
func (s *Scheduler) TriggerNow(ctx context.Context, policyID string, dryRun bool) (*retention.ExecutionRecord, error) {
	p, err := s.policies.Get(ctx, policyID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil, fmt.Errorf("scheduler is stopped")
	}
	if _, busy := s.inFlight[p.ID]; busy {
		s.mu.Unlock()
		return nil, retention.NewConcurrencyError(p.ID)
	}
	s.inFlight[p.ID] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	defer s.release(p.ID)

	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for an execution slot: %w", ctx.Err())
	}

	return s.engine.Execute(ctx, p, dryRun)
}

// Reload asks the tick loop to re-evaluate the policy set immediately.
// Called after policy writes and by the seed-file watcher; a no-op when the
// loop is not running.
func (s *Scheduler) Reload(ctx context.Context) {
	select {
	case s.reloadCh <- struct{}{}:
	default:
		// An evaluation is already pending.
	}
}

// Stop halts the tick loop and waits, bounded by ctx, for in-flight
// executions to drain. Executions queued on the concurrency bound but not
// yet started are abandoned.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()
	close(s.stopCh)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for in-flight executions to drain: %w", ctx.Err())
	}
}

// Running returns the IDs of policies with an execution in flight, sorted.
func (s *Scheduler) Running() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.inFlight))
	for id := range s.inFlight {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LastTick returns when the tick loop last evaluated the policy set, zero
// before the first evaluation. The health probe treats a tick older than
// three intervals as unhealthy.
func (s *Scheduler) LastTick() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTick
}

// NextRun returns the policy's next scheduled run, nil when the policy is
// unknown to the tick loop.
func (s *Scheduler) NextRun(policyID string) *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.nextDue[policyID]
	if !ok {
		return nil
	}
	next := entry.next
	return &next
}

// release clears a policy's in-flight slot.
func (s *Scheduler) release(policyID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, policyID)
}
