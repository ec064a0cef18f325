package summary

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"token-pulse/internal/domain"
	"token-pulse/internal/observability"
)

// scheduleParser accepts 5- or 6-field specs and @descriptors.
var scheduleParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseSchedule parses a report schedule such as "@every 30s" or "*/10 * * * * *".
func ParseSchedule(spec string) (cron.Schedule, error) {
	return scheduleParser.Parse(spec)
}

// Source is the session the reporter digests.
type Source interface {
	Snapshot(ctx context.Context) ([]*domain.Token, error)
	ID() string
	Ticks() uint64
}

// Options contains configuration for creating a Reporter.
type Options struct {
	Source   Source
	Schedule string // default "@every 30s"
	TopN     int    // default 3
	Logger   *log.Logger
	// Sink receives every report. Default logs it.
	Sink func(Report)
}

// Reporter produces a Report on a cron schedule.
type Reporter struct {
	source Source
	topN   int
	logger *log.Logger
	sink   func(Report)
	cron   *cron.Cron

	mu   sync.RWMutex
	last *Report
}

// NewReporter creates a reporter and registers its schedule.
func NewReporter(opts Options) (*Reporter, error) {
	spec := opts.Schedule
	if spec == "" {
		spec = "@every 30s"
	}
	topN := opts.TopN
	if topN == 0 {
		topN = 3
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	r := &Reporter{
		source: opts.Source,
		topN:   topN,
		logger: logger,
		sink:   opts.Sink,
		cron:   cron.New(cron.WithParser(scheduleParser)),
	}
	if r.sink == nil {
		r.sink = func(rep Report) { logger.Printf("Summary\n%s", rep) }
	}

	if _, err := r.cron.AddFunc(spec, r.runScheduled); err != nil {
		return nil, fmt.Errorf("register summary schedule %q: %w", spec, err)
	}
	return r, nil
}

// Start starts the cron scheduler.
func (r *Reporter) Start() {
	r.cron.Start()
	r.logger.Println("Summary reporter started")
}

// Stop stops the scheduler and waits for a running report to finish.
func (r *Reporter) Stop() {
	<-r.cron.Stop().Done()
	r.logger.Println("Summary reporter stopped")
}

// RunNow builds, records and delivers a report immediately.
func (r *Reporter) RunNow(ctx context.Context) (Report, error) {
	tokens, err := r.source.Snapshot(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("snapshot: %w", err)
	}

	rep := Build(r.source.ID(), r.source.Ticks(), tokens, r.topN, time.Now())

	r.mu.Lock()
	r.last = &rep
	r.mu.Unlock()

	observability.RecordSummary(rep.TopAbsChange())
	r.sink(rep)
	return rep, nil
}

// Last returns the most recent report, or nil before the first run.
func (r *Reporter) Last() *Report {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return nil
	}
	rep := *r.last
	return &rep
}

func (r *Reporter) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := r.RunNow(ctx); err != nil {
		r.logger.Printf("Summary failed: %v", err)
	}
}
