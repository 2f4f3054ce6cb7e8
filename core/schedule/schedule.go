// Package schedule revalues books on cron schedules.
// Specs carry a leading seconds field, e.g. "0 */15 * * * *".
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"option-lattice/core/book"
)

var parser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSpec reports whether spec parses with a seconds field
func ValidateSpec(spec string) error {
	_, err := parser.Parse(spec)
	return err
}

// Sink receives every completed valuation
type Sink func(*book.Valuation)

// Entry describes one scheduled book
type Entry struct {
	ID   cron.EntryID
	Spec string
	Book string
	Next time.Time
}

// Scheduler manages the cron jobs that revalue books
type Scheduler struct {
	cron     *cron.Cron
	valuer   *book.Valuer
	defaults book.Defaults
	sink     Sink
	logger   *zap.Logger
	ctx      context.Context

	mu    sync.Mutex
	specs map[cron.EntryID]Entry
	runs  int
	fails int
}

// New creates a scheduler. Jobs that are still running when their next tick
// fires are skipped rather than stacked.
func New(ctx context.Context, valuer *book.Valuer, defaults book.Defaults, sink Sink, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := cronLogger{logger.Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		valuer:   valuer,
		defaults: defaults,
		sink:     sink,
		logger:   logger,
		ctx:      ctx,
		specs:    make(map[cron.EntryID]Entry),
	}
}

// Add schedules revaluation of the book at path
func (s *Scheduler) Add(spec, path string) (cron.EntryID, error) {
	id, err := s.cron.AddFunc(spec, func() {
		_, _ = s.RunNow(path)
	})
	if err != nil {
		return 0, fmt.Errorf("schedule %s: %w", path, err)
	}

	s.mu.Lock()
	s.specs[id] = Entry{ID: id, Spec: spec, Book: path}
	s.mu.Unlock()

	s.logger.Info("book scheduled", zap.String("book", path), zap.String("spec", spec))
	return id, nil
}

// RunNow reloads the book at path and values it. The book is re-read on every
// run so edits are picked up without a restart.
func (s *Scheduler) RunNow(path string) (*book.Valuation, error) {
	b, err := book.Load(path, s.defaults)
	if err != nil {
		s.recordRun(false)
		s.logger.Error("load book", zap.String("book", path), zap.Error(err))
		return nil, err
	}

	val, err := s.valuer.Value(s.ctx, b)
	if err != nil {
		s.recordRun(false)
		s.logger.Error("value book", zap.String("book", path), zap.Error(err))
		return nil, err
	}

	s.recordRun(true)
	if s.sink != nil {
		s.sink(val)
	}
	return val, nil
}

func (s *Scheduler) recordRun(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs++
	if !ok {
		s.fails++
	}
}

// Stats returns how many runs happened and how many of them failed
func (s *Scheduler) Stats() (runs, fails int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs, s.fails
}

// Entries returns scheduled books with their next run time
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []Entry
	for _, ce := range s.cron.Entries() {
		e, ok := s.specs[ce.ID]
		if !ok {
			continue
		}
		e.Next = ce.Next
		entries = append(entries, e)
	}
	return entries
}

// Start starts the cron scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop stops the scheduler and waits for running valuations to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// cronLogger routes cron's own logging through zap
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
