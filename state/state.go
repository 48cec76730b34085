// Package state records named timed phases of a build and reports them to
// the state log.
package state

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Tracker accumulates wall-clock time per phase label. Phases may repeat;
// elapsed time adds up.
type Tracker struct {
	mu      sync.Mutex
	logger  *zap.Logger
	started map[string]time.Time
	elapsed map[string]time.Duration
}

// NewTracker builds a Tracker reporting to logger.
func NewTracker(logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		logger:  logger,
		started: make(map[string]time.Time),
		elapsed: make(map[string]time.Duration),
	}
}

// SetLogger redirects phase reporting, used once the state log file handler
// is attached.
func (t *Tracker) SetLogger(l *zap.Logger) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if l != nil {
		t.logger = l
	}
}

// Start opens the named phase.
func (t *Tracker) Start(label string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.started[label] = time.Now()
	t.logger.Info("start", zap.String("state", label))
}

// Finish closes the named phase and accumulates its duration. Finishing a
// phase that never started is ignored.
func (t *Tracker) Finish(label string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	begin, ok := t.started[label]
	if !ok {
		return
	}
	delete(t.started, label)
	d := time.Since(begin)
	t.elapsed[label] += d
	t.logger.Info("finish", zap.String("state", label), zap.Duration("elapsed", d))
}

// Elapsed returns the accumulated duration of the named phase.
func (t *Tracker) Elapsed(label string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsed[label]
}
