package application

import (
	"context"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/essaycoach/pkg/domain/analysis"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/realtime"
)

// SchedulerConfig tunes when realtime analysis runs.
type SchedulerConfig struct {
	// Debounce is the quiet period after the last change before a cycle starts.
	Debounce time.Duration
	// MinLength is the content length (in characters) that must be exceeded.
	MinLength int
}

// DefaultSchedulerConfig returns a 2s debounce and a 50 character minimum.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{Debounce: 2 * time.Second, MinLength: 50}
}

// Snapshot is an accepted realtime analysis together with its derived suggestions.
type Snapshot struct {
	Seq         uint64                   `json:"seq"`
	Analysis    realtime.ContentAnalysis `json:"analysis"`
	Suggestions []realtime.Suggestion    `json:"suggestions"`
}

// Listener receives accepted snapshots in increasing Seq order.
type Listener func(Snapshot)

// SchedulerStats counts analysis cycles.
type SchedulerStats struct {
	Issued    uint64 `json:"issued"`
	Applied   uint64 `json:"applied"`
	Discarded uint64 `json:"discarded"`
	// Failed counts cycles where every axis failed; they leave the current snapshot untouched.
	Failed uint64 `json:"failed"`
}

// RealtimeScheduler debounces content changes and runs one four-axis
// analysis per settled edit. Only the newest cycle may update the snapshot;
// results from older cycles are discarded.
type RealtimeScheduler struct {
	id       string
	runner   AxisRunner
	cfg      SchedulerConfig
	template analysis.Request
	logger   *slog.Logger

	mu           sync.Mutex
	fsm          *schedulerFSM
	timer        *time.Timer
	timerGen     uint64
	pending      string
	highest      uint64
	lastAnalyzed string
	current      *Snapshot
	stats        SchedulerStats
	listener     Listener
	disposed     bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	deliverMu sync.Mutex
	delivered uint64
}

// NewRealtimeScheduler creates a scheduler. template supplies the document
// type, tone and context for every request; its content and action are ignored.
func NewRealtimeScheduler(runner AxisRunner, cfg SchedulerConfig, template analysis.Request, logger *slog.Logger) (*RealtimeScheduler, error) {
	def := DefaultSchedulerConfig()
	if cfg.Debounce <= 0 {
		cfg.Debounce = def.Debounce
	}
	if cfg.MinLength < 0 {
		cfg.MinLength = 0
	}
	if logger == nil {
		logger = slog.Default()
	}

	id := uuid.NewString()
	fsm, err := newSchedulerFSM(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &RealtimeScheduler{
		id:       id,
		runner:   runner,
		cfg:      cfg,
		template: template,
		logger:   logger.With("scheduler_id", id),
		fsm:      fsm,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// SetListener registers the callback for accepted snapshots.
func (s *RealtimeScheduler) SetListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = l
}

// OnChange reports new editor content. Every change cancels the pending
// debounce; a new one is armed only when the content is long enough and
// differs from the last successfully analyzed content.
func (s *RealtimeScheduler) OnChange(content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return ErrSessionDisposed
	}

	s.stopTimerLocked()

	if utf8.RuneCountInString(content) <= s.cfg.MinLength || content == s.lastAnalyzed {
		if s.fsm.current() == SchedulerPending {
			s.fsm.send(eventSkip)
		}
		return nil
	}

	s.pending = content
	s.timerGen++
	gen := s.timerGen
	s.timer = time.AfterFunc(s.cfg.Debounce, func() { s.settle(gen) })
	s.fsm.send(eventEdit)
	return nil
}

// Flush starts a cycle for pending content immediately, skipping the rest of
// the quiet period. It returns the issued sequence number, or 0 when nothing was pending.
func (s *RealtimeScheduler) Flush() uint64 {
	s.mu.Lock()
	if s.disposed || s.fsm.current() != SchedulerPending {
		s.mu.Unlock()
		return 0
	}
	s.stopTimerLocked()
	gen := s.timerGen
	s.mu.Unlock()
	return s.settle(gen)
}

// settle starts an analysis cycle for the content pending under gen.
func (s *RealtimeScheduler) settle(gen uint64) uint64 {
	s.mu.Lock()
	if s.disposed || gen != s.timerGen || s.fsm.current() != SchedulerPending {
		s.mu.Unlock()
		return 0
	}
	s.timer = nil
	s.highest++
	seq := s.highest
	content := s.pending
	s.stats.Issued++
	s.fsm.send(eventSettle)
	s.wg.Add(1)
	s.mu.Unlock()

	s.logger.Debug("realtime cycle issued", "seq", seq, "length", len(content))

	req := s.template
	req.Content = content
	go s.runCycle(seq, req)
	return seq
}

func (s *RealtimeScheduler) runCycle(seq uint64, req analysis.Request) {
	defer s.wg.Done()

	result := s.runner.Run(s.ctx, seq, req)
	s.apply(seq, req.Content, result)
}

// apply merges a finished cycle if it is still the newest one.
func (s *RealtimeScheduler) apply(seq uint64, content string, result realtime.ContentAnalysis) {
	s.mu.Lock()
	if s.disposed || seq != s.highest {
		s.stats.Discarded++
		s.mu.Unlock()
		s.logger.Debug("realtime cycle discarded as stale", "seq", seq)
		return
	}
	if s.fsm.current() == SchedulerInFlight {
		s.fsm.send(eventResolve)
	}
	if result.AllFailed() {
		s.stats.Failed++
		s.mu.Unlock()
		s.logger.Debug("realtime cycle failed on every axis", "seq", seq)
		return
	}

	result.Seq = seq
	snap := Snapshot{
		Seq:         seq,
		Analysis:    result,
		Suggestions: realtime.DeriveSuggestions(result),
	}
	s.current = &snap
	s.lastAnalyzed = content
	s.stats.Applied++
	listener := s.listener
	s.mu.Unlock()

	s.logger.Debug("realtime cycle applied",
		"seq", seq,
		"suggestions", len(snap.Suggestions),
		"failed_axes", len(result.FailedAxes))

	if listener != nil {
		s.deliver(listener, snap)
	}
}

// deliver calls the listener outside the state lock while keeping
// deliveries in increasing Seq order.
func (s *RealtimeScheduler) deliver(listener Listener, snap Snapshot) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	if snap.Seq <= s.delivered {
		return
	}
	s.delivered = snap.Seq
	listener(snap)
}

// Reset forgets everything tied to the previous document: the pending
// debounce, the current snapshot and the last analyzed content. Cycles still
// in flight are discarded when they finish. documentID becomes the document
// context of later requests.
func (s *RealtimeScheduler) Reset(documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return ErrSessionDisposed
	}

	s.stopTimerLocked()
	s.highest++
	s.pending = ""
	s.lastAnalyzed = ""
	s.current = nil
	s.template.Context.DocumentID = documentID
	switch s.fsm.current() {
	case SchedulerPending:
		s.fsm.send(eventSkip)
	case SchedulerInFlight:
		s.fsm.send(eventResolve)
	}
	s.logger.Debug("realtime scheduler reset", "document_id", documentID, "highest", s.highest)
	return nil
}

// Current returns the latest accepted snapshot.
func (s *RealtimeScheduler) Current() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Snapshot{}, false
	}
	return *s.current, true
}

// State returns the lifecycle state: idle, pending, in_flight or disposed.
func (s *RealtimeScheduler) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fsm.current()
}

// Stats returns cycle counters.
func (s *RealtimeScheduler) Stats() SchedulerStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Dispose stops the debounce timer, cancels in-flight calls and waits for
// running cycles to exit. Later changes and results are rejected.
func (s *RealtimeScheduler) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	s.stopTimerLocked()
	s.fsm.send(eventDispose)
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.logger.Debug("realtime scheduler disposed")
}

func (s *RealtimeScheduler) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	// Invalidate a callback that already fired and is waiting for the lock.
	s.timerGen++
}

// ID identifies the scheduler in logs.
func (s *RealtimeScheduler) ID() string {
	return s.id
}
