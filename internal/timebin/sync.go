package timebin

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrIndexOutOfRange is returned for requests outside the timeline.
var ErrIndexOutOfRange = eris.New("timebin: index out of range")

// LoadFunc fetches and installs the frame for index. Errors are treated as
// transient.
type LoadFunc func(ctx context.Context, index int) error

// Options tunes the synchronizer's timers.
type Options struct {
	// TickInterval is how often the wall clock is re-resolved. Default: 30s.
	TickInterval time.Duration

	// RefreshInterval reloads the current index to pick up new data.
	// Zero disables periodic refresh.
	RefreshInterval time.Duration

	// GraceWindow suppresses auto-advance after a manual time change.
	// Default: 45s.
	GraceWindow time.Duration

	// Debounce is the quiet period before a scrub request is loaded.
	// Default: 250ms.
	Debounce time.Duration

	// Clock overrides time.Now.
	Clock func() time.Time
}

func (o Options) withDefaults() Options {
	if o.TickInterval <= 0 {
		o.TickInterval = 30 * time.Second
	}
	if o.GraceWindow <= 0 {
		o.GraceWindow = 45 * time.Second
	}
	if o.Debounce <= 0 {
		o.Debounce = 250 * time.Millisecond
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

// State is a point-in-time view of the synchronizer.
type State struct {
	Current         int       `json:"current"`
	Pending         int       `json:"pending"`
	LastInteraction time.Time `json:"last_interaction"`
}

// Synchronizer owns the current timeline index. Scrub requests are
// coalesced into a single pending slot; Run serializes every load so at most
// one is in flight.
type Synchronizer struct {
	timeline *Timeline
	load     LoadFunc
	opts     Options

	mu              sync.Mutex
	current         int
	pending         int
	requestedAt     time.Time
	lastInteraction time.Time

	wake    chan struct{}
	visible chan struct{}
}

// NewSynchronizer creates a synchronizer over a non-empty timeline.
func NewSynchronizer(tl *Timeline, load LoadFunc, opts Options) (*Synchronizer, error) {
	if tl == nil || tl.Len() == 0 {
		return nil, ErrEmptyTimeline
	}
	if load == nil {
		return nil, eris.New("timebin: nil load func")
	}
	return &Synchronizer{
		timeline: tl,
		load:     load,
		opts:     opts.withDefaults(),
		current:  -1,
		pending:  -1,
		wake:     make(chan struct{}, 1),
		visible:  make(chan struct{}, 1),
	}, nil
}

// Timeline returns the underlying timeline.
func (s *Synchronizer) Timeline() *Timeline {
	return s.timeline
}

// Current returns the loaded index, or -1 before the first successful load.
func (s *Synchronizer) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// State returns the current, pending and last-interaction values.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{Current: s.current, Pending: s.pending, LastInteraction: s.lastInteraction}
}

// Start loads the bin for the current wall-clock time.
func (s *Synchronizer) Start(ctx context.Context) error {
	idx := s.timeline.IndexAt(s.opts.Clock())
	return s.loadIndex(ctx, idx, "start")
}

// Request records a manual time change. The latest request wins; it is
// loaded once no newer request arrives for the debounce period.
func (s *Synchronizer) Request(index int) error {
	if !s.timeline.Valid(index) {
		return eris.Wrapf(ErrIndexOutOfRange, "request %d", index)
	}
	now := s.opts.Clock()

	s.mu.Lock()
	s.pending = index
	s.requestedAt = now
	s.lastInteraction = now
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

// RequestFine maps a position on the same-day control anchored at base to
// an absolute index and requests it. A negative base anchors the control at
// the pending request, or the current index when nothing is pending.
func (s *Synchronizer) RequestFine(base, pos int) (int, error) {
	if base < 0 {
		s.mu.Lock()
		base = s.current
		if s.pending >= 0 {
			base = s.pending
		}
		s.mu.Unlock()
	}

	idx, ok := s.timeline.FineIndex(base, pos)
	if !ok {
		return -1, eris.Wrapf(ErrIndexOutOfRange, "fine position %d from %d", pos, base)
	}
	return idx, s.Request(idx)
}

// Foreground signals that the display became visible again.
func (s *Synchronizer) Foreground() {
	select {
	case s.visible <- struct{}{}:
	default:
	}
}

// Tick re-resolves the wall-clock bin and loads it when it differs from the
// current index, unless a manual change is pending or happened within the
// grace window. It reports whether a load happened.
func (s *Synchronizer) Tick(ctx context.Context) (bool, error) {
	now := s.opts.Clock()
	idx := s.timeline.IndexAt(now)

	s.mu.Lock()
	skip := s.pending >= 0 ||
		idx == s.current ||
		(!s.lastInteraction.IsZero() && now.Sub(s.lastInteraction) < s.opts.GraceWindow)
	s.mu.Unlock()
	if skip {
		return false, nil
	}

	if err := s.loadIndex(ctx, idx, "tick"); err != nil {
		return false, err
	}
	return true, nil
}

// Flush loads the pending request if it has been quiet for the debounce
// period. It reports whether a load happened.
func (s *Synchronizer) Flush(ctx context.Context) (bool, error) {
	now := s.opts.Clock()

	s.mu.Lock()
	if s.pending < 0 || now.Sub(s.requestedAt) < s.opts.Debounce {
		s.mu.Unlock()
		return false, nil
	}
	idx := s.pending
	s.pending = -1
	s.mu.Unlock()

	if err := s.loadIndex(ctx, idx, "request"); err != nil {
		return false, err
	}
	return true, nil
}

// Refresh reloads the current index when nothing newer is pending.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	s.mu.Lock()
	idx := s.current
	busy := s.pending >= 0
	s.mu.Unlock()
	if idx < 0 || busy {
		return nil
	}
	return s.loadIndex(ctx, idx, "refresh")
}

// quietRemaining returns how long until the pending request may be flushed.
func (s *Synchronizer) quietRemaining() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending < 0 {
		return 0, false
	}
	return s.opts.Debounce - s.opts.Clock().Sub(s.requestedAt), true
}

func (s *Synchronizer) loadIndex(ctx context.Context, idx int, reason string) error {
	if err := s.load(ctx, idx); err != nil {
		zap.L().Warn("timebin: frame load failed",
			zap.Int("index", idx),
			zap.String("reason", reason),
			zap.Error(err),
		)
		return eris.Wrapf(err, "timebin: load index %d", idx)
	}

	s.mu.Lock()
	prev := s.current
	s.current = idx
	s.mu.Unlock()

	if prev != idx {
		zap.L().Info("timebin: switched frame",
			zap.Int("index", idx),
			zap.Int("previous", prev),
			zap.String("reason", reason),
			zap.String("label", s.timeline.Label(idx)),
		)
	}
	return nil
}

// Run drives ticks, refreshes, visibility signals and debounced requests
// until ctx is canceled. Load failures are logged and retried on the next
// tick.
func (s *Synchronizer) Run(ctx context.Context) error {
	tick := time.NewTicker(s.opts.TickInterval)
	defer tick.Stop()

	var refreshC <-chan time.Time
	if s.opts.RefreshInterval > 0 {
		refresh := time.NewTicker(s.opts.RefreshInterval)
		defer refresh.Stop()
		refreshC = refresh.C
	}

	debounce := time.NewTimer(s.opts.Debounce)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			_, _ = s.Tick(ctx)
		case <-s.visible:
			_, _ = s.Tick(ctx)
		case <-refreshC:
			_ = s.Refresh(ctx)
		case <-s.wake:
			debounce.Reset(s.opts.Debounce)
		case <-debounce.C:
			if wait, ok := s.quietRemaining(); ok && wait > 0 {
				debounce.Reset(wait)
				continue
			}
			_, _ = s.Flush(ctx)
		}
	}
}
