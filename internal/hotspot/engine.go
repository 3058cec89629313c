// Package hotspot turns fetched frames into immutable snapshots: centroids,
// local annotations for the active modes and an effective-view resolver.
package hotspot

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hotspot-cli/internal/geo"
	"github.com/sells-group/hotspot-cli/internal/rating"
	"github.com/sells-group/hotspot-cli/internal/recommend"
	"github.com/sells-group/hotspot-cli/internal/view"
	"github.com/sells-group/hotspot-cli/internal/zone"
)

// ErrNoSnapshot is returned before the first frame has been loaded.
var ErrNoSnapshot = eris.New("hotspot: no frame loaded")

// FrameSource supplies decoded frames by timeline index.
type FrameSource interface {
	Frame(ctx context.Context, index int) (*zone.Frame, error)
}

// Options configures an Engine.
type Options struct {
	Island         rating.IslandOptions
	Urban          rating.UrbanOptions
	PenaltyPerMile float64
	Modes          view.Modes
}

// DefaultOptions returns the stock rules with both local modes off.
func DefaultOptions() Options {
	return Options{
		Island:         rating.DefaultIslandOptions(),
		Urban:          rating.DefaultUrbanOptions(),
		PenaltyPerMile: recommend.DefaultPenaltyPerMile,
	}
}

// Engine owns the current snapshot. Readers get a consistent snapshot
// through Current; loads and mode changes swap it whole.
type Engine struct {
	src    FrameSource
	island rating.Rule
	urban  rating.Rule
	scorer *recommend.Scorer
	now    func() time.Time

	mu    sync.Mutex // serializes builds and guards modes
	modes view.Modes
	cur   atomic.Pointer[Snapshot]
}

// New creates an Engine reading frames from src.
func New(src FrameSource, opts Options) *Engine {
	return &Engine{
		src:    src,
		island: rating.IslandRule(opts.Island),
		urban:  rating.UrbanRule(opts.Urban),
		scorer: recommend.NewScorer(opts.PenaltyPerMile),
		now:    time.Now,
		modes:  opts.Modes,
	}
}

// Load fetches the frame at index and installs a snapshot for it. On error
// the previous snapshot stays current.
func (e *Engine) Load(ctx context.Context, index int) error {
	frame, err := e.src.Frame(ctx, index)
	if err != nil {
		return eris.Wrapf(err, "hotspot: load index %d", index)
	}

	e.mu.Lock()
	snap := e.build(index, frame, e.modes)
	e.cur.Store(snap)
	e.mu.Unlock()

	zap.L().Info("hotspot: frame installed",
		zap.Int("index", index),
		zap.Time("frame_time", frame.Time),
		zap.Int("zones", frame.Len()),
		zap.Int("island_local", len(snap.Island)),
		zap.Int("urban_local", len(snap.Urban)),
		zap.String("load_id", snap.LoadID.String()),
	)
	return nil
}

// Current returns the installed snapshot, or nil before the first load.
func (e *Engine) Current() *Snapshot {
	return e.cur.Load()
}

// Modes returns the active display modes.
func (e *Engine) Modes() view.Modes {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.modes
}

// SetModes changes the display modes and rebuilds the current snapshot's
// side-tables from the same frame. It returns the new snapshot, or nil when
// nothing is loaded yet.
func (e *Engine) SetModes(m view.Modes) *Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.modes = m
	prev := e.cur.Load()
	if prev == nil {
		return nil
	}
	snap := e.build(prev.Index, prev.Frame, m)
	e.cur.Store(snap)

	zap.L().Info("hotspot: modes changed",
		zap.Bool("island", m.Island),
		zap.Bool("urban", m.Urban),
		zap.String("load_id", snap.LoadID.String()),
	)
	return snap
}

// Recommend scores the current snapshot against loc.
func (e *Engine) Recommend(loc *geo.Point) (recommend.Recommendation, error) {
	snap := e.Current()
	if snap == nil {
		return recommend.Recommendation{}, ErrNoSnapshot
	}
	return snap.Recommend(e.scorer, loc), nil
}

func (e *Engine) build(index int, frame *zone.Frame, m view.Modes) *Snapshot {
	if frame == nil {
		frame = &zone.Frame{}
	}
	centroids := geo.Centroids(frame.Zones)

	var island, urban rating.Annotations
	if m.Island {
		island = e.island.Annotate(frame.Zones, centroids)
	}
	if m.Urban {
		urban = e.urban.Annotate(frame.Zones, centroids)
	}

	return &Snapshot{
		Index:     index,
		Frame:     frame,
		Modes:     m,
		Centroids: centroids,
		Island:    island,
		Urban:     urban,
		Resolver: view.NewResolver(
			view.Layer{Rule: e.island, Annotations: island},
			view.Layer{Rule: e.urban, Annotations: urban},
			centroids,
		),
		LoadID:   uuid.New(),
		LoadedAt: e.now(),
	}
}
