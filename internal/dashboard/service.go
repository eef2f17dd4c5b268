package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/buildwatch/buildwatch/internal/fleet"
	"github.com/buildwatch/buildwatch/internal/metrics"
)

// Page is the render-boundary bundle: the hydrated State tree, the severity
// ordering for bucketing, and the generation timestamp.
type Page struct {
	State       *fleet.State
	Severities  []fleet.Severity
	GeneratedAt time.Time
}

// entry is one filled cache slot.
type entry struct {
	page     *Page
	deadline time.Time
}

// Service serves the dashboard context from a single cached slot, rebuilding
// it from the upstream at most once per TTL window (or on demand). It is safe
// for concurrent use.
type Service struct {
	src  fleet.Source
	opts fleet.Options
	ttl  time.Duration

	mu   sync.Mutex
	slot *entry

	group singleflight.Group
	now   func() time.Time
}

// New creates a Service reading from src. ttl is the cache window; fleetOpts
// tunes each hydration run.
func New(src fleet.Source, fleetOpts fleet.Options, ttl time.Duration) *Service {
	return &Service{
		src:  src,
		opts: fleetOpts,
		ttl:  ttl,
		now:  time.Now,
	}
}

// Page returns the dashboard context. Without force, an unexpired cached slot
// is returned verbatim - no recomputation, no upstream calls. Otherwise the
// whole context is rebuilt; concurrent callers share one in-flight rebuild
// via singleflight rather than hitting the upstream in parallel.
//
// A failed rebuild leaves the slot untouched: the error goes to the caller
// (the serving layer turns it into a 502 - stale data is never passed off as
// fresh) and the next request retries the rebuild.
func (s *Service) Page(ctx context.Context, force bool) (*Page, error) {
	if force {
		metrics.CacheLookups.WithLabelValues("bypass").Inc()
	} else {
		page, reason := s.fresh()
		metrics.CacheLookups.WithLabelValues(reason).Inc()
		if page != nil {
			return page, nil
		}
	}

	v, err, shared := s.group.Do("page", func() (interface{}, error) {
		// A caller that queued behind a completed rebuild may find the slot
		// fresh now; force still rebuilds unconditionally.
		if !force {
			if page, _ := s.fresh(); page != nil {
				return page, nil
			}
		}
		return s.rebuild(ctx)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		slog.Debug("dashboard: request joined in-flight refresh")
	}
	return v.(*Page), nil
}

// Cached returns the current slot's page even when it is past its deadline,
// plus whether the slot is filled at all. The websocket hub and the health
// endpoint read it without ever triggering a rebuild.
func (s *Service) Cached() (*Page, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.slot == nil {
		return nil, false
	}
	return s.slot.page, true
}

// Invalidate drops the cached slot so the next request recomputes. Called on
// config reload.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.slot = nil
	s.mu.Unlock()
}

// fresh returns the cached page if the slot is filled and unexpired, along
// with the lookup outcome ("hit", "miss" or "expired").
func (s *Service) fresh() (*Page, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.slot == nil {
		return nil, "miss"
	}
	if s.now().After(s.slot.deadline) {
		return nil, "expired"
	}
	return s.slot.page, "hit"
}

// rebuild recomputes the full context and, on success, replaces the slot with
// a new deadline.
func (s *Service) rebuild(ctx context.Context) (*Page, error) {
	started := s.now()
	slog.Info("dashboard: refreshing from upstream")

	state, err := fleet.BuildState(ctx, s.src, s.opts)
	if err != nil {
		metrics.Refreshes.WithLabelValues("error").Inc()
		slog.Error("dashboard: refresh failed", "err", err)
		return nil, err
	}

	page := &Page{
		State:       state,
		Severities:  fleet.Levels(),
		GeneratedAt: state.Now,
	}

	s.mu.Lock()
	s.slot = &entry{page: page, deadline: s.now().Add(s.ttl)}
	s.mu.Unlock()

	elapsed := s.now().Sub(started)
	metrics.Refreshes.WithLabelValues("success").Inc()
	metrics.RefreshDuration.Observe(elapsed.Seconds())
	slog.Info("dashboard: refresh complete",
		"builders", len(state.Builders),
		"branches", len(state.Branches()),
		"elapsed", elapsed,
	)
	return page, nil
}
