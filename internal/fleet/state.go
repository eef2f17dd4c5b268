package fleet

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/buildwatch/buildwatch/internal/buildbot"
)

// Defaults for Options.
const (
	DefaultBuildWindow  = 200
	DefaultConcurrency  = 8
	DefaultRecentWindow = 6 * time.Hour
)

// Source is the query surface BuildState hydrates from. *buildbot.Client
// implements it; tests substitute fakes.
type Source interface {
	Workers(ctx context.Context) ([]buildbot.Worker, error)
	Builders(ctx context.Context) ([]buildbot.Builder, error)
	RecentBuilds(ctx context.Context, builderID int64, limit int) ([]buildbot.Build, error)
	Changes(ctx context.Context, buildID int64) ([]buildbot.Change, error)
}

// Options tunes one hydration run. The zero value selects all defaults.
type Options struct {
	// BuildWindow is how many completed builds to fetch per builder.
	BuildWindow int

	// Concurrency bounds the per-builder history fetch fan-out.
	Concurrency int

	// RecentWindow is how recently a build must have started for a
	// disconnected builder's severity to be demoted one band.
	RecentWindow time.Duration

	// Now overrides the refresh timestamp; tests use it for deterministic
	// build ages.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.BuildWindow <= 0 {
		o.BuildWindow = DefaultBuildWindow
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.RecentWindow <= 0 {
		o.RecentWindow = DefaultRecentWindow
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// State is the root of one refresh cycle's entity tree. It owns the "now"
// timestamp captured at the start of hydration, the deduplicated branch and
// tier registries, and the active builder collection. A State is read-only
// once BuildState returns.
type State struct {
	// Now is the refresh timestamp every build age is measured against.
	Now time.Time

	// Builders holds every active builder, sorted by name.
	Builders []*Builder

	branches map[string]*Branch
	tiers    map[string]*Tier
	sorted   []*Branch
}

// Branches returns every branch with at least one builder, sorted descending
// by minor version with the no-branch sentinel last.
func (s *State) Branches() []*Branch { return s.sorted }

// branchFor resolves the first branch tag in tags against the dedup registry,
// creating the Branch on first sight. No branch tag yields the shared
// no-branch sentinel instance.
func (s *State) branchFor(tags []string) *Branch {
	tag := NoBranchTag
	for _, t := range tags {
		if isBranchTag(t) {
			tag = t
			break
		}
	}
	br, ok := s.branches[tag]
	if !ok {
		br = newBranch(tag)
		s.branches[tag] = br
	}
	return br
}

// tierFor resolves the first tier tag in tags against the dedup registry,
// mirroring branchFor.
func (s *State) tierFor(tags []string) *Tier {
	tag := NoTierTag
	for _, t := range tags {
		if isTierTag(t) {
			tag = t
			break
		}
	}
	tier, ok := s.tiers[tag]
	if !ok {
		if tag == NoTierTag {
			tier = noTier()
		} else {
			tier = newTier(tag)
		}
		s.tiers[tag] = tier
	}
	return tier
}

// BuildState hydrates a fresh State from src: one workers call, one builders
// call, then one build-history call per active builder (plus a changes call
// when a failing streak has a distinct origin). History fetches fan out over
// a bounded errgroup; the result is deterministic because every collection is
// explicitly sorted afterwards.
//
// Any upstream failure aborts the whole refresh and is returned unwrapped to
// the caller - there are no partial States.
func BuildState(ctx context.Context, src Source, opts Options) (*State, error) {
	opts = opts.withDefaults()

	s := &State{
		Now:      opts.Now().UTC(),
		branches: make(map[string]*Branch),
		tiers:    make(map[string]*Tier),
	}

	workers, err := src.Workers(ctx)
	if err != nil {
		return nil, err
	}
	rawBuilders, err := src.Builders(ctx)
	if err != nil {
		return nil, err
	}

	// A builder is active when any worker - connected or not - is configured
	// for it. Connectivity is a separate fact, used only for disconnection
	// detection below.
	active := make(map[int64]bool)
	connectedBy := make(map[int64][]buildbot.Worker)
	for _, w := range workers {
		for _, link := range w.ConfiguredOn {
			active[link.BuilderID] = true
			if w.Connected() {
				connectedBy[link.BuilderID] = append(connectedBy[link.BuilderID], w)
			}
		}
	}

	for _, raw := range rawBuilders {
		if !active[raw.BuilderID] {
			continue
		}
		b := &Builder{
			raw:              raw,
			Branch:           s.branchFor(raw.Tags),
			Tier:             s.tierFor(raw.Tags),
			ConnectedWorkers: connectedBy[raw.BuilderID],
		}
		b.Stable = b.hasTag(stableTag)
		b.Branch.builders = append(b.Branch.builders, b)
		s.Builders = append(s.Builders, b)
	}
	sort.Slice(s.Builders, func(i, j int) bool { return s.Builders[i].Name() < s.Builders[j].Name() })

	if err := s.hydrateBuilders(ctx, src, opts); err != nil {
		return nil, err
	}

	for _, b := range s.Builders {
		s.classify(b, opts.RecentWindow)
	}

	for _, br := range s.branches {
		br.aggregate()
		s.sorted = append(s.sorted, br)
	}
	sortBranches(s.sorted)

	return s, nil
}

// hydrateBuilders fetches every active builder's history concurrently. Each
// goroutine writes only to its own builder, so no locking is needed; the
// changes fetch for a streak origin happens in the same goroutine because it
// depends on the streak scan.
func (s *State) hydrateBuilders(ctx context.Context, src Source, opts Options) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for _, b := range s.Builders {
		b := b
		g.Go(func() error {
			history, err := src.RecentBuilds(ctx, b.ID(), opts.BuildWindow)
			if err != nil {
				return fmt.Errorf("builder %q: %w", b.Name(), err)
			}

			for _, raw := range history {
				if !raw.Complete || !interesting(raw.Results) {
					continue
				}
				build, err := newBuild(raw, b, s.Now)
				if err != nil {
					return err
				}
				b.Builds = append(b.Builds, build)
			}

			b.classifyBuilds()

			if breaking := b.breakingBuild(); breaking != nil {
				changes, err := src.Changes(ctx, breaking.ID())
				if err != nil {
					return fmt.Errorf("builder %q: %w", b.Name(), err)
				}
				breaking.Changes = changes
			}
			return nil
		})
	}
	return g.Wait()
}

// classify attaches the builder's final problem list: the build-history
// problem recorded during hydration plus, independently, a disconnection
// problem when no connected worker serves the builder. Both can be present
// at once.
func (s *State) classify(b *Builder, recentWindow time.Duration) {
	b.Problems = b.Problems[:0]
	if b.buildProblem != nil {
		b.Problems = append(b.Problems, *b.buildProblem)
	}
	if !b.Connected() {
		b.Problems = append(b.Problems, newDisconnected(b.Stable, b.Tier, b.hasRecentBuild(recentWindow)))
	}
	sortProblems(b.Problems)
}
