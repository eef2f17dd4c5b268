package fleet

import (
	"time"

	"github.com/buildwatch/buildwatch/internal/buildbot"
)

// The "stable" tag marks builders whose failures matter for release
// readiness; everything else is classified into the trivial band.
const stableTag = "stable"

// Builder is one CI job definition plus everything the dashboard derives
// about it: its release line and tier, its interesting build history, the
// workers currently serving it, and its classified problems.
type Builder struct {
	raw buildbot.Builder

	// Branch and Tier are shared State-registry instances; builders with the
	// same tag point at the identical object.
	Branch *Branch
	Tier   *Tier

	// Stable mirrors the "stable" tag.
	Stable bool

	// Builds is the interesting subsequence of the fetched history, most
	// recent first.
	Builds []*Build

	// ConnectedWorkers are the connected workers configured for this builder.
	ConnectedWorkers []buildbot.Worker

	// Problems is the classification result, sorted by severity descending.
	Problems []Problem

	// streak problem computed during hydration, before connectivity is known.
	buildProblem *Problem
}

// ID returns the upstream builder id.
func (b *Builder) ID() int64 { return b.raw.BuilderID }

// Name returns the builder's configured name.
func (b *Builder) Name() string { return b.raw.Name }

// Tags returns the raw tag set.
func (b *Builder) Tags() []string { return b.raw.Tags }

// Connected reports whether any connected worker serves this builder.
func (b *Builder) Connected() bool { return len(b.ConnectedWorkers) > 0 }

// hasTag reports whether the builder carries the exact tag.
func (b *Builder) hasTag(tag string) bool {
	for _, t := range b.raw.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// classifyBuilds inspects the interesting build sequence and records the
// resulting problem, if any. Rules, in order:
//
//   - no interesting builds at all → NoBuilds
//   - latest build has warnings → BuildWarning (failure analysis is skipped)
//   - latest build failed → BuildFailure; the streak origin - the oldest
//     build in the unbroken run of failures ending at the latest build - is
//     attached as the breaking build when the run is longer than one
//   - latest build succeeded → nothing
//
// The streak scan walks forward (back in time) while results stay "failure"
// and stops at the first build that isn't one; a success there confirms the
// streak boundary, anything else just ends the contiguous run.
func (b *Builder) classifyBuilds() {
	if len(b.Builds) == 0 {
		p := newNoBuilds()
		b.buildProblem = &p
		return
	}

	latest := b.Builds[0]
	switch latest.Result() {
	case buildbot.ResultWarnings:
		p := newBuildWarning(latest)
		b.buildProblem = &p

	case buildbot.ResultFailure:
		origin := latest
		for _, build := range b.Builds[1:] {
			if build.Result() != buildbot.ResultFailure {
				break
			}
			origin = build
		}
		var breaking *Build
		if origin != latest {
			breaking = origin
		}
		p := newBuildFailure(latest, breaking, b.Stable, b.Tier)
		b.buildProblem = &p
	}
}

// breakingBuild returns the streak origin recorded by classifyBuilds, or nil.
func (b *Builder) breakingBuild() *Build {
	if b.buildProblem == nil || b.buildProblem.Kind != KindBuildFailure {
		return nil
	}
	return b.buildProblem.Builds[LabelBreakingBuild]
}

// hasRecentBuild reports whether any interesting build started within window
// of the State's "now".
func (b *Builder) hasRecentBuild(window time.Duration) bool {
	for _, build := range b.Builds {
		if build.age <= window {
			return true
		}
	}
	return false
}
