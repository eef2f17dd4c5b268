package fleet

import (
	"fmt"
	"time"

	"github.com/buildwatch/buildwatch/internal/buildbot"
)

// Build wraps one raw upstream build record together with the facts derived
// during hydration: its parsed start time, its age relative to the State's
// "now", and - on a streak-origin build - the blamelist.
type Build struct {
	raw     buildbot.Build
	builder *Builder
	started time.Time
	age     time.Duration

	// Changes is the blamelist, fetched only for the breaking build of a
	// failing streak.
	Changes []buildbot.Change
}

// newBuild wraps raw under its owning builder. The raw record's builder id
// must equal the parent's id; a mismatch means the upstream handed us another
// builder's history and the refresh is aborted.
func newBuild(raw buildbot.Build, builder *Builder, now time.Time) (*Build, error) {
	if raw.BuilderID != builder.ID() {
		return nil, fmt.Errorf("fleet: build %d belongs to builder %d, not %d",
			raw.BuildID, raw.BuilderID, builder.ID())
	}
	started := time.Unix(raw.StartedAt, 0).UTC()
	return &Build{
		raw:     raw,
		builder: builder,
		started: started,
		age:     now.Sub(started),
	}, nil
}

// ID returns the upstream build id.
func (b *Build) ID() int64 { return b.raw.BuildID }

// Number returns the per-builder build number.
func (b *Build) Number() int { return b.raw.Number }

// Builder returns the owning builder.
func (b *Build) Builder() *Builder { return b.builder }

// Result returns the upstream result code.
func (b *Build) Result() buildbot.Result { return b.raw.Results }

// Complete reports whether the build has finished.
func (b *Build) Complete() bool { return b.raw.Complete }

// StartedAt returns the parsed start time in UTC.
func (b *Build) StartedAt() time.Time { return b.started }

// Age returns how long before the State's "now" the build started.
func (b *Build) Age() time.Duration { return b.age }

// Color maps the result code to the severity band used for coloring:
// failures are blocking-red, warnings concerning-yellow, successes none.
func (b *Build) Color() string {
	switch b.raw.Results {
	case buildbot.ResultSuccess:
		return "success"
	case buildbot.ResultWarnings:
		return BandConcerning.String()
	case buildbot.ResultFailure:
		return BandBlocking.String()
	default:
		return BandNone.String()
	}
}

// interesting reports whether the build participates in classification:
// success, warnings or failure. Skipped, cancelled and exception results do
// not say anything about the builder's health.
func interesting(r buildbot.Result) bool {
	return r == buildbot.ResultSuccess || r == buildbot.ResultWarnings || r == buildbot.ResultFailure
}
