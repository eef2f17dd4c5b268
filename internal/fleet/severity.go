package fleet

// Band is one of the four coarse severity categories. It drives coloring and
// bucketing; the fine-grained Severity levels inside a band only affect sort
// order.
type Band int

const (
	BandNone Band = iota
	BandTrivial
	BandConcerning
	BandBlocking
)

// String returns the band's lowercase name, also used as the CSS class on the
// rendered dashboard.
func (b Band) String() string {
	switch b {
	case BandTrivial:
		return "trivial"
	case BandConcerning:
		return "concerning"
	case BandBlocking:
		return "blocking"
	default:
		return "none"
	}
}

// Severity is a single totally ordered scale for problem ranking. Higher
// values sort first. The scale has four labeled bands (see Band); each band
// holds one or more named levels.
type Severity int

const (
	SeverityNoProblem Severity = iota

	// Trivial band - shown, but not a release concern.
	SeverityNoBuildsYet
	SeverityBuildWarnings
	SeverityUnstableBuilderFailure
	SeverityDisconnectedUnstableBuilder

	// Concerning band.
	SeverityNonBlockingFailure
	SeverityDisconnectedBuilder

	// Blocking band - holds up a release.
	SeverityReleaseBlockingFailure
	SeverityDisconnectedBlockingBuilder
)

// Levels returns every severity in ascending order. The render boundary hands
// this to the templating layer for legend and bucketing purposes.
func Levels() []Severity {
	return []Severity{
		SeverityNoProblem,
		SeverityNoBuildsYet,
		SeverityBuildWarnings,
		SeverityUnstableBuilderFailure,
		SeverityDisconnectedUnstableBuilder,
		SeverityNonBlockingFailure,
		SeverityDisconnectedBuilder,
		SeverityReleaseBlockingFailure,
		SeverityDisconnectedBlockingBuilder,
	}
}

// Band returns the coarse category this severity belongs to.
func (s Severity) Band() Band {
	switch {
	case s >= SeverityReleaseBlockingFailure:
		return BandBlocking
	case s >= SeverityNonBlockingFailure:
		return BandConcerning
	case s >= SeverityNoBuildsYet:
		return BandTrivial
	default:
		return BandNone
	}
}

// Demote steps a disconnection severity down exactly one band
// (blocking → concerning → trivial). Severities without a counterpart one
// band down are returned unchanged.
func (s Severity) Demote() Severity {
	switch s {
	case SeverityDisconnectedBlockingBuilder:
		return SeverityDisconnectedBuilder
	case SeverityDisconnectedBuilder:
		return SeverityDisconnectedUnstableBuilder
	default:
		return s
	}
}

// String returns the level's kebab-case name.
func (s Severity) String() string {
	switch s {
	case SeverityNoBuildsYet:
		return "no-builds-yet"
	case SeverityBuildWarnings:
		return "build-warnings"
	case SeverityUnstableBuilderFailure:
		return "unstable-builder-failure"
	case SeverityDisconnectedUnstableBuilder:
		return "disconnected-unstable-builder"
	case SeverityNonBlockingFailure:
		return "non-blocking-failure"
	case SeverityDisconnectedBuilder:
		return "disconnected-builder"
	case SeverityReleaseBlockingFailure:
		return "release-blocking-failure"
	case SeverityDisconnectedBlockingBuilder:
		return "disconnected-blocking-builder"
	default:
		return "no-problem"
	}
}
