package fleet

import (
	"fmt"
	"sort"
)

// ProblemKind names one variant of the problem taxonomy.
type ProblemKind string

const (
	KindNoProblem           ProblemKind = "no-problem"
	KindNoBuilds            ProblemKind = "no-builds"
	KindBuildWarning        ProblemKind = "build-warning"
	KindBuildFailure        ProblemKind = "build-failure"
	KindBuilderDisconnected ProblemKind = "builder-disconnected"
)

// Labels for the affected-build map. The renderer iterates them in this
// fixed order.
const (
	LabelLatestBuild   = "Latest build"
	LabelBreakingBuild = "Breaking build"
)

// Problem is one classified health issue on a builder. Severity and
// Description are fixed at construction; Builds maps a display label to each
// affected build and may be empty.
type Problem struct {
	Kind        ProblemKind
	Severity    Severity
	Description string
	Builds      map[string]*Build
}

// NoProblem is the sentinel used where a problem slot must be filled but the
// builders are healthy, e.g. a branch's featured problem.
var NoProblem = Problem{
	Kind:        KindNoProblem,
	Severity:    SeverityNoProblem,
	Description: "No problems",
}

func newNoBuilds() Problem {
	return Problem{
		Kind:        KindNoBuilds,
		Severity:    SeverityNoBuildsYet,
		Description: "Builder has no builds",
	}
}

func newBuildWarning(latest *Build) Problem {
	return Problem{
		Kind:        KindBuildWarning,
		Severity:    SeverityBuildWarnings,
		Description: "Warnings",
		Builds:      map[string]*Build{LabelLatestBuild: latest},
	}
}

// newBuildFailure classifies a failing streak. breaking is nil when the
// streak has length one.
func newBuildFailure(latest, breaking *Build, stable bool, tier *Tier) Problem {
	p := Problem{
		Kind:   KindBuildFailure,
		Builds: map[string]*Build{LabelLatestBuild: latest},
	}
	switch {
	case !stable:
		p.Severity = SeverityUnstableBuilderFailure
		p.Description = "Unstable builder failed"
	case tier.ReleaseBlocking():
		p.Severity = SeverityReleaseBlockingFailure
		p.Description = fmt.Sprintf("%s stable builder failed", tier.Title())
	default:
		p.Severity = SeverityNonBlockingFailure
		p.Description = fmt.Sprintf("%s stable builder failed", tier.Title())
	}
	if breaking != nil {
		p.Builds[LabelBreakingBuild] = breaking
	}
	return p
}

// newDisconnected classifies a builder with no connected workers. recentBuild
// demotes the severity one band: a builder that produced a build recently was
// probably taken down moments ago, not abandoned.
func newDisconnected(stable bool, tier *Tier, recentBuild bool) Problem {
	p := Problem{
		Kind:        KindBuilderDisconnected,
		Description: "Builder is disconnected",
	}
	switch {
	case !stable:
		p.Severity = SeverityDisconnectedUnstableBuilder
	case tier.ReleaseBlocking():
		p.Severity = SeverityDisconnectedBlockingBuilder
	default:
		p.Severity = SeverityDisconnectedBuilder
	}
	if recentBuild {
		p.Severity = p.Severity.Demote()
		p.Description += " (with recent build)"
	}
	return p
}

// LabeledBuild pairs an affected build with its display label.
type LabeledBuild struct {
	Label string
	Build *Build
}

// LabeledBuilds returns the affected builds in fixed label order, for
// deterministic iteration by the renderer and the JSON mappers.
func (p Problem) LabeledBuilds() []LabeledBuild {
	var out []LabeledBuild
	for _, label := range []string{LabelLatestBuild, LabelBreakingBuild} {
		if b, ok := p.Builds[label]; ok {
			out = append(out, LabeledBuild{Label: label, Build: b})
		}
	}
	return out
}

// sortProblems orders problems by severity descending, ties broken by
// description ascending. The sort is stable.
func sortProblems(problems []Problem) {
	sort.SliceStable(problems, func(i, j int) bool {
		if problems[i].Severity != problems[j].Severity {
			return problems[i].Severity > problems[j].Severity
		}
		return problems[i].Description < problems[j].Description
	})
}
