package fleet

import (
	"sort"
	"strconv"
	"strings"
)

// Branch tag conventions.
const (
	branchTagPrefix = "3."

	// NoBranchTag identifies builders with no version-prefixed tag.
	NoBranchTag = "no-branch"
)

// Sort ranks below any parseable minor version: non-numeric suffixes ("3.x")
// sort after numeric minors, and the no-branch sentinel sorts last of all.
const (
	nonNumericMinorRank = -1
	noBranchRank        = -2
)

// Branch is one release line, identified by a version-prefixed tag
// ("3.12", "3.x") or the no-branch sentinel. Instances are deduplicated per
// State, keyed by tag.
type Branch struct {
	// Tag is the literal tag string, or NoBranchTag.
	Tag string

	builders []*Builder
	problems []Problem
	featured Problem
}

func newBranch(tag string) *Branch {
	return &Branch{Tag: tag, featured: NoProblem}
}

// isBranchTag reports whether tag names a release line.
func isBranchTag(tag string) bool { return strings.HasPrefix(tag, branchTagPrefix) }

// sortRank maps the branch to its position on the descending sort scale:
// numeric minors by value, then non-numeric minors, then the sentinel.
func (br *Branch) sortRank() int {
	if br.Tag == NoBranchTag {
		return noBranchRank
	}
	minor := br.Tag[strings.LastIndex(br.Tag, ".")+1:]
	n, err := strconv.Atoi(minor)
	if err != nil {
		return nonNumericMinorRank
	}
	return n
}

// Builders returns the branch's builders sorted by name.
func (br *Branch) Builders() []*Builder { return br.builders }

// Problems returns the union of all builder problems on this branch, sorted
// by severity descending then description ascending.
func (br *Branch) Problems() []Problem { return br.problems }

// Featured returns the branch's highest-ranked problem, or the NoProblem
// sentinel when every builder is healthy.
func (br *Branch) Featured() Problem { return br.featured }

// TierGroup is the set of a branch's builders sharing one tier.
type TierGroup struct {
	Tier     *Tier
	Builders []*Builder
}

// TierGroups returns the branch's builders grouped by tier, tiers sorted by
// tag with the no-tier sentinel last, builders sorted by name within each
// group.
func (br *Branch) TierGroups() []TierGroup {
	byTier := make(map[*Tier][]*Builder)
	tiers := make([]*Tier, 0)
	for _, b := range br.builders {
		if _, seen := byTier[b.Tier]; !seen {
			tiers = append(tiers, b.Tier)
		}
		byTier[b.Tier] = append(byTier[b.Tier], b)
	}
	sortTiers(tiers)

	groups := make([]TierGroup, 0, len(tiers))
	for _, t := range tiers {
		builders := byTier[t]
		sort.Slice(builders, func(i, j int) bool { return builders[i].Name() < builders[j].Name() })
		groups = append(groups, TierGroup{Tier: t, Builders: builders})
	}
	return groups
}

// aggregate collects and ranks the branch's problem union. Called once per
// refresh after every builder is classified.
func (br *Branch) aggregate() {
	sort.Slice(br.builders, func(i, j int) bool { return br.builders[i].Name() < br.builders[j].Name() })

	br.problems = br.problems[:0]
	for _, b := range br.builders {
		br.problems = append(br.problems, b.Problems...)
	}
	sortProblems(br.problems)

	br.featured = NoProblem
	if len(br.problems) > 0 {
		br.featured = br.problems[0]
	}
}

// sortBranches orders branches descending by minor version, with non-numeric
// minors after numeric ones and the no-branch sentinel last.
func sortBranches(branches []*Branch) {
	sort.Slice(branches, func(i, j int) bool {
		ri, rj := branches[i].sortRank(), branches[j].sortRank()
		if ri != rj {
			return ri > rj
		}
		return branches[i].Tag > branches[j].Tag
	})
}
