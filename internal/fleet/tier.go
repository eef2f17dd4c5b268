package fleet

import (
	"sort"
	"strconv"
	"strings"
)

// Tier tag conventions.
const (
	tierTagPrefix = "tier-"

	// NoTierTag identifies builders with no tier tag at all.
	NoTierTag = "no-tier"

	// noTierValue sorts the sentinel tier after every numbered tier and keeps
	// it out of the release-blocking range.
	noTierValue = 99
)

// Tier is a release-blocking priority level, identified by a "tier-N" tag or
// the no-tier sentinel. Instances are deduplicated per State, keyed by tag.
type Tier struct {
	// Tag is the literal tag string, or NoTierTag.
	Tag string

	// Value is N from "tier-N"; 99 for the sentinel or an unparseable suffix.
	Value int
}

// newTier parses a tier tag. An unparseable numeric suffix is not fatal - the
// tier keeps its tag for display and falls back to the sentinel value.
func newTier(tag string) *Tier {
	t := &Tier{Tag: tag, Value: noTierValue}
	if n, err := strconv.Atoi(strings.TrimPrefix(tag, tierTagPrefix)); err == nil {
		t.Value = n
	}
	return t
}

func noTier() *Tier { return &Tier{Tag: NoTierTag, Value: noTierValue} }

// ReleaseBlocking reports whether failures in this tier hold up a release.
// Only tiers 1 and 2 do.
func (t *Tier) ReleaseBlocking() bool { return t.Value == 1 || t.Value == 2 }

// Title returns the human form of the tag: "Tier-1", or "No tier" for the
// sentinel.
func (t *Tier) Title() string {
	if t.Tag == NoTierTag {
		return "No tier"
	}
	return strings.ToUpper(t.Tag[:1]) + t.Tag[1:]
}

// isTierTag reports whether tag names a tier.
func isTierTag(tag string) bool { return strings.HasPrefix(tag, tierTagPrefix) }

// sortTiers orders tiers by tag, with the no-tier sentinel forced last
// regardless of lexical order.
func sortTiers(tiers []*Tier) {
	sort.Slice(tiers, func(i, j int) bool {
		if (tiers[i].Tag == NoTierTag) != (tiers[j].Tag == NoTierTag) {
			return tiers[j].Tag == NoTierTag
		}
		return tiers[i].Tag < tiers[j].Tag
	})
}
