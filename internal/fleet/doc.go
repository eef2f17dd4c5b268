// Package fleet builds the per-refresh view of the CI fleet: the State tree
// of workers, builders, builds, branches and tiers hydrated from the upstream
// data API, the per-builder problem classification (failing streaks, warnings,
// missing builds, disconnected builders) and the severity scale used to rank,
// bucket and color problems.
//
// A State is immutable once BuildState returns and lives for exactly one
// refresh cycle; every derived fact is computed once during hydration and
// nothing carries over to the next cycle.
package fleet
