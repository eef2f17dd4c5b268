package fleet

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/buildwatch/buildwatch/internal/buildbot"
)

// fakeSource serves canned collections and counts calls.
type fakeSource struct {
	workers  []buildbot.Worker
	builders []buildbot.Builder
	builds   map[int64][]buildbot.Build
	changes  map[int64][]buildbot.Change

	buildCalls  atomic.Int64
	changeCalls atomic.Int64
	buildErr    error
}

func (f *fakeSource) Workers(ctx context.Context) ([]buildbot.Worker, error) {
	return f.workers, nil
}

func (f *fakeSource) Builders(ctx context.Context) ([]buildbot.Builder, error) {
	return f.builders, nil
}

func (f *fakeSource) RecentBuilds(ctx context.Context, builderID int64, limit int) ([]buildbot.Build, error) {
	f.buildCalls.Add(1)
	if f.buildErr != nil {
		return nil, f.buildErr
	}
	return f.builds[builderID], nil
}

func (f *fakeSource) Changes(ctx context.Context, buildID int64) ([]buildbot.Change, error) {
	f.changeCalls.Add(1)
	return f.changes[buildID], nil
}

func worker(id int64, name string, connected bool, builderIDs ...int64) buildbot.Worker {
	w := buildbot.Worker{WorkerID: id, Name: name}
	if connected {
		w.ConnectedTo = []buildbot.MasterLink{{MasterID: 1}}
	}
	for _, bid := range builderIDs {
		w.ConfiguredOn = append(w.ConfiguredOn, buildbot.BuilderLink{BuilderID: bid, MasterID: 1})
	}
	return w
}

func completedBuild(buildID, builderID int64, r buildbot.Result, started time.Time) buildbot.Build {
	return buildbot.Build{
		BuildID:   buildID,
		Number:    int(buildID),
		BuilderID: builderID,
		Results:   r,
		Complete:  true,
		StartedAt: started.Unix(),
	}
}

func stateOpts() Options {
	return Options{Now: func() time.Time { return testNow }}
}

func TestBuildState_ActiveNotConnectedRestriction(t *testing.T) {
	src := &fakeSource{
		workers: []buildbot.Worker{
			// Disconnected workers still mark their builders active.
			worker(1, "w1", false, 10),
			worker(2, "w2", true, 11),
		},
		builders: []buildbot.Builder{
			{BuilderID: 10, Name: "amd64-a", Tags: []string{"3.12", "tier-1", "stable"}},
			{BuilderID: 11, Name: "arm64-b", Tags: []string{"3.12", "tier-1", "stable"}},
			// Configured on no worker at all: not part of the fleet.
			{BuilderID: 12, Name: "orphan", Tags: []string{"3.12"}},
		},
		builds: map[int64][]buildbot.Build{},
	}

	st, err := BuildState(context.Background(), src, stateOpts())
	if err != nil {
		t.Fatalf("BuildState: %v", err)
	}

	if len(st.Builders) != 2 {
		t.Fatalf("got %d builders, want 2 (orphan excluded)", len(st.Builders))
	}
	if got := st.Builders[0].Name(); got != "amd64-a" {
		t.Errorf("builders not sorted by name: first is %q", got)
	}

	// Builder 10 is only configured on a disconnected worker.
	var b10 *Builder
	for _, b := range st.Builders {
		if b.ID() == 10 {
			b10 = b
		}
	}
	if b10.Connected() {
		t.Errorf("builder 10 reported connected, only a disconnected worker serves it")
	}
	if got := int(src.buildCalls.Load()); got != 2 {
		t.Errorf("build history calls = %d, want 2 (one per active builder)", got)
	}
}

func TestBuildState_DedupRegistries(t *testing.T) {
	src := &fakeSource{
		workers: []buildbot.Worker{worker(1, "w1", true, 10, 11)},
		builders: []buildbot.Builder{
			{BuilderID: 10, Name: "a", Tags: []string{"3.12", "tier-1", "stable"}},
			{BuilderID: 11, Name: "b", Tags: []string{"3.12", "tier-1", "stable"}},
		},
		builds: map[int64][]buildbot.Build{},
	}

	st, err := BuildState(context.Background(), src, stateOpts())
	if err != nil {
		t.Fatalf("BuildState: %v", err)
	}

	if st.Builders[0].Branch != st.Builders[1].Branch {
		t.Errorf("builders sharing a branch tag got distinct Branch instances")
	}
	if st.Builders[0].Tier != st.Builders[1].Tier {
		t.Errorf("builders sharing a tier tag got distinct Tier instances")
	}
	if len(st.Branches()) != 1 {
		t.Errorf("got %d branches, want 1", len(st.Branches()))
	}
}

func TestBuildState_SentinelsForUntaggedBuilder(t *testing.T) {
	src := &fakeSource{
		workers:  []buildbot.Worker{worker(1, "w1", true, 10)},
		builders: []buildbot.Builder{{BuilderID: 10, Name: "plain", Tags: []string{"unix"}}},
		builds:   map[int64][]buildbot.Build{},
	}

	st, err := BuildState(context.Background(), src, stateOpts())
	if err != nil {
		t.Fatalf("BuildState: %v", err)
	}

	b := st.Builders[0]
	if b.Branch.Tag != NoBranchTag {
		t.Errorf("Branch.Tag = %q, want %q", b.Branch.Tag, NoBranchTag)
	}
	if b.Tier.Tag != NoTierTag {
		t.Errorf("Tier.Tag = %q, want %q", b.Tier.Tag, NoTierTag)
	}
}

func TestBuildState_BuilderIDMismatchIsFatal(t *testing.T) {
	src := &fakeSource{
		workers:  []buildbot.Worker{worker(1, "w1", true, 10)},
		builders: []buildbot.Builder{{BuilderID: 10, Name: "a", Tags: []string{"3.12"}}},
		builds: map[int64][]buildbot.Build{
			// History claims to belong to builder 99.
			10: {completedBuild(1, 99, buildbot.ResultSuccess, testNow.Add(-time.Hour))},
		},
	}

	if _, err := BuildState(context.Background(), src, stateOpts()); err == nil {
		t.Fatal("BuildState accepted a build owned by a different builder")
	}
}

func TestBuildState_ChangesFetchedForBreakingBuildOnly(t *testing.T) {
	src := &fakeSource{
		workers: []buildbot.Worker{worker(1, "w1", true, 10, 11)},
		builders: []buildbot.Builder{
			{BuilderID: 10, Name: "streak", Tags: []string{"3.12", "tier-1", "stable"}},
			{BuilderID: 11, Name: "single", Tags: []string{"3.12", "tier-1", "stable"}},
		},
		builds: map[int64][]buildbot.Build{
			10: {
				completedBuild(5, 10, buildbot.ResultFailure, testNow.Add(-1*time.Hour)),
				completedBuild(4, 10, buildbot.ResultFailure, testNow.Add(-2*time.Hour)),
				completedBuild(3, 10, buildbot.ResultSuccess, testNow.Add(-3*time.Hour)),
			},
			11: {
				completedBuild(9, 11, buildbot.ResultFailure, testNow.Add(-1*time.Hour)),
				completedBuild(8, 11, buildbot.ResultSuccess, testNow.Add(-2*time.Hour)),
			},
		},
		changes: map[int64][]buildbot.Change{
			4: {{ChangeID: 1, Author: "Jo Dev <jo@example.org>", Comments: "break the build\n\ndetails"}},
		},
	}

	st, err := BuildState(context.Background(), src, stateOpts())
	if err != nil {
		t.Fatalf("BuildState: %v", err)
	}

	if got := int(src.changeCalls.Load()); got != 1 {
		t.Fatalf("change calls = %d, want 1 (streak origin only)", got)
	}

	var streak *Builder
	for _, b := range st.Builders {
		if b.Name() == "streak" {
			streak = b
		}
	}
	p := streak.Problems[0]
	breaking := p.Builds[LabelBreakingBuild]
	if breaking == nil {
		t.Fatal("no breaking build on the streak builder")
	}
	if breaking.ID() != 4 {
		t.Errorf("breaking build id = %d, want 4", breaking.ID())
	}
	if len(breaking.Changes) != 1 {
		t.Errorf("breaking build has %d changes, want 1", len(breaking.Changes))
	}
}

func TestBuildState_SkipsIncompleteAndUninterestingBuilds(t *testing.T) {
	src := &fakeSource{
		workers:  []buildbot.Worker{worker(1, "w1", true, 10)},
		builders: []buildbot.Builder{{BuilderID: 10, Name: "a", Tags: []string{"3.12", "tier-1", "stable"}}},
		builds: map[int64][]buildbot.Build{
			10: {
				{BuildID: 6, BuilderID: 10, Results: buildbot.ResultFailure, Complete: false, StartedAt: testNow.Unix()},
				completedBuild(5, 10, buildbot.ResultCancelled, testNow.Add(-1*time.Hour)),
				completedBuild(4, 10, buildbot.ResultSkipped, testNow.Add(-2*time.Hour)),
				completedBuild(3, 10, buildbot.ResultSuccess, testNow.Add(-3*time.Hour)),
			},
		},
	}

	st, err := BuildState(context.Background(), src, stateOpts())
	if err != nil {
		t.Fatalf("BuildState: %v", err)
	}

	b := st.Builders[0]
	if len(b.Builds) != 1 {
		t.Fatalf("interesting builds = %d, want 1", len(b.Builds))
	}
	if len(b.Problems) != 0 {
		t.Errorf("latest interesting build succeeded, problems = %+v", b.Problems)
	}
}

func TestBuildState_UpstreamFailureAbortsRefresh(t *testing.T) {
	wantErr := errors.New("boom")
	src := &fakeSource{
		workers:  []buildbot.Worker{worker(1, "w1", true, 10)},
		builders: []buildbot.Builder{{BuilderID: 10, Name: "a", Tags: []string{"3.12"}}},
		buildErr: wantErr,
	}

	_, err := BuildState(context.Background(), src, stateOpts())
	if err == nil {
		t.Fatal("BuildState succeeded despite a failing history fetch")
	}
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want wrapped %v", err, wantErr)
	}
}

func TestBuildState_BranchOrdering(t *testing.T) {
	builders := []buildbot.Builder{
		{BuilderID: 10, Name: "a", Tags: []string{"3.9", "tier-1", "stable"}},
		{BuilderID: 11, Name: "b", Tags: []string{"3.12", "tier-1", "stable"}},
		{BuilderID: 12, Name: "c", Tags: []string{"3.x", "tier-2", "stable"}},
		{BuilderID: 13, Name: "d", Tags: []string{"unix"}},
	}
	src := &fakeSource{
		workers:  []buildbot.Worker{worker(1, "w1", true, 10, 11, 12, 13)},
		builders: builders,
		builds:   map[int64][]buildbot.Build{},
	}

	st, err := BuildState(context.Background(), src, stateOpts())
	if err != nil {
		t.Fatalf("BuildState: %v", err)
	}

	var tags []string
	for _, br := range st.Branches() {
		tags = append(tags, br.Tag)
	}
	want := []string{"3.12", "3.9", "3.x", NoBranchTag}
	if len(tags) != len(want) {
		t.Fatalf("branches = %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Fatalf("branches = %v, want %v", tags, want)
		}
	}
}
