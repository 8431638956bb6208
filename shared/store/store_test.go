package store

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"cistatus/shared/model"
)

func testStore(t *testing.T) *ResultStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client)
}

func testResult(branch, status string, buildNum int64) *model.BuildResult {
	return &model.BuildResult{
		Branch:     branch,
		BuildNum:   buildNum,
		Status:     status,
		AuthorName: "Alice",
		BuildURL:   "https://ci.example.com/builds/1",
		BuildTime:  1700000000000 + buildNum,
		Commit: model.CommitDetail{
			CommitHash: "0123456789abcdef",
			CommitURL:  "https://git.example.com/commit/0123456789",
			Subject:    "Fix the widget",
		},
		Raw: map[string]interface{}{
			"start_time": "2023-11-14T22:13:20Z",
			"stop_time":  "2023-11-14T22:15:20Z",
		},
	}
}

func TestUpsertResultRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	want := testResult("main", "success", 1)
	if err := s.UpsertResult(ctx, want); err != nil {
		t.Fatalf("UpsertResult failed: %v", err)
	}

	got, err := s.GetResult(ctx, "main")
	if err != nil {
		t.Fatalf("GetResult failed: %v", err)
	}
	if got.Branch != "main" || got.BuildNum != 1 || got.Status != "success" {
		t.Errorf("GetResult = %+v", got)
	}
	if got.Commit != want.Commit {
		t.Errorf("Commit = %+v, want %+v", got.Commit, want.Commit)
	}
	if got.RawString("start_time") != "2023-11-14T22:13:20Z" {
		t.Errorf("raw payload not retained: %v", got.Raw)
	}
}

func TestUpsertResultOverwrites(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.UpsertResult(ctx, testResult("main", "success", 1)); err != nil {
		t.Fatalf("UpsertResult failed: %v", err)
	}
	if err := s.UpsertResult(ctx, testResult("main", "failed", 2)); err != nil {
		t.Fatalf("UpsertResult failed: %v", err)
	}

	got, err := s.GetResult(ctx, "main")
	if err != nil {
		t.Fatalf("GetResult failed: %v", err)
	}
	if got.Status != "failed" || got.BuildNum != 2 {
		t.Errorf("latest write must win, got %+v", got)
	}

	// Branch is the primary key: no history accumulates
	all, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("LoadAll returned %d rows, want 1", len(all))
	}
}

func TestGetResultUnknownBranch(t *testing.T) {
	s := testStore(t)

	_, err := s.GetResult(context.Background(), "missing")
	if !errors.Is(err, ErrBranchNotFound) {
		t.Errorf("err = %v, want ErrBranchNotFound", err)
	}
}

func TestStatsRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, found, err := s.ReadStats(ctx, "main")
	if err != nil {
		t.Fatalf("ReadStats failed: %v", err)
	}
	if found {
		t.Error("stats for unknown branch must be reported absent")
	}

	if err := s.UpsertStats(ctx, "main", model.BranchStats{Success: 3, Failure: 1}); err != nil {
		t.Fatalf("UpsertStats failed: %v", err)
	}

	got, found, err := s.ReadStats(ctx, "main")
	if err != nil {
		t.Fatalf("ReadStats failed: %v", err)
	}
	if !found || got.Success != 3 || got.Failure != 1 {
		t.Errorf("ReadStats = %+v found=%v", got, found)
	}
}

func TestUpsertResultWithStats(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	result := testResult("dev", "failed", 9)
	if err := s.UpsertResultWithStats(ctx, result, model.BranchStats{Failure: 1}); err != nil {
		t.Fatalf("UpsertResultWithStats failed: %v", err)
	}

	got, err := s.GetResult(ctx, "dev")
	if err != nil {
		t.Fatalf("GetResult failed: %v", err)
	}
	if got.Status != "failed" {
		t.Errorf("Status = %q", got.Status)
	}

	gotStats, found, err := s.ReadStats(ctx, "dev")
	if err != nil || !found {
		t.Fatalf("ReadStats = %v found=%v", err, found)
	}
	if gotStats.Failure != 1 || gotStats.Success != 0 {
		t.Errorf("stats = %+v", gotStats)
	}
}

func TestLoadAll(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, r := range []*model.BuildResult{
		testResult("main", "success", 1),
		testResult("dev", "failed", 2),
		testResult("release", "success", 3),
	} {
		if err := s.UpsertResult(ctx, r); err != nil {
			t.Fatalf("UpsertResult failed: %v", err)
		}
	}

	all, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("LoadAll returned %d rows, want 3", len(all))
	}

	byBranch := make(map[string]*model.BuildResult)
	for _, r := range all {
		byBranch[r.Branch] = r
	}
	if byBranch["dev"] == nil || byBranch["dev"].Status != "failed" {
		t.Errorf("dev row = %+v", byBranch["dev"])
	}
}
