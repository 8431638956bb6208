package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/go-redis/redis/v8"

	"cistatus/shared/model"
)

var (
	ErrBranchNotFound = errors.New("branch not found")
)

const (
	buildKeyPrefix = "build:branch:"
	statsKeyPrefix = "stats:branch:"
	branchIndexKey = "branches:by_update"
)

// buildRow is the storage representation of a BuildResult: one row per
// branch, branch is the primary key, the previous row is overwritten on
// every upsert. raw_value retains the full source payload.
type buildRow struct {
	Branch    string `json:"branch"`
	BuildNum  int64  `json:"build_num"`
	Status    string `json:"status"`
	Author    string `json:"author"`
	BuildURL  string `json:"build_url"`
	BuildTime int64  `json:"build_time"`
	RawValue  string `json:"raw_value,omitempty"`

	CommitHash string `json:"commit_hash"`
	CommitURL  string `json:"commit_url"`
	Subject    string `json:"subject"`
}

// statsRow is the storage representation of the cumulative counters.
type statsRow struct {
	Success int64 `json:"success"`
	Failure int64 `json:"failure"`
}

// ResultStore persists the latest build per branch and the cumulative
// success/failure counters in Redis, logically two tables keyed by branch.
type ResultStore struct {
	redisClient *redis.Client
}

func New(redisClient *redis.Client) *ResultStore {
	return &ResultStore{
		redisClient: redisClient,
	}
}

// UpsertResult replaces the stored row for the result's branch. The row
// write and the branch index update go through one transaction so a failure
// leaves no partial state.
func (s *ResultStore) UpsertResult(ctx context.Context, result *model.BuildResult) error {
	rowJSON, err := marshalRow(result)
	if err != nil {
		return err
	}

	pipe := s.redisClient.TxPipeline()
	pipe.Set(ctx, buildKeyPrefix+result.Branch, rowJSON, 0)
	pipe.ZAdd(ctx, branchIndexKey, &redis.Z{
		Score:  float64(result.BuildTime),
		Member: result.Branch,
	})
	_, err = pipe.Exec(ctx)
	return err
}

// UpsertStats replaces the counters row for the branch.
func (s *ResultStore) UpsertStats(ctx context.Context, branch string, stats model.BranchStats) error {
	statsJSON, err := json.Marshal(statsRow{Success: stats.Success, Failure: stats.Failure})
	if err != nil {
		return err
	}
	return s.redisClient.Set(ctx, statsKeyPrefix+branch, statsJSON, 0).Err()
}

// UpsertResultWithStats commits the new build row, the branch index entry
// and the new counters in a single transaction. This is the commit step of
// an ingestion: either all three land or none do.
func (s *ResultStore) UpsertResultWithStats(ctx context.Context, result *model.BuildResult, stats model.BranchStats) error {
	rowJSON, err := marshalRow(result)
	if err != nil {
		return err
	}
	statsJSON, err := json.Marshal(statsRow{Success: stats.Success, Failure: stats.Failure})
	if err != nil {
		return err
	}

	pipe := s.redisClient.TxPipeline()
	pipe.Set(ctx, buildKeyPrefix+result.Branch, rowJSON, 0)
	pipe.Set(ctx, statsKeyPrefix+result.Branch, statsJSON, 0)
	pipe.ZAdd(ctx, branchIndexKey, &redis.Z{
		Score:  float64(result.BuildTime),
		Member: result.Branch,
	})
	_, err = pipe.Exec(ctx)
	return err
}

// ReadStats returns the counters for a branch. An absent row is not an
// error: it returns zero counters and false.
func (s *ResultStore) ReadStats(ctx context.Context, branch string) (model.BranchStats, bool, error) {
	statsJSON, err := s.redisClient.Get(ctx, statsKeyPrefix+branch).Result()
	if err == redis.Nil {
		return model.BranchStats{}, false, nil
	}
	if err != nil {
		return model.BranchStats{}, false, err
	}

	var row statsRow
	if err := json.Unmarshal([]byte(statsJSON), &row); err != nil {
		return model.BranchStats{}, false, err
	}
	return model.BranchStats{Success: row.Success, Failure: row.Failure}, true, nil
}

// GetResult returns the stored latest build for a branch.
func (s *ResultStore) GetResult(ctx context.Context, branch string) (*model.BuildResult, error) {
	rowJSON, err := s.redisClient.Get(ctx, buildKeyPrefix+branch).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: %s", ErrBranchNotFound, branch)
	}
	if err != nil {
		return nil, err
	}
	return unmarshalRow([]byte(rowJSON))
}

// LoadAll returns the stored latest build of every branch. Used once at boot
// to seed the status cache.
func (s *ResultStore) LoadAll(ctx context.Context) ([]*model.BuildResult, error) {
	branches, err := s.redisClient.ZRange(ctx, branchIndexKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	results := make([]*model.BuildResult, 0, len(branches))
	for _, branch := range branches {
		result, err := s.GetResult(ctx, branch)
		if err != nil {
			// A dangling index entry is not fatal for boot seeding.
			log.Printf("⚠️ Skipping branch %s while seeding cache: %v", branch, err)
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

func marshalRow(result *model.BuildResult) ([]byte, error) {
	row := buildRow{
		Branch:     result.Branch,
		BuildNum:   result.BuildNum,
		Status:     result.Status,
		Author:     result.AuthorName,
		BuildURL:   result.BuildURL,
		BuildTime:  result.BuildTime,
		CommitHash: result.Commit.CommitHash,
		CommitURL:  result.Commit.CommitURL,
		Subject:    result.Commit.Subject,
	}
	if result.Raw != nil {
		rawJSON, err := json.Marshal(result.Raw)
		if err != nil {
			return nil, err
		}
		row.RawValue = string(rawJSON)
	}
	return json.Marshal(row)
}

func unmarshalRow(rowJSON []byte) (*model.BuildResult, error) {
	var row buildRow
	if err := json.Unmarshal(rowJSON, &row); err != nil {
		return nil, err
	}

	result := &model.BuildResult{
		Branch:     row.Branch,
		BuildNum:   row.BuildNum,
		Status:     row.Status,
		AuthorName: row.Author,
		BuildURL:   row.BuildURL,
		BuildTime:  row.BuildTime,
		Commit: model.CommitDetail{
			CommitHash: row.CommitHash,
			CommitURL:  row.CommitURL,
			Subject:    row.Subject,
		},
	}
	if row.RawValue != "" {
		var raw map[string]interface{}
		if err := json.Unmarshal([]byte(row.RawValue), &raw); err != nil {
			return nil, err
		}
		result.Raw = raw
	}
	return result, nil
}
