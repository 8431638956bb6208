package model

// Build outcome literals as reported by the CI system. Anything that is not
// StatusSuccess counts in the failure bucket for stats, but the literal
// string is kept for display.
const (
	StatusSuccess = "success"

	// DefaultOutcome is used when the CI payload carries no outcome at all.
	// Fail-closed: an unknown result is treated as a failure.
	DefaultOutcome = "fail"
)

// CommitDetail is the first commit attached to the triggering CI event.
type CommitDetail struct {
	CommitHash string `json:"commit_hash"`
	CommitURL  string `json:"commit_url"`
	Subject    string `json:"subject"`
}

// BuildResult is one CI run's outcome for a branch.
type BuildResult struct {
	Branch     string       `json:"branch"`
	BuildNum   int64        `json:"build_num"`
	Status     string       `json:"status"`
	AuthorName string       `json:"author_name"`
	BuildURL   string       `json:"build_url"`
	BuildTime  int64        `json:"build_time"` // milliseconds since epoch
	Commit     CommitDetail `json:"commit_details"`

	// Raw keeps the full source payload for replay/debugging and for fields
	// the renderer reads without hoisting them into typed fields
	// (start_time, stop_time).
	Raw map[string]interface{} `json:"raw,omitempty"`
}

// Success reports whether the build landed in the success bucket.
func (r *BuildResult) Success() bool {
	return r.Status == StatusSuccess
}

// RawString returns a string field from the retained source payload, or ""
// when absent or not a string.
func (r *BuildResult) RawString(key string) string {
	if r.Raw == nil {
		return ""
	}
	s, _ := r.Raw[key].(string)
	return s
}

// BranchStats holds the cumulative per-branch counters. Both counters are
// non-negative and monotonically non-decreasing; exactly one of them is
// incremented per processed event.
type BranchStats struct {
	Success int64 `json:"success"`
	Failure int64 `json:"failure"`
}

// Bump returns the stats with the bucket for status incremented by one.
func (s BranchStats) Bump(status string) BranchStats {
	if status == StatusSuccess {
		s.Success++
	} else {
		s.Failure++
	}
	return s
}
