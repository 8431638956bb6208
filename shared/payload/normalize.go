package payload

import (
	"encoding/json"
	"errors"
	"fmt"

	"cistatus/shared/model"
)

var (
	// ErrMalformedPayload marks a CI event that cannot be normalized. The
	// event is dropped without touching store, cache or stats.
	ErrMalformedPayload = errors.New("malformed CI payload")
)

// envelope is the webhook body: the CI payload wrapped as {"payload": {...}}.
type envelope struct {
	Payload json.RawMessage `json:"payload"`
}

// ciPayload mirrors the fields of the CI completion event that get hoisted
// into typed BuildResult fields. Everything else stays in Raw.
type ciPayload struct {
	Branch           string `json:"branch"`
	BuildNum         int64  `json:"build_num"`
	BuildTimeMillis  int64  `json:"build_time_millis"`
	Outcome          string `json:"outcome"`
	AuthorName       string `json:"author_name"`
	BuildURL         string `json:"build_url"`
	AllCommitDetails []struct {
		Commit        string `json:"commit"`
		CommitURL     string `json:"commit_url"`
		Subject       string `json:"subject"`
		AuthorName    string `json:"author_name"`
		CommitterDate string `json:"committer_date"`
	} `json:"all_commit_details"`
}

// Normalize turns a raw webhook body into a canonical BuildResult. It is a
// pure transform: no store or cache is touched here.
func Normalize(body []byte) (*model.BuildResult, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if len(env.Payload) == 0 {
		return nil, fmt.Errorf("%w: missing payload object", ErrMalformedPayload)
	}

	var p ciPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if len(p.AllCommitDetails) == 0 {
		return nil, fmt.Errorf("%w: empty all_commit_details", ErrMalformedPayload)
	}

	outcome := p.Outcome
	if outcome == "" {
		outcome = model.DefaultOutcome
	}

	// Keep the full source payload around for replay/debugging and for the
	// renderer's start_time/stop_time columns.
	var raw map[string]interface{}
	if err := json.Unmarshal(env.Payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	first := p.AllCommitDetails[0]
	return &model.BuildResult{
		Branch:     p.Branch,
		BuildNum:   p.BuildNum,
		Status:     outcome,
		AuthorName: p.AuthorName,
		BuildURL:   p.BuildURL,
		BuildTime:  p.BuildTimeMillis,
		Commit: model.CommitDetail{
			CommitHash: first.Commit,
			CommitURL:  first.CommitURL,
			Subject:    first.Subject,
		},
		Raw: raw,
	}, nil
}
