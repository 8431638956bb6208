package payload

import (
	"errors"
	"testing"

	"cistatus/shared/model"
)

const validEvent = `{
	"payload": {
		"branch": "main",
		"build_num": 42,
		"build_time_millis": 1700000000000,
		"outcome": "success",
		"author_name": "Alice",
		"build_url": "https://ci.example.com/builds/42",
		"start_time": "2023-11-14T22:13:20Z",
		"stop_time": "2023-11-14T22:15:20Z",
		"all_commit_details": [
			{
				"commit": "0123456789abcdef0123456789abcdef01234567",
				"commit_url": "https://git.example.com/commit/0123456789",
				"subject": "Fix the widget"
			},
			{
				"commit": "aaaa",
				"commit_url": "https://git.example.com/commit/aaaa",
				"subject": "Older commit"
			}
		]
	}
}`

func TestNormalize(t *testing.T) {
	result, err := Normalize([]byte(validEvent))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if result.Branch != "main" {
		t.Errorf("Branch = %q, want main", result.Branch)
	}
	if result.BuildNum != 42 {
		t.Errorf("BuildNum = %d, want 42", result.BuildNum)
	}
	if result.Status != "success" {
		t.Errorf("Status = %q, want success", result.Status)
	}
	if result.AuthorName != "Alice" {
		t.Errorf("AuthorName = %q, want Alice", result.AuthorName)
	}
	if result.BuildTime != 1700000000000 {
		t.Errorf("BuildTime = %d, want 1700000000000", result.BuildTime)
	}

	// First commit of the list becomes the commit detail
	if result.Commit.CommitHash != "0123456789abcdef0123456789abcdef01234567" {
		t.Errorf("CommitHash = %q", result.Commit.CommitHash)
	}
	if result.Commit.Subject != "Fix the widget" {
		t.Errorf("Subject = %q", result.Commit.Subject)
	}

	// Raw keeps fields that are not hoisted into typed ones
	if got := result.RawString("start_time"); got != "2023-11-14T22:13:20Z" {
		t.Errorf("RawString(start_time) = %q", got)
	}
	if got := result.RawString("stop_time"); got != "2023-11-14T22:15:20Z" {
		t.Errorf("RawString(stop_time) = %q", got)
	}
}

func TestNormalizeDefaultsMissingOutcomeToFail(t *testing.T) {
	body := `{
		"payload": {
			"branch": "dev",
			"build_num": 7,
			"all_commit_details": [{"commit": "abc", "commit_url": "u", "subject": "s"}]
		}
	}`

	result, err := Normalize([]byte(body))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if result.Status != model.DefaultOutcome {
		t.Errorf("Status = %q, want %q", result.Status, model.DefaultOutcome)
	}
	if result.Success() {
		t.Error("missing outcome must land in the failure bucket")
	}
}

func TestNormalizeMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `not even json`},
		{"missing payload", `{"something": "else"}`},
		{"missing commit details", `{"payload": {"branch": "main", "build_num": 1}}`},
		{"empty commit details", `{"payload": {"branch": "main", "all_commit_details": []}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize([]byte(tt.body))
			if !errors.Is(err, ErrMalformedPayload) {
				t.Errorf("err = %v, want ErrMalformedPayload", err)
			}
		})
	}
}
