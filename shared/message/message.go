package message

import (
	"cistatus/shared/model"
)

// BuildResultMessage is published to the build-results topic after every
// successfully ingested CI event, for downstream fan-out services.
type BuildResultMessage struct {
	EventID    string `json:"event_id"`
	Branch     string `json:"branch"`
	BuildNum   int64  `json:"build_num"`
	Status     string `json:"status"`
	AuthorName string `json:"author_name"`
	BuildURL   string `json:"build_url"`
	BuildTime  int64  `json:"build_time"` // milliseconds since epoch
	CommitHash string `json:"commit_hash"`
	Subject    string `json:"subject"`
}

// FromResult builds the relay message for one ingested result.
func FromResult(eventID string, r *model.BuildResult) BuildResultMessage {
	return BuildResultMessage{
		EventID:    eventID,
		Branch:     r.Branch,
		BuildNum:   r.BuildNum,
		Status:     r.Status,
		AuthorName: r.AuthorName,
		BuildURL:   r.BuildURL,
		BuildTime:  r.BuildTime,
		CommitHash: r.Commit.CommitHash,
		Subject:    r.Commit.Subject,
	}
}
