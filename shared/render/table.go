package render

import (
	"cistatus/shared/model"
)

// Aggregate colors for a rendered status.
const (
	ColorGreen  = "green"
	ColorYellow = "yellow"
)

const shortHashLen = 10

// Cell is one table cell: display text plus an optional link target.
type Cell struct {
	Text string `json:"text"`
	Link string `json:"link,omitempty"`
}

// StatusTable is the structural table description produced by the renderer,
// independent of the markup it is eventually rendered into.
type StatusTable struct {
	Header []string `json:"header"`
	Rows   [][]Cell `json:"rows"`
}

// RenderedStatus is a status table plus the derived aggregate summary.
type RenderedStatus struct {
	Color      string      `json:"color"`
	Table      StatusTable `json:"table"`
	AllSuccess bool        `json:"all_success"`
}

var header = []string{"Branch", "Status", "Author", "Commit", "Build", "Started", "Stopped"}

// Render builds one table row per result, in the given order, and derives
// the aggregate color. An empty input renders an empty green table:
// AllSuccess is vacuously true.
func Render(results []*model.BuildResult) RenderedStatus {
	rendered := RenderedStatus{
		Table: StatusTable{
			Header: header,
			Rows:   make([][]Cell, 0, len(results)),
		},
		AllSuccess: true,
	}

	for _, result := range results {
		if !result.Success() {
			rendered.AllSuccess = false
		}
		rendered.Table.Rows = append(rendered.Table.Rows, row(result))
	}

	if rendered.AllSuccess {
		rendered.Color = ColorGreen
	} else {
		rendered.Color = ColorYellow
	}
	return rendered
}

func row(result *model.BuildResult) []Cell {
	return []Cell{
		{Text: result.Branch},
		{Text: result.Status},
		{Text: result.AuthorName},
		{Text: commitText(result.Commit), Link: result.Commit.CommitURL},
		{Text: "build", Link: result.BuildURL},
		{Text: result.RawString("start_time")},
		{Text: result.RawString("stop_time")},
	}
}

func commitText(commit model.CommitDetail) string {
	hash := commit.CommitHash
	if len(hash) > shortHashLen {
		hash = hash[:shortHashLen]
	}
	if commit.Subject == "" {
		return hash
	}
	return hash + " " + commit.Subject
}
