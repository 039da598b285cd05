package dto

import "github.com/staffdesk/roster-service/internal/domain"

// RowIssueResponse describes one skipped row.
type RowIssueResponse struct {
	Line   int    `json:"line"`
	Fileno string `json:"fileno,omitempty"`
	Reason string `json:"reason"`
}

// IngestReportResponse summarizes an applied upload.
type IngestReportResponse struct {
	BatchID   string             `json:"batch_id"`
	Mode      domain.IngestMode  `json:"mode"`
	Received  int                `json:"received"`
	Inserted  int                `json:"inserted"`
	Updated   int                `json:"updated"`
	Unchanged int                `json:"unchanged"`
	Deleted   int                `json:"deleted"`
	Skipped   int                `json:"skipped"`
	Issues    []RowIssueResponse `json:"issues"`
	Warnings  []string           `json:"warnings"`
}

// NewIngestReportResponse maps a report.
func NewIngestReportResponse(r *domain.IngestReport) IngestReportResponse {
	issues := make([]RowIssueResponse, 0, len(r.Issues))
	for _, issue := range r.Issues {
		issues = append(issues, RowIssueResponse{Line: issue.Line, Fileno: issue.Fileno, Reason: issue.Reason})
	}
	warnings := r.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return IngestReportResponse{
		BatchID:   r.BatchID,
		Mode:      r.Mode,
		Received:  r.Received,
		Inserted:  r.Inserted,
		Updated:   r.Updated,
		Unchanged: r.Unchanged,
		Deleted:   r.Deleted,
		Skipped:   r.Skipped,
		Issues:    issues,
		Warnings:  warnings,
	}
}
