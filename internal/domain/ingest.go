package domain

// IngestMode selects how an uploaded roster file is merged into the store.
type IngestMode string

const (
	IngestReplaceAll IngestMode = "upload"
	IngestAppend     IngestMode = "append"
	IngestBulkUpdate IngestMode = "bulk-update"
)

// RowIssue describes one rejected or skipped input row. Line is 1-based and counts the header.
type RowIssue struct {
	Line   int
	Fileno string
	Reason string
}

// IngestReport summarizes an applied ingestion batch.
type IngestReport struct {
	BatchID   string
	Mode      IngestMode
	Received  int
	Inserted  int
	Updated   int
	Unchanged int
	Deleted   int
	Skipped   int
	Issues    []RowIssue
	Warnings  []string
}
