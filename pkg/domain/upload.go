package domain

import (
	"time"

	"github.com/google/uuid"
)

// UploadStatus is the lifecycle state of an upload history record.
type UploadStatus string

const (
	UploadProcessing UploadStatus = "processing"
	UploadSuccess    UploadStatus = "success"
	UploadPartial    UploadStatus = "partial"
	UploadFailed     UploadStatus = "failed"
)

// IsTerminal reports whether the status can no longer change.
func (s UploadStatus) IsTerminal() bool {
	switch s {
	case UploadSuccess, UploadPartial, UploadFailed:
		return true
	}
	return false
}

// UploadDetails is the bounded summary stored with a finalized upload.
type UploadDetails struct {
	Errors     []FieldError `json:"errors"`
	Duplicates int          `json:"duplicates"`
	Superseded int          `json:"superseded"`
	TotalRows  int          `json:"total_rows"`
	FailedRows int          `json:"failed_rows"`
	Reason     string       `json:"reason,omitempty"`
}

// UploadHistory is the audit record of one ingestion call.
type UploadHistory struct {
	UploadID      uuid.UUID      `json:"upload_id"`
	Filename      string         `json:"filename"`
	UploadedAt    time.Time      `json:"uploaded_at"`
	RowsProcessed int            `json:"rows_processed"`
	Status        UploadStatus   `json:"status"`
	FinishedAt    *time.Time     `json:"finished_at,omitempty"`
	Details       *UploadDetails `json:"details,omitempty"`
}
