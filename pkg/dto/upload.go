package dto

import (
	"time"

	"github.com/entuziaz/csvup-server/pkg/domain"
	"github.com/google/uuid"
)

// IngestResult summarizes one ingestion call for API responses.
type IngestResult struct {
	Filename       string    `json:"filename"`
	TotalRows      int       `json:"total_rows"`
	SuccessfulRows int       `json:"successful_rows"`
	FailedRows     int       `json:"failed_rows"`
	DuplicateRows  int       `json:"duplicate_rows"`
	UploadID       uuid.UUID `json:"upload_id"`
}

// UploadCreate is a DTO for opening a new upload history record.
type UploadCreate struct {
	UploadID   uuid.UUID
	Filename   string
	UploadedAt time.Time
}

// UploadFinalize is a DTO for moving an upload from processing to a terminal status.
type UploadFinalize struct {
	Status        domain.UploadStatus
	RowsProcessed int
	Details       domain.UploadDetails
}

// UploadPage is one page of upload history, most recent first.
type UploadPage struct {
	Items    []*domain.UploadHistory `json:"items"`
	Page     int                     `json:"page"`
	PageSize int                     `json:"page_size"`
	Total    int64                   `json:"total"`
}
