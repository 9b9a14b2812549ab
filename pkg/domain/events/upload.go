package events

import (
	"time"

	"github.com/entuziaz/csvup-server/pkg/domain"
	"github.com/google/uuid"
)

// UploadFinalized reports the outcome of one ingestion call.
type UploadFinalized struct {
	UploadID       uuid.UUID           `json:"upload_id"`
	Filename       string              `json:"filename"`
	Status         domain.UploadStatus `json:"status"`
	TotalRows      int                 `json:"total_rows"`
	SuccessfulRows int                 `json:"successful_rows"`
	FailedRows     int                 `json:"failed_rows"`
	DuplicateRows  int                 `json:"duplicate_rows"`
	OccurredAt     time.Time           `json:"occurred_at"`
}

func (e UploadFinalized) Type() string { return EventTypeUploadFinalized.String() }
