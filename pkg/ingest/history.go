package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/entuziaz/csvup-server/pkg/domain"
	"github.com/entuziaz/csvup-server/pkg/dto"
	"github.com/entuziaz/csvup-server/pkg/repository"
	"github.com/entuziaz/csvup-server/pkg/repository/upload"
	"github.com/google/uuid"
)

// DefaultMaxReportedErrors caps the errors kept in upload details.
const DefaultMaxReportedErrors = 10

// Handle identifies an upload history record opened by Begin.
type Handle struct {
	UploadID   uuid.UUID
	Filename   string
	UploadedAt time.Time
}

// Outcome is the row-level accounting of one ingestion call.
type Outcome struct {
	TotalRows  int
	Succeeded  int
	Duplicates int
	Superseded int
	Errors     []domain.FieldError
}

// Recorder writes the upload history lifecycle.
type Recorder struct {
	uow       repository.UnitOfWork
	maxErrors int
	now       func() time.Time
}

// NewRecorder creates a Recorder. uow must not be inside a transaction so that
// Begin and Fail commit on their own.
func NewRecorder(uow repository.UnitOfWork, maxErrors int) *Recorder {
	if maxErrors <= 0 {
		maxErrors = DefaultMaxReportedErrors
	}
	return &Recorder{uow: uow, maxErrors: maxErrors, now: time.Now}
}

// Begin inserts a processing record and returns its handle.
func (r *Recorder) Begin(ctx context.Context, source string) (*Handle, error) {
	uploads, err := r.uow.UploadRepository()
	if err != nil {
		return nil, err
	}
	h := &Handle{
		UploadID:   uuid.New(),
		Filename:   source,
		UploadedAt: r.now().UTC(),
	}
	if err := uploads.Create(ctx, dto.UploadCreate{
		UploadID:   h.UploadID,
		Filename:   h.Filename,
		UploadedAt: h.UploadedAt,
	}); err != nil {
		return nil, fmt.Errorf("failed to open upload history: %w", err)
	}
	return h, nil
}

// Finish finalizes the record through uploads, normally a repository bound to
// the ingestion transaction. The status is partial when any row failed.
func (r *Recorder) Finish(
	ctx context.Context,
	uploads upload.Repository,
	h *Handle,
	o Outcome,
) (domain.UploadStatus, error) {
	status := domain.UploadSuccess
	if len(o.Errors) > 0 {
		status = domain.UploadPartial
	}
	err := uploads.Finalize(ctx, h.UploadID, dto.UploadFinalize{
		Status:        status,
		RowsProcessed: o.Succeeded,
		Details: domain.UploadDetails{
			Errors:     r.truncate(o.Errors),
			Duplicates: o.Duplicates,
			Superseded: o.Superseded,
			TotalRows:  o.TotalRows,
			FailedRows: len(o.Errors),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to finalize upload %s: %w", h.UploadID, err)
	}
	return status, nil
}

// Fail marks the record failed with the cause in its details.
func (r *Recorder) Fail(ctx context.Context, h *Handle, cause error) error {
	uploads, err := r.uow.UploadRepository()
	if err != nil {
		return err
	}
	reason := "ingestion aborted"
	if cause != nil {
		reason = cause.Error()
	}
	if err := uploads.Finalize(ctx, h.UploadID, dto.UploadFinalize{
		Status:  domain.UploadFailed,
		Details: domain.UploadDetails{Errors: []domain.FieldError{}, Reason: reason},
	}); err != nil {
		return fmt.Errorf("failed to mark upload %s failed: %w", h.UploadID, err)
	}
	return nil
}

func (r *Recorder) truncate(errs []domain.FieldError) []domain.FieldError {
	n := min(len(errs), r.maxErrors)
	out := make([]domain.FieldError, n)
	copy(out, errs[:n])
	return out
}
