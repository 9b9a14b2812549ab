// Package upload provides the ingestion workflow for uploaded transaction files
// and read access to the upload history.
//
// Ingest runs the whole pipeline for one payload: schema check, row
// normalization, duplicate resolution, chunked persistence and the history
// lifecycle. Every successful chunk and the finalized history record commit
// together in one transaction; a top-level failure rolls that transaction back
// and marks the history record failed with a separate write.
package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/entuziaz/csvup-server/pkg/cache"
	"github.com/entuziaz/csvup-server/pkg/config"
	"github.com/entuziaz/csvup-server/pkg/domain"
	"github.com/entuziaz/csvup-server/pkg/domain/events"
	"github.com/entuziaz/csvup-server/pkg/dto"
	"github.com/entuziaz/csvup-server/pkg/eventbus"
	"github.com/entuziaz/csvup-server/pkg/ingest"
	"github.com/entuziaz/csvup-server/pkg/repository"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const defaultHistoryCacheTTL = 10 * time.Minute

// Service provides upload ingestion and history queries.
type Service struct {
	uow        repository.UnitOfWork
	normalizer *ingest.Normalizer
	resolver   *ingest.Resolver
	persister  *ingest.Persister
	recorder   *ingest.Recorder
	cache      cache.UploadCache
	cacheTTL   time.Duration
	eventBus   eventbus.Bus
	allowed    []string
	logger     *slog.Logger
	lookups    singleflight.Group
}

// NewService creates a new Service with the provided dependencies.
func NewService(deps config.Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("service", "upload")

	chunkSize := ingest.DefaultChunkSize
	maxErrors := ingest.DefaultMaxReportedErrors
	allowed := []string{".csv"}
	cacheTTL := defaultHistoryCacheTTL
	if cfg := deps.Config; cfg != nil {
		if in := cfg.Ingest; in != nil {
			if in.ChunkSize > 0 {
				chunkSize = in.ChunkSize
			}
			if in.MaxReportedErrors > 0 {
				maxErrors = in.MaxReportedErrors
			}
			if len(in.AllowedExtensions) > 0 {
				allowed = in.AllowedExtensions
			}
		}
		if hc := cfg.HistoryCache; hc != nil && hc.TTL > 0 {
			cacheTTL = hc.TTL
		}
	}

	return &Service{
		uow:        deps.Uow,
		normalizer: ingest.NewNormalizer(),
		resolver:   ingest.NewResolver(chunkSize),
		persister:  ingest.NewPersister(chunkSize, logger),
		recorder:   ingest.NewRecorder(deps.Uow, maxErrors),
		cache:      deps.HistoryCache,
		cacheTTL:   cacheTTL,
		eventBus:   deps.EventBus,
		allowed:    allowed,
		logger:     logger,
	}
}

// AllowedExtensions returns the accepted source name extensions.
func (s *Service) AllowedExtensions() []string {
	return slices.Clone(s.allowed)
}

// IngestFile decodes an uploaded file and ingests it.
func (s *Service) IngestFile(ctx context.Context, source string, data []byte) (*dto.IngestResult, error) {
	payload, err := ingest.Decode(source, data, s.allowed)
	if err != nil {
		return nil, err
	}
	return s.Ingest(ctx, payload, source)
}

// Ingest processes one decoded payload end to end.
//
// A payload missing required columns is rejected with an *ingest.SchemaError
// before any history is written. Otherwise a history record is always left in
// a terminal status: success or partial when the pipeline ran, failed when it
// aborted. Row-level problems never fail the call; they are reported in the
// result counts and the history details.
func (s *Service) Ingest(ctx context.Context, payload *ingest.RawPayload, source string) (*dto.IngestResult, error) {
	if payload == nil {
		return nil, domain.ErrEmptyPayload
	}
	if ok, missing := ingest.ValidateSchema(payload.Columns); !ok {
		return nil, &ingest.SchemaError{Missing: missing}
	}

	handle, err := s.recorder.Begin(ctx, source)
	if err != nil {
		return nil, err
	}
	logger := s.logger.With("upload_id", handle.UploadID, "filename", source)

	records, rowErrs := s.normalizer.NormalizeAll(payload.Rows)

	var (
		partition ingest.Partition
		summary   ingest.PersistSummary
		outcome   ingest.Outcome
		status    domain.UploadStatus
	)
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		txRepo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		partition, err = s.resolver.Partition(ctx, records, txRepo)
		if err != nil {
			return err
		}
		summary, err = s.persister.Persist(ctx, uow, partition)
		if err != nil {
			return err
		}

		uploads, err := uow.UploadRepository()
		if err != nil {
			return err
		}
		outcome = ingest.Outcome{
			TotalRows:  len(payload.Rows),
			Succeeded:  summary.Succeeded(),
			Duplicates: len(partition.ToUpdate),
			Superseded: partition.Superseded,
			Errors:     slices.Concat(rowErrs, summary.Errors),
		}
		status, err = s.recorder.Finish(ctx, uploads, handle, outcome)
		return err
	})
	if err != nil {
		logger.Error("Ingestion aborted", "error", err)
		s.abort(ctx, handle, err, len(payload.Rows))
		return nil, fmt.Errorf("ingestion of %s aborted: %w", source, err)
	}

	result := &dto.IngestResult{
		Filename:       source,
		TotalRows:      outcome.TotalRows,
		SuccessfulRows: outcome.Succeeded,
		FailedRows:     len(outcome.Errors),
		DuplicateRows:  outcome.Duplicates,
		UploadID:       handle.UploadID,
	}
	logger.Info("Upload ingested",
		"status", status,
		"total_rows", result.TotalRows,
		"successful_rows", result.SuccessfulRows,
		"failed_rows", result.FailedRows,
		"duplicate_rows", result.DuplicateRows,
		"superseded_rows", outcome.Superseded,
	)

	s.publish(ctx, events.UploadFinalized{
		UploadID:       handle.UploadID,
		Filename:       source,
		Status:         status,
		TotalRows:      result.TotalRows,
		SuccessfulRows: result.SuccessfulRows,
		FailedRows:     result.FailedRows,
		DuplicateRows:  result.DuplicateRows,
		OccurredAt:     time.Now().UTC(),
	})
	return result, nil
}

// abort records the failure outside the rolled back transaction. It runs even
// when ctx was cancelled, since the processing record must not be left open.
func (s *Service) abort(ctx context.Context, handle *ingest.Handle, cause error, totalRows int) {
	ctx = context.WithoutCancel(ctx)
	if err := s.recorder.Fail(ctx, handle, cause); err != nil {
		s.logger.Error("Failed to record aborted upload", "upload_id", handle.UploadID, "error", err)
		return
	}
	s.publish(ctx, events.UploadFinalized{
		UploadID:   handle.UploadID,
		Filename:   handle.Filename,
		Status:     domain.UploadFailed,
		TotalRows:  totalRows,
		OccurredAt: time.Now().UTC(),
	})
}

func (s *Service) publish(ctx context.Context, event events.UploadFinalized) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Emit(ctx, event); err != nil {
		s.logger.Warn("Failed to publish upload event",
			"upload_id", event.UploadID,
			"event_type", event.Type(),
			"error", err,
		)
	}
}

// History returns one page of upload history, most recent first. page is 1-based.
func (s *Service) History(ctx context.Context, page, pageSize int) (*dto.UploadPage, error) {
	if page < 1 || pageSize < 1 {
		return nil, fmt.Errorf("%w: page and page size must be positive", domain.ErrValidation)
	}
	uploads, err := s.uow.UploadRepository()
	if err != nil {
		return nil, err
	}
	items, total, err := uploads.List(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*domain.UploadHistory{}
	}
	return &dto.UploadPage{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	}, nil
}

// GetUpload returns one upload history record. Finalized records are served
// from the cache when present; concurrent misses for the same id share one
// storage read.
func (s *Service) GetUpload(ctx context.Context, uploadID uuid.UUID) (*domain.UploadHistory, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, uploadID)
		if err != nil {
			s.logger.Warn("Upload cache read failed", "upload_id", uploadID, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	v, err, _ := s.lookups.Do(uploadID.String(), func() (any, error) {
		// Shared by every caller waiting on this id.
		ctx := context.WithoutCancel(ctx)
		uploads, err := s.uow.UploadRepository()
		if err != nil {
			return nil, err
		}
		record, err := uploads.Get(ctx, uploadID)
		if err != nil {
			return nil, err
		}
		if s.cache != nil && record.Status.IsTerminal() {
			if err := s.cache.Set(ctx, record, s.cacheTTL); err != nil {
				s.logger.Warn("Upload cache write failed", "upload_id", uploadID, "error", err)
			}
		}
		return record, nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("upload %s: %w", uploadID, domain.ErrNotFound)
		}
		return nil, err
	}
	record := *v.(*domain.UploadHistory)
	return &record, nil
}
