package ingest

import (
	"context"
	"log/slog"
	"slices"

	"github.com/entuziaz/csvup-server/pkg/domain"
	"github.com/entuziaz/csvup-server/pkg/repository"
	"github.com/entuziaz/csvup-server/pkg/repository/transaction"
)

// PersistSummary reports what a Persister wrote.
type PersistSummary struct {
	Inserted int
	Replaced int
	Errors   []domain.FieldError
}

// Succeeded is the number of records durably written.
func (s PersistSummary) Succeeded() int {
	return s.Inserted + s.Replaced
}

type batchWrite func(transaction.Repository, context.Context, []domain.Transaction) error

// Persister writes a Partition in chunks, each chunk in its own nested unit of
// work so a failing chunk rolls back alone.
type Persister struct {
	chunkSize int
	logger    *slog.Logger
}

// NewPersister creates a Persister writing at most chunkSize records per chunk.
func NewPersister(chunkSize int, logger *slog.Logger) *Persister {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Persister{chunkSize: chunkSize, logger: logger}
}

// Persist inserts new records and replaces existing ones through uow, which
// is expected to already be inside a transaction. Chunk failures are turned
// into FieldErrors; only context cancellation aborts the call.
func (p *Persister) Persist(
	ctx context.Context,
	uow repository.UnitOfWork,
	partition Partition,
) (PersistSummary, error) {
	var summary PersistSummary
	var err error

	summary.Inserted, err = p.writeChunks(ctx, uow, "insert", partition.ToInsert, transaction.Repository.CreateBatch, &summary)
	if err != nil {
		return summary, err
	}
	summary.Replaced, err = p.writeChunks(ctx, uow, "replace", partition.ToUpdate, transaction.Repository.ReplaceBatch, &summary)
	if err != nil {
		return summary, err
	}
	return summary, nil
}

func (p *Persister) writeChunks(
	ctx context.Context,
	uow repository.UnitOfWork,
	op string,
	records []domain.Transaction,
	write batchWrite,
	summary *PersistSummary,
) (int, error) {
	written, n := 0, 0
	for chunk := range slices.Chunk(records, p.chunkSize) {
		n++
		if err := ctx.Err(); err != nil {
			return written, err
		}
		err := uow.Do(ctx, func(chunkUow repository.UnitOfWork) error {
			repo, err := chunkUow.TransactionRepository()
			if err != nil {
				return err
			}
			return write(repo, ctx, chunk)
		})
		if err != nil {
			p.logger.Error("Chunk write failed",
				"op", op,
				"chunk", n,
				"size", len(chunk),
				"error", err,
			)
			for _, rec := range chunk {
				summary.Errors = append(summary.Errors, domain.FieldError{
					Row:           domain.ChunkErrorRow,
					Message:       err.Error(),
					TransactionID: rec.TransactionID,
				})
			}
			continue
		}
		written += len(chunk)
	}
	return written, nil
}
