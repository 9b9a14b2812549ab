package ingest

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/entuziaz/csvup-server/pkg/domain"
)

// DefaultChunkSize bounds both key lookups and write batches.
const DefaultChunkSize = 1000

// KeyLookup reports which business keys are already stored.
type KeyLookup interface {
	ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error)
}

// Partition is the classification of one batch of records by business key.
type Partition struct {
	ToInsert []domain.Transaction
	ToUpdate []domain.Transaction
	// Superseded counts records dropped because a later record in the same
	// batch carried the same key.
	Superseded int
}

// Resolver classifies records into inserts and updates. It never writes.
type Resolver struct {
	chunkSize int
}

// NewResolver creates a Resolver querying at most chunkSize keys at a time.
func NewResolver(chunkSize int) *Resolver {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Resolver{chunkSize: chunkSize}
}

// Partition collapses same-key records (the last one wins) and splits the
// result by whether the key is already stored. Output keeps the order in
// which each key first appeared.
func (r *Resolver) Partition(
	ctx context.Context,
	records []domain.Transaction,
	lookup KeyLookup,
) (Partition, error) {
	latest := make(map[string]domain.Transaction, len(records))
	order := make([]string, 0, len(records))
	for _, rec := range records {
		if _, seen := latest[rec.TransactionID]; !seen {
			order = append(order, rec.TransactionID)
		}
		latest[rec.TransactionID] = rec
	}

	existing := make(map[string]struct{})
	for ids := range slices.Chunk(order, r.chunkSize) {
		if err := ctx.Err(); err != nil {
			return Partition{}, err
		}
		found, err := lookup.ExistingIDs(ctx, ids)
		if err != nil {
			return Partition{}, fmt.Errorf("failed to look up existing transactions: %w", err)
		}
		maps.Copy(existing, found)
	}

	p := Partition{Superseded: len(records) - len(order)}
	for _, id := range order {
		if _, ok := existing[id]; ok {
			p.ToUpdate = append(p.ToUpdate, latest[id])
		} else {
			p.ToInsert = append(p.ToInsert, latest[id])
		}
	}
	return p, nil
}
