package domain

import (
	"encoding/json"
	"fmt"
)

const (
	// ChunkErrorRow is the Row value of errors raised by a failed chunk write.
	ChunkErrorRow = 0
	// UnknownTransactionID is reported when a failing row has no readable key.
	UnknownTransactionID = "unknown"

	chunkErrorMarker = "batch_error"
)

// FieldError describes one row that was excluded from persistence.
// Row is 1-based; ChunkErrorRow marks a record lost to a chunk-level failure.
type FieldError struct {
	Row           int
	Message       string
	TransactionID string
}

func (e FieldError) Error() string {
	if e.IsChunkError() {
		return fmt.Sprintf("chunk write failed for transaction %s: %s", e.TransactionID, e.Message)
	}
	return fmt.Sprintf("row %d (transaction %s): %s", e.Row, e.TransactionID, e.Message)
}

// IsChunkError reports whether the error came from a chunk write rather than a row.
func (e FieldError) IsChunkError() bool {
	return e.Row == ChunkErrorRow
}

type fieldErrorJSON struct {
	Row           json.RawMessage `json:"row"`
	Message       string          `json:"error"`
	TransactionID string          `json:"transaction_id"`
}

// MarshalJSON renders chunk errors with row "batch_error".
func (e FieldError) MarshalJSON() ([]byte, error) {
	row := []byte(fmt.Sprintf("%d", e.Row))
	if e.IsChunkError() {
		row = []byte(`"` + chunkErrorMarker + `"`)
	}
	return json.Marshal(fieldErrorJSON{
		Row:           row,
		Message:       e.Message,
		TransactionID: e.TransactionID,
	})
}

// UnmarshalJSON accepts both numeric rows and the chunk marker.
func (e *FieldError) UnmarshalJSON(data []byte) error {
	var raw fieldErrorJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Message = raw.Message
	e.TransactionID = raw.TransactionID
	e.Row = ChunkErrorRow
	if len(raw.Row) == 0 {
		return nil
	}
	var marker string
	if err := json.Unmarshal(raw.Row, &marker); err == nil {
		if marker != chunkErrorMarker {
			return fmt.Errorf("unexpected row marker %q", marker)
		}
		return nil
	}
	return json.Unmarshal(raw.Row, &e.Row)
}
