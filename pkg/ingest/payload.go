package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/entuziaz/csvup-server/pkg/domain"
)

const utf8BOM = "\ufeff"

// RawRow is one data row keyed by column name, values as they appeared.
type RawRow map[string]string

// RawPayload is a decoded tabular payload: its header and data rows.
type RawPayload struct {
	Columns []string
	Rows    []RawRow
}

// ParseError is returned when a payload cannot be decoded into rows.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed payload at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("malformed payload: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is makes ParseError match domain.ErrMalformedPayload.
func (e *ParseError) Is(target error) bool {
	return target == domain.ErrMalformedPayload
}

// CheckSourceName rejects source names whose extension is not allowed.
// The comparison is case-insensitive.
func CheckSourceName(source string, allowed []string) error {
	ext := strings.ToLower(filepath.Ext(source))
	for _, a := range allowed {
		if ext != "" && ext == strings.ToLower(a) {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", domain.ErrInvalidFileType, source)
}

// Decode runs the boundary checks on an uploaded payload and parses it.
func Decode(source string, data []byte, allowed []string) (*RawPayload, error) {
	if err := CheckSourceName(source, allowed); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, domain.ErrEmptyPayload
	}
	return ParseCSV(bytes.NewReader(data))
}

// ParseCSV reads a header row followed by data rows. Every data row must have
// as many fields as the header; blank lines are skipped.
func ParseCSV(r io.Reader) (*RawPayload, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ParseError{Err: errors.New("no header row")}
	}
	if err != nil {
		return nil, toParseError(err)
	}

	columns, err := normalizeHeader(header)
	if err != nil {
		return nil, err
	}

	payload := &RawPayload{Columns: columns}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, toParseError(err)
		}
		row := make(RawRow, len(columns))
		for i, c := range columns {
			row[c] = record[i]
		}
		payload.Rows = append(payload.Rows, row)
	}
	return payload, nil
}

func normalizeHeader(header []string) ([]string, error) {
	columns := make([]string, len(header))
	seen := make(map[string]struct{}, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		name := strings.TrimSpace(h)
		if _, dup := seen[name]; dup && name != "" {
			return nil, &ParseError{Line: 1, Err: fmt.Errorf("duplicate column %q", name)}
		}
		seen[name] = struct{}{}
		columns[i] = name
	}
	return columns, nil
}

func toParseError(err error) error {
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return &ParseError{Line: csvErr.Line, Err: csvErr.Err}
	}
	return &ParseError{Err: err}
}
