package ingest

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/entuziaz/csvup-server/pkg/domain"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// TimestampLayout is the only accepted timestamp format.
const TimestampLayout = "2006-01-02 15:04:05"

var (
	timestampType = reflect.TypeOf((*time.Time)(nil))
	weekdayType   = reflect.TypeOf(domain.Weekday(0))
)

// falsy holds the lower-cased markers that coerce a flag to false.
var falsy = map[string]struct{}{
	"":      {},
	"false": {},
	"f":     {},
	"no":    {},
	"n":     {},
	"off":   {},
	"nan":   {},
	"none":  {},
	"null":  {},
}

// Truthy coerces a raw cell to a flag. Empty cells, numeric zeros and the
// usual negative markers are false; anything else is true.
func Truthy(raw string) bool {
	v := strings.ToLower(strings.TrimSpace(raw))
	if _, ok := falsy[v]; ok {
		return false
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f != 0
	}
	return true
}

// Normalizer turns raw rows into typed transactions.
type Normalizer struct {
	validate *validator.Validate
}

// NewNormalizer creates a Normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Normalize decodes one row. index is the 1-based position of the row in the
// payload and is only used to build the FieldError.
func (n *Normalizer) Normalize(row RawRow, index int) (domain.Transaction, *domain.FieldError) {
	var record domain.Transaction
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.DecodeHookFuncType(coerceCell),
		WeaklyTypedInput: true,
		Result:           &record,
	})
	if err != nil {
		return domain.Transaction{}, rowError(row, index, err)
	}
	if err := decoder.Decode(map[string]string(row)); err != nil {
		return domain.Transaction{}, rowError(row, index, err)
	}
	record.TransactionID = strings.TrimSpace(record.TransactionID)
	if err := n.validate.Struct(record); err != nil {
		return domain.Transaction{}, rowError(row, index, err)
	}
	return record, nil
}

// NormalizeAll normalizes rows in order, splitting them into records and errors.
func (n *Normalizer) NormalizeAll(rows []RawRow) ([]domain.Transaction, []domain.FieldError) {
	records := make([]domain.Transaction, 0, len(rows))
	var errs []domain.FieldError
	for i, row := range rows {
		record, fieldErr := n.Normalize(row, i+1)
		if fieldErr != nil {
			errs = append(errs, *fieldErr)
			continue
		}
		records = append(records, record)
	}
	return records, errs
}

// coerceCell converts string cells for the field kinds that need more than
// mapstructure's weak decoding.
func coerceCell(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	raw := reflect.ValueOf(data).String()

	switch {
	case to == timestampType:
		ts, err := time.Parse(TimestampLayout, strings.TrimSpace(raw))
		if err != nil {
			// Untyped nil leaves the pointer unset.
			return nil, nil
		}
		return ts, nil
	case to == weekdayType:
		return domain.ParseWeekday(raw)
	case to.Kind() == reflect.Bool:
		return Truthy(raw), nil
	case to.Kind() == reflect.Int64:
		return parseInteger(raw)
	case to.Kind() == reflect.Float64:
		return parseNumber(raw)
	}
	return data, nil
}

func parseInteger(raw string) (any, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return int64(0), nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || f >= 1<<63 || f < -(1<<63) {
		return nil, fmt.Errorf("%q is not an integer", raw)
	}
	return int64(f), nil
}

func parseNumber(raw string) (any, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return float64(0), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", raw)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%q is not a finite number", raw)
	}
	return f, nil
}

func rowError(row RawRow, index int, err error) *domain.FieldError {
	id := strings.TrimSpace(row["transaction_id"])
	if id == "" {
		id = domain.UnknownTransactionID
	}
	return &domain.FieldError{
		Row:           index,
		Message:       describe(err),
		TransactionID: id,
	}
}

func describe(err error) string {
	var decodeErr *mapstructure.Error
	if errors.As(err, &decodeErr) {
		return strings.Join(decodeErr.Errors, "; ")
	}
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		msgs := make([]string, 0, len(validationErrs))
		for _, fe := range validationErrs {
			msgs = append(msgs, fmt.Sprintf("%s failed on the '%s' rule", fe.Field(), fe.Tag()))
		}
		return strings.Join(msgs, "; ")
	}
	return err.Error()
}
