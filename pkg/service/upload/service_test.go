package upload_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	infracache "github.com/entuziaz/csvup-server/infra/cache"
	infraeventbus "github.com/entuziaz/csvup-server/infra/eventbus"
	infrarepo "github.com/entuziaz/csvup-server/infra/repository"
	"github.com/entuziaz/csvup-server/internal/fixtures/mocks"
	txfixtures "github.com/entuziaz/csvup-server/internal/fixtures/transactions"
	"github.com/entuziaz/csvup-server/pkg/config"
	"github.com/entuziaz/csvup-server/pkg/domain"
	"github.com/entuziaz/csvup-server/pkg/domain/events"
	"github.com/entuziaz/csvup-server/pkg/dto"
	"github.com/entuziaz/csvup-server/pkg/eventbus"
	"github.com/entuziaz/csvup-server/pkg/ingest"
	"github.com/entuziaz/csvup-server/pkg/repository"
	"github.com/entuziaz/csvup-server/pkg/service/upload"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type harness struct {
	svc   *upload.Service
	db    *gorm.DB
	uow   repository.UnitOfWork
	bus   *infraeventbus.MemoryEventBus
	cache *infracache.MemoryCache
}

func newHarness(t *testing.T, ingestCfg *config.Ingest) *harness {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, infrarepo.AutoMigrate(db))

	if ingestCfg == nil {
		ingestCfg = &config.Ingest{ChunkSize: 1000, MaxReportedErrors: 10, AllowedExtensions: []string{".csv"}}
	}
	h := &harness{
		db:    db,
		uow:   infrarepo.NewUoW(db),
		bus:   infraeventbus.NewWithMemory(slog.Default()),
		cache: infracache.NewMemoryCache(),
	}
	h.svc = upload.NewService(config.Deps{
		Uow:          h.uow,
		HistoryCache: h.cache,
		EventBus:     h.bus,
		Logger:       slog.Default(),
		Config:       &config.App{Ingest: ingestCfg},
	})
	return h
}

func (h *harness) ingest(t *testing.T, rows ...map[string]string) *dto.IngestResult {
	t.Helper()
	result, err := h.svc.IngestFile(context.Background(), "batch.csv", txfixtures.CSV(rows...))
	require.NoError(t, err)
	return result
}

func (h *harness) stored(t *testing.T, id string) *domain.Transaction {
	t.Helper()
	repo, err := h.uow.TransactionRepository()
	require.NoError(t, err)
	record, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	return record
}

func (h *harness) count(t *testing.T) int64 {
	t.Helper()
	repo, err := h.uow.TransactionRepository()
	require.NoError(t, err)
	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestIngest_NewRecords(t *testing.T) {
	h := newHarness(t, nil)

	result := h.ingest(t, txfixtures.Rows("T", 3)...)

	assert.Equal(t, "batch.csv", result.Filename)
	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 3, result.SuccessfulRows)
	assert.Equal(t, 0, result.FailedRows)
	assert.Equal(t, 0, result.DuplicateRows)
	assert.EqualValues(t, 3, h.count(t))

	record, err := h.svc.GetUpload(context.Background(), result.UploadID)
	require.NoError(t, err)
	assert.Equal(t, domain.UploadSuccess, record.Status)
	assert.Equal(t, 3, record.RowsProcessed)
	assert.NotNil(t, record.FinishedAt)
	require.NotNil(t, record.Details)
	assert.Empty(t, record.Details.Errors)

	published := h.bus.Published()
	require.Len(t, published, 1)
	evt := published[0].(events.UploadFinalized)
	assert.Equal(t, result.UploadID, evt.UploadID)
	assert.Equal(t, domain.UploadSuccess, evt.Status)
	assert.Equal(t, 3, evt.SuccessfulRows)
}

func TestIngest_ResubmissionIsIdempotent(t *testing.T) {
	h := newHarness(t, nil)
	rows := txfixtures.Rows("T", 4)

	first := h.ingest(t, rows...)
	second := h.ingest(t, rows...)

	assert.Equal(t, 0, first.DuplicateRows)
	assert.Equal(t, 4, second.DuplicateRows)
	assert.Equal(t, 4, second.SuccessfulRows)
	assert.Equal(t, 0, second.FailedRows)
	assert.EqualValues(t, 4, h.count(t))
	assert.NotEqual(t, first.UploadID, second.UploadID)
}

func TestIngest_ResubmissionReplacesEveryField(t *testing.T) {
	h := newHarness(t, nil)
	h.ingest(t, txfixtures.Row("T-1", nil))

	h.ingest(t, txfixtures.Row("T-1", map[string]string{
		"transaction_amount": "999.99",
		"merchant_id":        "",
		"is_vpn_used":        "yes",
		"timestamp":          "not a time",
	}))

	record := h.stored(t, "T-1")
	assert.Equal(t, 999.99, record.TransactionAmount)
	assert.Empty(t, record.MerchantID)
	assert.True(t, record.IsVPNUsed)
	assert.Nil(t, record.Timestamp)
	assert.Equal(t, "gold", record.CustomerTier)
}

func TestIngest_MixedBatch(t *testing.T) {
	h := newHarness(t, nil)
	h.ingest(t, txfixtures.Row("OLD-1", nil), txfixtures.Row("OLD-2", nil))

	result := h.ingest(t,
		txfixtures.Row("OLD-1", map[string]string{"label": "1"}),
		txfixtures.Row("NEW-1", nil),
		txfixtures.Row("BAD-1", map[string]string{"transaction_day_of_week": "Someday"}),
		txfixtures.Row("OLD-2", nil),
		txfixtures.Row("NEW-2", nil),
	)

	assert.Equal(t, 5, result.TotalRows)
	assert.Equal(t, 4, result.SuccessfulRows)
	assert.Equal(t, 1, result.FailedRows)
	assert.Equal(t, 2, result.DuplicateRows)
	assert.EqualValues(t, 4, h.count(t))
	assert.Equal(t, 1.0, h.stored(t, "OLD-1").Label)

	record, err := h.svc.GetUpload(context.Background(), result.UploadID)
	require.NoError(t, err)
	assert.Equal(t, domain.UploadPartial, record.Status)
	require.Len(t, record.Details.Errors, 1)
	assert.Equal(t, 3, record.Details.Errors[0].Row)
	assert.Equal(t, "BAD-1", record.Details.Errors[0].TransactionID)
}

func TestIngest_SameKeyTwiceInOneBatch(t *testing.T) {
	h := newHarness(t, nil)

	result := h.ingest(t,
		txfixtures.Row("T-1", map[string]string{"transaction_amount": "1"}),
		txfixtures.Row("T-1", map[string]string{"transaction_amount": "2"}),
	)

	assert.Equal(t, 2, result.TotalRows)
	assert.Equal(t, 1, result.SuccessfulRows)
	assert.Equal(t, 0, result.FailedRows)
	assert.Equal(t, 2.0, h.stored(t, "T-1").TransactionAmount)

	record, err := h.svc.GetUpload(context.Background(), result.UploadID)
	require.NoError(t, err)
	assert.Equal(t, 1, record.Details.Superseded)
}

func TestIngest_FailedChunkRollsBackAlone(t *testing.T) {
	h := newHarness(t, &config.Ingest{ChunkSize: 2, MaxReportedErrors: 10, AllowedExtensions: []string{".csv"}})
	require.NoError(t, h.db.Exec(`CREATE TRIGGER reject_poisoned BEFORE INSERT ON transactions
		WHEN NEW.transaction_id = 'POISON'
		BEGIN SELECT RAISE(ABORT, 'poisoned record'); END`).Error)

	// Chunks: [A B] [POISON C] [D]
	result := h.ingest(t,
		txfixtures.Row("A", nil),
		txfixtures.Row("B", nil),
		txfixtures.Row("POISON", nil),
		txfixtures.Row("C", nil),
		txfixtures.Row("D", nil),
	)

	assert.Equal(t, 5, result.TotalRows)
	assert.Equal(t, 3, result.SuccessfulRows)
	assert.Equal(t, 2, result.FailedRows)
	assert.EqualValues(t, 3, h.count(t))

	repo, err := h.uow.TransactionRepository()
	require.NoError(t, err)
	_, err = repo.Get(context.Background(), "C")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "user-D", h.stored(t, "D").UserID)

	record, err := h.svc.GetUpload(context.Background(), result.UploadID)
	require.NoError(t, err)
	assert.Equal(t, domain.UploadPartial, record.Status)
	assert.Equal(t, 3, record.RowsProcessed)
	require.Len(t, record.Details.Errors, 2)
	for i, id := range []string{"POISON", "C"} {
		fe := record.Details.Errors[i]
		assert.True(t, fe.IsChunkError())
		assert.Equal(t, id, fe.TransactionID)
		assert.Contains(t, fe.Message, "poisoned record")
	}
}

func TestIngest_SchemaRejectionWritesNothing(t *testing.T) {
	h := newHarness(t, nil)
	columns := ingest.ExpectedColumns()[2:]

	_, err := h.svc.IngestFile(context.Background(), "batch.csv",
		txfixtures.CSVWithColumns(columns, txfixtures.Row("T-1", nil)))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingColumns)
	var schemaErr *ingest.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, ingest.ExpectedColumns()[:2], schemaErr.Missing)

	page, err := h.svc.History(context.Background(), 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 0, page.Total)
	assert.EqualValues(t, 0, h.count(t))
	assert.Empty(t, h.bus.Published())
}

func TestIngest_BoundedErrorReporting(t *testing.T) {
	h := newHarness(t, nil)
	rows := txfixtures.Rows("BAD", 15)
	for _, row := range rows {
		row["account_age_days"] = "many"
	}
	rows = append(rows, txfixtures.Row("GOOD-1", nil))

	result := h.ingest(t, rows...)

	assert.Equal(t, 16, result.TotalRows)
	assert.Equal(t, 1, result.SuccessfulRows)
	assert.Equal(t, 15, result.FailedRows)

	record, err := h.svc.GetUpload(context.Background(), result.UploadID)
	require.NoError(t, err)
	assert.Equal(t, domain.UploadPartial, record.Status)
	assert.Len(t, record.Details.Errors, 10)
	assert.Equal(t, 15, record.Details.FailedRows)
	assert.Equal(t, 16, record.Details.TotalRows)
}

func TestIngest_ExtremeValues(t *testing.T) {
	h := newHarness(t, nil)

	h.ingest(t,
		txfixtures.Row("TINY", map[string]string{"transaction_amount": "0.000000001"}),
		txfixtures.Row("HUGE", map[string]string{
			"transaction_amount": "1e15",
			"account_age_days":   "9223372036854775807",
		}),
	)

	assert.Equal(t, 0.000000001, h.stored(t, "TINY").TransactionAmount)
	huge := h.stored(t, "HUGE")
	assert.Equal(t, 1e15, huge.TransactionAmount)
	assert.EqualValues(t, int64(9223372036854775807), huge.AccountAgeDays)
}

func TestIngest_HeaderOnlyPayload(t *testing.T) {
	h := newHarness(t, nil)

	result := h.ingest(t)

	assert.Equal(t, 0, result.TotalRows)
	assert.Equal(t, 0, result.SuccessfulRows)
	record, err := h.svc.GetUpload(context.Background(), result.UploadID)
	require.NoError(t, err)
	assert.Equal(t, domain.UploadSuccess, record.Status)
}

func TestIngestFile_BoundaryRejections(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.svc.IngestFile(ctx, "batch.csv", nil)
	assert.ErrorIs(t, err, domain.ErrEmptyPayload)

	_, err = h.svc.IngestFile(ctx, "batch.xlsx", txfixtures.CSV(txfixtures.Row("T-1", nil)))
	assert.ErrorIs(t, err, domain.ErrInvalidFileType)

	_, err = h.svc.IngestFile(ctx, "batch.csv", []byte("transaction_id,transaction_id\n1,2\n"))
	assert.ErrorIs(t, err, domain.ErrMalformedPayload)

	page, err := h.svc.History(ctx, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 0, page.Total)
}

func TestIngest_SmallChunksAcrossBatches(t *testing.T) {
	h := newHarness(t, &config.Ingest{ChunkSize: 3, MaxReportedErrors: 10, AllowedExtensions: []string{".csv"}})
	h.ingest(t, txfixtures.Rows("T", 5)...)

	result := h.ingest(t, txfixtures.Rows("T", 10)...)

	assert.Equal(t, 10, result.SuccessfulRows)
	assert.Equal(t, 5, result.DuplicateRows)
	assert.EqualValues(t, 10, h.count(t))
}

func TestHistory_MostRecentFirst(t *testing.T) {
	h := newHarness(t, nil)
	var ids []uuid.UUID
	for i := range 3 {
		ids = append(ids, h.ingest(t, txfixtures.Row(fmt.Sprintf("T-%d", i), nil)).UploadID)
		time.Sleep(2 * time.Millisecond)
	}

	page, err := h.svc.History(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, ids[2], page.Items[0].UploadID)
	assert.Equal(t, ids[1], page.Items[1].UploadID)

	page, err = h.svc.History(context.Background(), 2, 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, ids[0], page.Items[0].UploadID)

	_, err = h.svc.History(context.Background(), 0, 2)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGetUpload_NotFound(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.svc.GetUpload(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetUpload_CachesFinalizedRecords(t *testing.T) {
	h := newHarness(t, nil)
	result := h.ingest(t, txfixtures.Row("T-1", nil))
	assert.Equal(t, 0, h.cache.Len())

	_, err := h.svc.GetUpload(context.Background(), result.UploadID)
	require.NoError(t, err)
	assert.Equal(t, 1, h.cache.Len())

	cached, err := h.cache.Get(context.Background(), result.UploadID)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, domain.UploadSuccess, cached.Status)
}

func TestGetUpload_ServesFromCache(t *testing.T) {
	uow := mocks.NewMockUnitOfWork(t)
	memCache := infracache.NewMemoryCache()
	svc := upload.NewService(config.Deps{Uow: uow, HistoryCache: memCache})
	record := &domain.UploadHistory{UploadID: uuid.New(), Status: domain.UploadPartial}
	require.NoError(t, memCache.Set(context.Background(), record, time.Minute))

	got, err := svc.GetUpload(context.Background(), record.UploadID)

	require.NoError(t, err)
	assert.Equal(t, domain.UploadPartial, got.Status)
	uow.AssertNotCalled(t, "UploadRepository")
}

func TestGetUpload_DoesNotCacheProcessingRecords(t *testing.T) {
	uow := mocks.NewMockUnitOfWork(t)
	uploads := mocks.NewMockUploadRepository(t)
	memCache := infracache.NewMemoryCache()
	svc := upload.NewService(config.Deps{Uow: uow, HistoryCache: memCache})
	record := &domain.UploadHistory{UploadID: uuid.New(), Status: domain.UploadProcessing}

	uow.On("UploadRepository").Return(uploads, nil)
	uploads.On("Get", mock.Anything, record.UploadID).Return(record, nil)

	got, err := svc.GetUpload(context.Background(), record.UploadID)

	require.NoError(t, err)
	assert.Equal(t, domain.UploadProcessing, got.Status)
	assert.Equal(t, 0, memCache.Len())
}

func TestGetUpload_SharedLookupIgnoresCallerCancellation(t *testing.T) {
	uow := mocks.NewMockUnitOfWork(t)
	uploads := mocks.NewMockUploadRepository(t)
	svc := upload.NewService(config.Deps{Uow: uow})
	record := &domain.UploadHistory{UploadID: uuid.New(), Status: domain.UploadSuccess}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	uow.On("UploadRepository").Return(uploads, nil)
	uploads.On("Get", mock.MatchedBy(func(c context.Context) bool {
		return c.Err() == nil
	}), record.UploadID).Return(record, nil).Once()

	got, err := svc.GetUpload(ctx, record.UploadID)

	require.NoError(t, err)
	assert.Equal(t, domain.UploadSuccess, got.Status)
}

func TestIngest_AbortMarksHistoryFailed(t *testing.T) {
	uow := mocks.NewMockUnitOfWork(t)
	uploads := mocks.NewMockUploadRepository(t)
	bus := infraeventbus.NewWithMemory(slog.Default())
	svc := upload.NewService(config.Deps{Uow: uow, EventBus: bus})
	boom := errors.New("connection reset")

	uow.On("UploadRepository").Return(uploads, nil)
	uploads.On("Create", mock.Anything, mock.MatchedBy(func(c dto.UploadCreate) bool {
		return c.Filename == "batch.csv" && c.UploadID != uuid.Nil
	})).Return(nil).Once()
	uow.On("Do", mock.Anything, mock.Anything).Return(boom).Once()
	uploads.On("Finalize", mock.Anything, mock.Anything, mock.MatchedBy(func(f dto.UploadFinalize) bool {
		return f.Status == domain.UploadFailed && f.Details.Reason == boom.Error()
	})).Return(nil).Once()

	payload, err := ingest.Decode("batch.csv", txfixtures.CSV(txfixtures.Rows("T", 2)...), []string{".csv"})
	require.NoError(t, err)

	result, err := svc.Ingest(context.Background(), payload, "batch.csv")

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, boom)

	published := bus.Published()
	require.Len(t, published, 1)
	evt := published[0].(events.UploadFinalized)
	assert.Equal(t, domain.UploadFailed, evt.Status)
	assert.Equal(t, 2, evt.TotalRows)
}

func TestIngest_CancelledContextStillRecordsFailure(t *testing.T) {
	uow := mocks.NewMockUnitOfWork(t)
	uploads := mocks.NewMockUploadRepository(t)
	svc := upload.NewService(config.Deps{Uow: uow})
	ctx, cancel := context.WithCancel(context.Background())

	uow.On("UploadRepository").Return(uploads, nil)
	uploads.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	uow.On("Do", mock.Anything, mock.Anything).Run(func(mock.Arguments) { cancel() }).Return(context.Canceled).Once()
	uploads.On("Finalize", mock.MatchedBy(func(c context.Context) bool {
		return c.Err() == nil
	}), mock.Anything, mock.Anything).Return(nil).Once()

	payload := &ingest.RawPayload{Columns: ingest.ExpectedColumns()}
	_, err := svc.Ingest(ctx, payload, "batch.csv")

	assert.ErrorIs(t, err, context.Canceled)
}

type failingBus struct{}

func (failingBus) Register(events.EventType, eventbus.HandlerFunc) {}

func (failingBus) Emit(context.Context, events.Event) error {
	return errors.New("broker unavailable")
}

func TestIngest_PublishFailureDoesNotFailUpload(t *testing.T) {
	h := newHarness(t, nil)
	svc := upload.NewService(config.Deps{Uow: h.uow, EventBus: failingBus{}})

	result, err := svc.IngestFile(context.Background(), "batch.csv", txfixtures.CSV(txfixtures.Row("T-1", nil)))

	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessfulRows)
}
