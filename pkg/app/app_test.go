package app_test

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	infracache "github.com/entuziaz/csvup-server/infra/cache"
	infraeventbus "github.com/entuziaz/csvup-server/infra/eventbus"
	infrarepo "github.com/entuziaz/csvup-server/infra/repository"
	txfixtures "github.com/entuziaz/csvup-server/internal/fixtures/transactions"
	"github.com/entuziaz/csvup-server/pkg/app"
	"github.com/entuziaz/csvup-server/pkg/config"
	"github.com/entuziaz/csvup-server/pkg/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestNew_FinalizedUploadsWarmTheHistoryCache(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, infrarepo.AutoMigrate(db))

	memCache := infracache.NewMemoryCache()
	cfg := &config.App{HistoryCache: &config.HistoryCache{TTL: time.Minute}}
	a := app.New(config.Deps{
		Uow:          infrarepo.NewUoW(db),
		HistoryCache: memCache,
		EventBus:     infraeventbus.NewWithMemory(slog.Default()),
		Logger:       slog.Default(),
	}, cfg)
	require.NotNil(t, a.UploadService)

	result, err := a.UploadService.IngestFile(context.Background(), "batch.csv",
		txfixtures.CSV(txfixtures.Rows("T", 2)...))
	require.NoError(t, err)

	cached, err := memCache.Get(context.Background(), result.UploadID)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, domain.UploadSuccess, cached.Status)
	assert.Equal(t, 2, cached.RowsProcessed)
}
