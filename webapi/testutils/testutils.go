// Package testutils provides an end-to-end test suite running the HTTP API
// against a real database.
package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"time"

	infracache "github.com/entuziaz/csvup-server/infra/cache"
	infraeventbus "github.com/entuziaz/csvup-server/infra/eventbus"
	infrarepo "github.com/entuziaz/csvup-server/infra/repository"
	"github.com/entuziaz/csvup-server/pkg/app"
	"github.com/entuziaz/csvup-server/pkg/config"
	"github.com/entuziaz/csvup-server/webapi"
	"github.com/entuziaz/csvup-server/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PostgresEnv enables the Postgres backed suite when set to a non-empty value.
const PostgresEnv = "CSVUP_E2E_POSTGRES"

// E2ETestSuite runs the API against in-memory SQLite, or against a Postgres
// container when PostgresEnv is set.
type E2ETestSuite struct {
	suite.Suite
	pgContainer *tcpostgres.PostgresContainer
	db          *gorm.DB
	App         *fiber.App
	Bus         *infraeventbus.MemoryEventBus
	Cfg         *config.App
}

// SetupSuite opens the database and builds the app.
func (s *E2ETestSuite) SetupSuite() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	if os.Getenv(PostgresEnv) != "" {
		s.db = s.openPostgres()
	} else {
		s.db = s.openSQLite()
	}
	s.Require().NoError(infrarepo.AutoMigrate(s.db))
}

// SetupTest clears stored data and rebuilds the app so every test starts
// from an empty history and a fresh bus.
func (s *E2ETestSuite) SetupTest() {
	s.Require().NoError(s.db.Exec("DELETE FROM transactions").Error)
	s.Require().NoError(s.db.Exec("DELETE FROM upload_histories").Error)

	s.Cfg = &config.App{
		Env:    "test",
		Server: &config.Server{BodyLimit: 10 * 1024 * 1024},
		Ingest: &config.Ingest{
			ChunkSize:         1000,
			MaxReportedErrors: 10,
			AllowedExtensions: []string{".csv"},
		},
		HistoryCache: &config.HistoryCache{TTL: time.Minute},
		RateLimit:    &config.RateLimit{MaxRequests: 1000, Window: time.Minute},
	}
	s.Bus = infraeventbus.NewWithMemory(slog.Default())
	a := app.New(config.Deps{
		Uow:          infrarepo.NewUoW(s.db),
		HistoryCache: infracache.NewMemoryCache(),
		EventBus:     s.Bus,
		Logger:       slog.Default(),
	}, s.Cfg)
	s.App = webapi.SetupApp(a)
}

// TearDownSuite cleans up the test suite resources
func (s *E2ETestSuite) TearDownSuite() {
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if s.pgContainer != nil {
		_ = s.pgContainer.Terminate(context.Background())
	}
}

func (s *E2ETestSuite) openSQLite() *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	s.Require().NoError(err)
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	return db
}

func (s *E2ETestSuite) openPostgres() *gorm.DB {
	if !dockerIsReachable() {
		s.T().Skip("docker is not reachable")
	}
	ctx := context.Background()
	pg, err := tcpostgres.Run(
		ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.pgContainer = pg

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	s.Require().NoError(err)
	return db
}

// MakeRequest is a helper for making HTTP requests in tests
func (s *E2ETestSuite) MakeRequest(method, path string, body io.Reader, contentType string) *http.Response {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := s.App.Test(req, -1)
	s.Require().NoError(err)
	return resp
}

// UploadFile posts data as the multipart field "file" named filename.
func (s *E2ETestSuite) UploadFile(filename string, data []byte) *http.Response {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	s.Require().NoError(err)
	_, err = part.Write(data)
	s.Require().NoError(err)
	s.Require().NoError(w.Close())
	return s.MakeRequest(http.MethodPost, "/api/v1/uploads/csv/", &buf, w.FormDataContentType())
}

// Decode reads the response envelope, decoding data into out when non-nil.
func (s *E2ETestSuite) Decode(resp *http.Response, out any) common.Response {
	defer func() { _ = resp.Body.Close() }()
	var envelope struct {
		common.Response
		Data json.RawMessage `json:"data"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&envelope))
	if out != nil {
		s.Require().NotEmpty(envelope.Data, "response has no data")
		s.Require().NoError(json.Unmarshal(envelope.Data, out))
	}
	return envelope.Response
}

func dockerIsReachable() bool {
	host := os.Getenv("DOCKER_HOST")
	if strings.HasPrefix(host, "unix://") {
		return canDialUnix(strings.TrimPrefix(host, "unix://"))
	}
	if host != "" {
		return true
	}
	if canDialUnix("/var/run/docker.sock") {
		return true
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return false
	}
	return canDialUnix(home + "/.docker/run/docker.sock")
}

func canDialUnix(path string) bool {
	conn, err := net.DialTimeout("unix", path, 300*time.Millisecond)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
