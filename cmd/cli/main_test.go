package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	txfixtures "github.com/entuziaz/csvup-server/internal/fixtures/transactions"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	color.NoColor = true
	os.Exit(m.Run())
}

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", filepath.Join(dir, "uploads.db"))
	t.Setenv("LOG_FORMAT", "text")
	return dir
}

var uploadIDPattern = regexp.MustCompile(`Upload ([0-9a-f-]{36})`)

func TestRun_IngestHistoryShow(t *testing.T) {
	dir := setupEnv(t)
	rows := txfixtures.Rows("cli", 3)
	rows = append(rows, txfixtures.Row("cli-bad", map[string]string{"transaction_amount": "lots"}))
	path := filepath.Join(dir, "batch.csv")
	require.NoError(t, os.WriteFile(path, txfixtures.CSV(rows...), 0o600))

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"ingest", path}, &out))
	assert.Contains(t, out.String(), "file:       batch.csv")
	assert.Contains(t, out.String(), "successful: 3")
	assert.Contains(t, out.String(), "failed:     1")

	match := uploadIDPattern.FindStringSubmatch(out.String())
	require.Len(t, match, 2)
	uploadID := match[1]

	out.Reset()
	require.NoError(t, run(context.Background(), []string{"history"}, &out))
	assert.Contains(t, out.String(), uploadID)
	assert.Contains(t, out.String(), "partial")

	out.Reset()
	require.NoError(t, run(context.Background(), []string{"show", uploadID}, &out))
	assert.Contains(t, out.String(), "status:   partial")
	assert.Contains(t, out.String(), "cli-bad")
}

func TestRun_Usage(t *testing.T) {
	setupEnv(t)
	cases := [][]string{
		nil,
		{"unknown"},
		{"ingest"},
		{"show"},
		{"show", "not-a-uuid"},
		{"history", "x"},
	}
	for _, args := range cases {
		err := run(context.Background(), args, io.Discard)
		assert.ErrorIs(t, err, errUsage, "args %v", args)
	}
}

func TestRun_IngestMissingFile(t *testing.T) {
	dir := setupEnv(t)
	err := run(context.Background(), []string{"ingest", filepath.Join(dir, "missing.csv")}, io.Discard)
	require.Error(t, err)
	assert.NotErrorIs(t, err, errUsage)
}
