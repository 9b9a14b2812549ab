package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/entuziaz/csvup-server/infra/initializer"
	"github.com/entuziaz/csvup-server/pkg/app"
	"github.com/entuziaz/csvup-server/pkg/config"
	"github.com/entuziaz/csvup-server/pkg/domain"
	"github.com/fatih/color"
	"github.com/google/uuid"
)

const usage = `Usage: cli <command> [arguments]
Commands:
  ingest <file.csv>          ingest a CSV file of transactions
  history [page] [page_size] list upload history, most recent first
  show <upload_id>           show one upload history record`

var errUsage = errors.New("invalid usage")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, usage)
		} else {
			color.New(color.FgRed).Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) < 1 {
		return errUsage
	}

	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	deps, closeDeps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeDeps() }()
	svc := app.New(*deps, cfg).UploadService

	switch args[0] {
	case "ingest":
		if len(args) != 2 {
			return errUsage
		}
		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[1], err)
		}
		result, err := svc.IngestFile(ctx, filepath.Base(args[1]), data)
		if err != nil {
			return err
		}
		printHeader(out, "Upload %s", result.UploadID)
		fmt.Fprintf(out, "  file:       %s\n", result.Filename)
		fmt.Fprintf(out, "  total:      %d\n", result.TotalRows)
		fmt.Fprintf(out, "  successful: %s\n", color.GreenString("%d", result.SuccessfulRows))
		fmt.Fprintf(out, "  failed:     %s\n", failedString(result.FailedRows))
		fmt.Fprintf(out, "  duplicates: %d\n", result.DuplicateRows)
		return nil

	case "history":
		page, pageSize := 1, 20
		if len(args) > 1 {
			if page, err = strconv.Atoi(args[1]); err != nil {
				return fmt.Errorf("invalid page %q: %w", args[1], errUsage)
			}
		}
		if len(args) > 2 {
			if pageSize, err = strconv.Atoi(args[2]); err != nil {
				return fmt.Errorf("invalid page size %q: %w", args[2], errUsage)
			}
		}
		result, err := svc.History(ctx, page, pageSize)
		if err != nil {
			return err
		}
		printHeader(out, "Uploads page %d of %d total", result.Page, result.Total)
		for _, h := range result.Items {
			fmt.Fprintf(out, "  %s  %s  %-10s rows=%d  %s\n",
				h.UploadID, h.UploadedAt.Format(time.RFC3339), statusString(h.Status), h.RowsProcessed, h.Filename)
		}
		return nil

	case "show":
		if len(args) != 2 {
			return errUsage
		}
		id, err := uuid.Parse(args[1])
		if err != nil {
			return fmt.Errorf("invalid upload id %q: %w", args[1], errUsage)
		}
		h, err := svc.GetUpload(ctx, id)
		if err != nil {
			return err
		}
		printHeader(out, "Upload %s", h.UploadID)
		fmt.Fprintf(out, "  file:     %s\n", h.Filename)
		fmt.Fprintf(out, "  uploaded: %s\n", h.UploadedAt.Format(time.RFC3339))
		fmt.Fprintf(out, "  status:   %s\n", statusString(h.Status))
		fmt.Fprintf(out, "  rows:     %d\n", h.RowsProcessed)
		if h.Details != nil {
			fmt.Fprintf(out, "  failed:   %s\n", failedString(h.Details.FailedRows))
			for _, fe := range h.Details.Errors {
				fmt.Fprintf(out, "    - %s\n", color.YellowString(fe.Error()))
			}
		}
		return nil
	}
	return errUsage
}

func printHeader(out io.Writer, format string, a ...any) {
	color.New(color.Bold).Fprintf(out, format+"\n", a...)
}

func failedString(n int) string {
	if n == 0 {
		return strconv.Itoa(n)
	}
	return color.RedString("%d", n)
}

func statusString(s domain.UploadStatus) string {
	switch s {
	case domain.UploadSuccess:
		return color.GreenString(string(s))
	case domain.UploadPartial:
		return color.YellowString(string(s))
	case domain.UploadFailed:
		return color.RedString(string(s))
	}
	return string(s)
}
