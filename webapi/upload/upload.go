package upload

import (
	"errors"
	"io"
	"log/slog"

	"github.com/entuziaz/csvup-server/pkg/domain"
	uploadsvc "github.com/entuziaz/csvup-server/pkg/service/upload"
	"github.com/entuziaz/csvup-server/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	msgProcessed       = "File processed successfully"
	msgInvalidFileType = "Invalid file type. Please upload a valid CSV file."
	msgNoFile          = "No file uploaded. Send the CSV in the multipart field 'file'."
	msgEmptyFile       = "Uploaded file is empty."
	msgUnexpected      = "An unexpected error occurred while processing the file. Please try again later."
)

// Routes registers HTTP routes for uploads and upload history.
func Routes(app *fiber.App, svc *uploadsvc.Service) {
	group := app.Group("/api/v1/uploads")
	group.Post("/csv/", UploadCSV(svc))
	group.Get("/history", ListHistory(svc))
	group.Get("/history/:upload_id", GetHistory(svc))
}

// UploadCSV returns a Fiber handler ingesting the multipart field "file".
func UploadCSV(svc *uploadsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header, err := c.FormFile("file")
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusBadRequest, msgNoFile, nil)
		}

		f, err := header.Open()
		if err != nil {
			slog.Error("Failed to open uploaded file", "filename", header.Filename, "error", err)
			return common.ErrorResponseJSON(c, fiber.StatusInternalServerError, msgUnexpected, nil)
		}
		defer func() { _ = f.Close() }()
		data, err := io.ReadAll(f)
		if err != nil {
			slog.Error("Failed to read uploaded file", "filename", header.Filename, "error", err)
			return common.ErrorResponseJSON(c, fiber.StatusInternalServerError, msgUnexpected, nil)
		}

		result, err := svc.IngestFile(c.UserContext(), header.Filename, data)
		if err != nil {
			return uploadError(c, header.Filename, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, msgProcessed, result)
	}
}

func uploadError(c *fiber.Ctx, filename string, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidFileType):
		return common.ErrorResponseJSON(c, fiber.StatusBadRequest, msgInvalidFileType, nil)
	case errors.Is(err, domain.ErrEmptyPayload):
		return common.ErrorResponseJSON(c, fiber.StatusBadRequest, msgEmptyFile, nil)
	case errors.Is(err, domain.ErrMalformedPayload), errors.Is(err, domain.ErrMissingColumns):
		return common.ErrorJSON(c, msgUnexpected, err)
	default:
		slog.Error("Unexpected error while processing file", "filename", filename, "error", err)
		return common.ErrorResponseJSON(c, fiber.StatusInternalServerError, msgUnexpected, nil)
	}
}

// ListHistory returns a Fiber handler listing upload history, most recent first.
func ListHistory(svc *uploadsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindQueryAndValidate(c, HistoryQuery{
			Page:     defaultPage,
			PageSize: defaultPageSize,
		})
		if input == nil {
			return err
		}
		page, err := svc.History(c.UserContext(), input.Page, input.PageSize)
		if err != nil {
			return common.ErrorJSON(c, "Failed to list upload history", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Upload history fetched successfully", page)
	}
}

// GetHistory returns a Fiber handler fetching one upload history record.
func GetHistory(svc *uploadsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("upload_id"))
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid upload id", err.Error())
		}
		record, err := svc.GetUpload(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return common.ErrorResponseJSON(c, fiber.StatusNotFound, "Upload not found", nil)
			}
			return common.ErrorJSON(c, "Failed to fetch upload", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Upload fetched successfully", record)
	}
}
