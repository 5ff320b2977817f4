package handler

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/sponsorcomplians/ai-qualification-compliance/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin; the analysis and persistence logic lives in the
// services.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc service.AssessmentService, docSvc service.DocumentService) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Post("/cases", CreateCase(svc))
	app.Get("/cases", ListCases(svc))
	app.Get("/cases/:id", GetCase(svc))
	app.Get("/cases/:id/report", GetCaseReport(svc))
	app.Post("/cases/:id/reassess", ReassessCase(svc))
	app.Get("/cases/:id/documents", ListCaseDocuments(docSvc))
	app.Get("/stats", GetStats(svc))

	app.Get("/documents/:id/download", DownloadDocument(docSvc))
	app.Delete("/documents/:id", DeleteDocument(docSvc))
}

// HealthCheck checks DB connectivity only.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a simple liveness probe.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// CreateCase accepts a multipart upload (field name: documents, repeatable)
// and runs the full assessment over the batch.
func CreateCase(svc service.AssessmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "MULTIPART_REQUIRED", "multipart form is required")
		}
		headers := form.File["documents"]
		if len(headers) == 0 {
			return writeError(c, fiber.StatusBadRequest, "DOCUMENTS_REQUIRED", "at least one document is required")
		}

		files := make([]service.UploadedFile, 0, len(headers))
		for _, fh := range headers {
			f, err := fh.Open()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_READ_ERROR", "cannot read uploaded file")
			}
			files = append(files, service.UploadedFile{
				Data:        data,
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
			})
		}

		res, err := svc.AssessCase(c.UserContext(), files)
		if err != nil {
			if errors.Is(err, service.ErrNoDocuments) {
				return writeError(c, fiber.StatusBadRequest, "DOCUMENTS_REQUIRED", "at least one document is required")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// ListCases lists cases with limit & offset.
func ListCases(svc service.AssessmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.ListCases(c.UserContext(), limit, offset)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// GetCase returns a case by ID, including its latest verdict when present.
func GetCase(svc service.AssessmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		res, err := svc.GetCase(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrCaseNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "case not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// GetCaseReport returns the report payload for the case's latest verdict.
func GetCaseReport(svc service.AssessmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		rep, err := svc.Report(c.UserContext(), id)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrCaseNotFound):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "case not found")
			case errors.Is(err, service.ErrVerdictNotFound):
				return writeError(c, fiber.StatusNotFound, "NO_VERDICT", "no verdict recorded for case")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(rep)
	}
}

// ReassessCase re-runs the decision procedure over the case's stored
// qualification records and returns the appended verdict.
func ReassessCase(svc service.AssessmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		rec, err := svc.Reassess(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrCaseNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "case not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

// ListCaseDocuments returns a case's documents in upload order.
func ListCaseDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		docs, err := docSvc.ListByCase(c.UserContext(), id)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{"data": docs, "total": len(docs)})
	}
}

// GetStats aggregates latest verdicts for the dashboard.
func GetStats(svc service.AssessmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := svc.Stats(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(stats)
	}
}

// DownloadDocument returns a time-limited presigned URL for the document.
func DownloadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		url, err := docSvc.DownloadURL(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrDocumentNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{"url": url})
	}
}

// DeleteDocument removes a document from storage and the repository.
func DeleteDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := docSvc.Delete(c.UserContext(), id); err != nil {
			if errors.Is(err, service.ErrDocumentNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
