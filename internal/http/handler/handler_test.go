package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sponsorcomplians/ai-qualification-compliance/internal/model"
	"github.com/sponsorcomplians/ai-qualification-compliance/internal/repository"
	"github.com/sponsorcomplians/ai-qualification-compliance/internal/service"
	serviceMocks "github.com/sponsorcomplians/ai-qualification-compliance/internal/service/mocks"
)

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func multipartBody(t *testing.T, field string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	for name, content := range files {
		part, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestCreateCase(t *testing.T) {
	mockSvc := new(serviceMocks.MockAssessmentService)
	app := fiber.New()
	app.Post("/cases", CreateCase(mockSvc))

	t.Run("success", func(t *testing.T) {
		expected := &service.CaseResult{
			Case: &model.Case{ID: uuid.New().String()},
			Verdict: &model.VerdictRecord{
				Verdict: model.Verdict{Outcome: model.OutcomeCompliant},
			},
		}
		mockSvc.On("AssessCase", mock.Anything, mock.MatchedBy(func(files []service.UploadedFile) bool {
			return len(files) == 1 && files[0].Filename == "certificate.txt"
		})).Return(expected, nil).Once()

		body, ct := multipartBody(t, "documents", map[string]string{
			"certificate.txt": "Care Certificate awarded 12/03/2019",
		})
		req := httptest.NewRequest(http.MethodPost, "/cases", body)
		req.Header.Set("Content-Type", ct)

		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var got service.CaseResult
		json.NewDecoder(resp.Body).Decode(&got)
		assert.Equal(t, expected.Case.ID, got.Case.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("missing files", func(t *testing.T) {
		body, ct := multipartBody(t, "unrelated", map[string]string{"a.txt": "x"})
		req := httptest.NewRequest(http.MethodPost, "/cases", body)
		req.Header.Set("Content-Type", ct)

		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var payload errorPayload
		json.NewDecoder(resp.Body).Decode(&payload)
		assert.Equal(t, "DOCUMENTS_REQUIRED", payload.Error.Code)
	})

	t.Run("not multipart", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/cases", bytes.NewBufferString("{}"))
		req.Header.Set("Content-Type", "application/json")

		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestListCases(t *testing.T) {
	mockSvc := new(serviceMocks.MockAssessmentService)
	app := fiber.New()
	app.Get("/cases", ListCases(mockSvc))

	t.Run("success", func(t *testing.T) {
		expected := &service.CaseListResult{
			Items: []model.Case{{ID: uuid.New().String()}},
			Total: 1,
		}
		mockSvc.On("ListCases", mock.Anything, 10, 0).Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/cases", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var got service.CaseListResult
		json.NewDecoder(resp.Body).Decode(&got)
		assert.Equal(t, 1, got.Total)
	})

	t.Run("invalid limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/cases?limit=abc", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestGetCase(t *testing.T) {
	mockSvc := new(serviceMocks.MockAssessmentService)
	app := fiber.New()
	app.Get("/cases/:id", GetCase(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("GetCase", mock.Anything, id).
			Return(&model.Case{ID: id}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/cases/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/cases/not-a-uuid", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("GetCase", mock.Anything, id).
			Return(nil, service.ErrCaseNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/cases/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestGetCaseReport(t *testing.T) {
	mockSvc := new(serviceMocks.MockAssessmentService)
	app := fiber.New()
	app.Get("/cases/:id/report", GetCaseReport(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Report", mock.Anything, id).Return(&service.CaseReport{
			CaseID:     id,
			WorkerName: "Jane Smith",
			Outcome:    model.OutcomeCompliant,
			Narrative:  "narrative",
		}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/cases/"+id+"/report", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var got service.CaseReport
		json.NewDecoder(resp.Body).Decode(&got)
		assert.Equal(t, "Jane Smith", got.WorkerName)
	})

	t.Run("no verdict yet", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Report", mock.Anything, id).
			Return(nil, service.ErrVerdictNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/cases/"+id+"/report", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		var payload errorPayload
		json.NewDecoder(resp.Body).Decode(&payload)
		assert.Equal(t, "NO_VERDICT", payload.Error.Code)
	})
}

func TestReassessCase(t *testing.T) {
	mockSvc := new(serviceMocks.MockAssessmentService)
	app := fiber.New()
	app.Post("/cases/:id/reassess", ReassessCase(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Reassess", mock.Anything, id).Return(&model.VerdictRecord{
			ID:      uuid.New().String(),
			CaseID:  id,
			Verdict: model.Verdict{Outcome: model.OutcomeCompliant},
		}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/cases/"+id+"/reassess", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Reassess", mock.Anything, id).
			Return(nil, service.ErrCaseNotFound).Once()

		req := httptest.NewRequest(http.MethodPost, "/cases/"+id+"/reassess", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestGetStats(t *testing.T) {
	mockSvc := new(serviceMocks.MockAssessmentService)
	app := fiber.New()
	app.Get("/stats", GetStats(mockSvc))

	mockSvc.On("Stats", mock.Anything).Return(&repository.CaseStats{
		TotalCases: 2,
		ByOutcome:  map[model.Outcome]int{model.OutcomeCompliant: 2},
		ByRisk:     map[model.RiskLevel]int{model.RiskLow: 2},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got repository.CaseStats
	json.NewDecoder(resp.Body).Decode(&got)
	assert.Equal(t, 2, got.TotalCases)
}

func TestListCaseDocuments(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/cases/:id/documents", ListCaseDocuments(mockSvc))

	id := uuid.New().String()
	mockSvc.On("ListByCase", mock.Anything, id).Return([]model.Document{
		{ID: uuid.New().String(), CaseID: id, Role: model.RoleCoS},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/cases/"+id+"/documents", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDownloadDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/documents/:id/download", DownloadDocument(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("DownloadURL", mock.Anything, id).
			Return("https://minio.local/presigned", nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/"+id+"/download", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "https://minio.local/presigned", body["url"])
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("DownloadURL", mock.Anything, id).
			Return("", service.ErrDocumentNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/"+id+"/download", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestDeleteDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Delete("/documents/:id", DeleteDocument(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, id).Return(nil).Once()

		req := httptest.NewRequest(http.MethodDelete, "/documents/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, id).
			Return(service.ErrDocumentNotFound).Once()

		req := httptest.NewRequest(http.MethodDelete, "/documents/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
