package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cmsapi/internal/access"
	"cmsapi/internal/audit"
	"cmsapi/internal/auth"
	"cmsapi/internal/clock"
	"cmsapi/internal/config"
	"cmsapi/internal/http/middleware"
	"cmsapi/internal/ids"
	"cmsapi/internal/model"
	"cmsapi/internal/repository"
	"cmsapi/internal/repository/memory"
	"cmsapi/internal/service"
	serviceMocks "cmsapi/internal/service/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var supervisor = access.Session{UserID: "u_super", Name: "Supervisor", Role: model.RoleSupervisor}

// withSession plays the part of middleware.Authenticate for handler tests.
func withSession(s access.Session) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(middleware.SessionLocalKey, s)
		return c.Next()
	}
}

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var body errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

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
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp).Error.Code)
	})

	t.Run("memory store", func(t *testing.T) {
		app := fiber.New()
		app.Get("/health", HealthCheck(nil))

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListDocuments(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/documents", ListDocuments(mockSvc))

	t.Run("success", func(t *testing.T) {
		expectedRes := &service.Page[model.Document]{
			Items: []model.Document{{ID: ids.New(), Title: "Fire certificate"}},
			Total: 1,
		}
		mockSvc.On("List", mock.Anything, 10, 0).Return(expectedRes, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents?limit=10&offset=0", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.Page[model.Document]
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result.Items, 1)
		assert.Equal(t, 1, result.Total)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/documents?limit=abc", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_LIMIT", decodeError(t, resp).Error.Code)
	})

	t.Run("invalid offset", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/documents?offset=x", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_OFFSET", decodeError(t, resp).Error.Code)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, 10, 0).Return(nil, errors.New("service error")).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestCreateDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Post("/documents", withSession(supervisor), CreateDocument(mockSvc))

	expiry := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("created", func(t *testing.T) {
		in := service.DocumentInput{Title: "Lease", Owner: "Ops", DocType: "Contract", ExpiryDate: expiry}
		mockSvc.On("Create", mock.Anything, supervisor, in).
			Return(&model.Document{ID: ids.New(), Title: "Lease", ExpiryDate: expiry}, nil).Once()

		body := `{"title":"Lease","owner":"Ops","doc_type":"Contract","expiry_date":"2026-01-01T00:00:00Z"}`
		req := httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_BODY", decodeError(t, resp).Error.Code)
	})

	t.Run("gate denial is forbidden", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, supervisor, mock.Anything).
			Return(nil, fmt.Errorf("%w: User may not create_document", access.ErrUnauthorized)).Once()

		req := httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader(`{"title":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "FORBIDDEN", decodeError(t, resp).Error.Code)
	})

	t.Run("validation error", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, supervisor, mock.Anything).
			Return(nil, fmt.Errorf("%w: title is required", service.ErrInvalidInput)).Once()

		req := httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "INVALID_INPUT", body.Error.Code)
		assert.Contains(t, body.Error.Message, "title is required")
	})
}

func TestAttachDocumentFile(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Post("/documents/:id/attachment", withSession(supervisor), AttachDocumentFile(mockSvc))

	id := ids.New()

	multipartBody := func(content string) (*bytes.Buffer, string) {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, _ := writer.CreateFormFile("file", "test.txt")
		part.Write([]byte(content))
		writer.Close()
		return body, writer.FormDataContentType()
	}

	t.Run("success", func(t *testing.T) {
		body, ct := multipartBody("hello world")
		expectedDoc := &model.Document{ID: id, Attachment: &model.Attachment{Name: "test.txt"}}
		mockSvc.On("Attach", mock.Anything, supervisor, id, mock.Anything, "test.txt", mock.Anything, int64(11)).Return(expectedDoc, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/documents/"+id+"/attachment", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.Document
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, id, result.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/documents/"+id+"/attachment", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "FILE_REQUIRED", decodeError(t, resp).Error.Code)
	})

	t.Run("storage not configured", func(t *testing.T) {
		body, ct := multipartBody("hello")
		mockSvc.On("Attach", mock.Anything, supervisor, id, mock.Anything, "test.txt", mock.Anything, mock.Anything).Return(nil, service.ErrStorageUnavailable).Once()

		req := httptest.NewRequest(http.MethodPost, "/documents/"+id+"/attachment", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		body, ct := multipartBody("hello")
		mockSvc.On("Attach", mock.Anything, supervisor, id, mock.Anything, "test.txt", mock.Anything, mock.Anything).Return(nil, errors.New("upload failed")).Once()

		req := httptest.NewRequest(http.MethodPost, "/documents/"+id+"/attachment", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestGetDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/documents/:id", GetDocument(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := ids.New()
		expectedDoc := &model.Document{ID: id, Title: "Lease"}
		mockSvc.On("Get", mock.Anything, id).Return(expectedDoc, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.Document
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, id, result.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := ids.New()
		mockSvc.On("Get", mock.Anything, id).Return(nil, fmt.Errorf("%w: document %s", service.ErrNotFound, id)).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/documents/invalid-id", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ID", decodeError(t, resp).Error.Code)
	})

	t.Run("service error", func(t *testing.T) {
		id := ids.New()
		mockSvc.On("Get", mock.Anything, id).Return(nil, errors.New("db error")).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestDocumentDownloadURL(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/documents/:id/download", DocumentDownloadURL(mockSvc))
	id := ids.New()

	t.Run("default expiry", func(t *testing.T) {
		mockSvc.On("DownloadURL", mock.Anything, id, 15*time.Minute).Return("https://minio.local/signed", nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents/"+id+"/download", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]any
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "https://minio.local/signed", body["url"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("custom expiry", func(t *testing.T) {
		mockSvc.On("DownloadURL", mock.Anything, id, time.Minute).Return("u", nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents/"+id+"/download?expiry_sec=60", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid expiry", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents/"+id+"/download?expiry_sec=0", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_EXPIRY", decodeError(t, resp).Error.Code)
	})
}

func TestDownloadDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/documents/:id/attachment", DownloadDocument(mockSvc))
	id := ids.New()

	t.Run("streams the attachment", func(t *testing.T) {
		att := &model.Attachment{Name: "Fire Cert.pdf", Size: 8, ContentType: "application/pdf"}
		mockSvc.On("Download", mock.Anything, id).Return(io.NopCloser(strings.NewReader("%PDF-1.7")), att, nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/documents/"+id+"/attachment", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
		assert.Contains(t, resp.Header.Get("Content-Disposition"), `filename="Fire Cert.pdf"`)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "%PDF-1.7", string(body))
		mockSvc.AssertExpectations(t)
	})

	t.Run("no attachment", func(t *testing.T) {
		mockSvc.On("Download", mock.Anything, id).Return(nil, nil, fmt.Errorf("%w: document %s has no attachment", service.ErrNotFound, id)).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents/"+id+"/attachment", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})

	t.Run("storage not configured", func(t *testing.T) {
		mockSvc.On("Download", mock.Anything, id).Return(nil, nil, service.ErrStorageUnavailable).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents/"+id+"/attachment", nil))

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("malformed id", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents/nope/attachment", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ID", decodeError(t, resp).Error.Code)
	})
}

func TestApproveTask(t *testing.T) {
	mockSvc := new(serviceMocks.MockTaskService)
	app := fiber.New()
	app.Post("/tasks/:id/approval", withSession(supervisor), ApproveTask(mockSvc))
	id := ids.New()

	t.Run("approved", func(t *testing.T) {
		mockSvc.On("Approve", mock.Anything, supervisor, id, model.ApprovalApproved).
			Return(&model.Task{ID: id, Approval: model.ApprovalApproved}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/tasks/"+id+"/approval", strings.NewReader(`{"decision":"Approved"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var task model.Task
		json.NewDecoder(resp.Body).Decode(&task)
		assert.Equal(t, model.ApprovalApproved, task.Approval)
		mockSvc.AssertExpectations(t)
	})

	t.Run("version conflict", func(t *testing.T) {
		mockSvc.On("Approve", mock.Anything, supervisor, id, model.ApprovalRejected).
			Return(nil, errors.Join(repository.ErrPersistence, repository.ErrConflict)).Once()

		req := httptest.NewRequest(http.MethodPost, "/tasks/"+id+"/approval", strings.NewReader(`{"decision":"Rejected"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "CONFLICT", decodeError(t, resp).Error.Code)
	})
}

func TestLogin(t *testing.T) {
	mockSvc := new(serviceMocks.MockAuthService)
	app := fiber.New()
	app.Post("/auth/login", Login(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Login", mock.Anything, "admin@local", "password").
			Return(&service.LoginResult{Token: "tok", User: model.PublicUser{ID: "u1", Role: model.RoleAdmin}}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"admin@local","password":"password"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var res service.LoginResult
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "tok", res.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		mockSvc.On("Login", mock.Anything, "admin@local", "nope").Return(nil, auth.ErrInvalidCredentials).Once()

		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"admin@local","password":"nope"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "INVALID_CREDENTIALS", decodeError(t, resp).Error.Code)
	})
	mockSvc.AssertExpectations(t)
}

func TestMarkNotificationRead(t *testing.T) {
	mockSvc := new(serviceMocks.MockNotificationService)
	app := fiber.New()
	app.Post("/notifications/:id/read", withSession(supervisor), MarkNotificationRead(mockSvc))
	id := ids.New()

	mockSvc.On("MarkRead", mock.Anything, supervisor, id).
		Return(&model.Notification{ID: id, ReadBy: []string{supervisor.UserID}}, nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/notifications/"+id+"/read", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	mockSvc.On("MarkRead", mock.Anything, supervisor, id).
		Return(nil, fmt.Errorf("%w: notification %s", service.ErrNotDelivered, id)).Once()

	resp, _ = app.Test(httptest.NewRequest(http.MethodPost, "/notifications/"+id+"/read", nil))

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "NOT_DELIVERED", decodeError(t, resp).Error.Code)
	mockSvc.AssertExpectations(t)
}

// stack is the full route table over the in-memory store with seeded accounts.
type stack struct {
	app  *fiber.App
	reg  *prometheus.Registry
	svcs *service.Services
}

func newStack(t *testing.T) *stack {
	t.Helper()
	st := repository.NewStore(memory.NewKVMemory())
	tokens, err := auth.NewTokens("test-secret", "cmsapi-test", time.Hour, nil)
	require.NoError(t, err)
	d := service.Deps{
		Store:    st,
		Trail:    audit.NewTrail(st, clock.System),
		Clock:    clock.System,
		Tokens:   tokens,
		Defaults: model.Settings{SiteName: "Compliance CMS", ReminderDays: []int{90, 60, 30, 7}},
	}
	_, err = service.Seed(context.Background(), d, config.DefaultSeed())
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "cmsapi_test_total", Help: "test"}))

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(middleware.RequestID())
	svcs := service.New(d)
	RegisterRoutes(app, nil, svcs, Options{
		Metrics: reg,
		// Refill is slow enough that bcrypt time never tops the bucket up.
		LoginLimiter: middleware.RateLimit(0.001, 3),
	})
	return &stack{app: app, reg: reg, svcs: svcs}
}

func (s *stack) do(t *testing.T, method, path, token, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (s *stack) login(t *testing.T, email string) string {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/auth/login", "", fmt.Sprintf(`{"email":%q,"password":"password"}`, email))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res service.LoginResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	return res.Token
}

func TestRouting(t *testing.T) {
	s := newStack(t)

	t.Run("not found route", func(t *testing.T) {
		resp := s.do(t, http.MethodGet, "/non-existent", "", "")

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		// Health endpoint only allows GET
		resp := s.do(t, http.MethodPost, "/health", "", "")

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, resp).Error.Code)
	})

	t.Run("metrics exposed", func(t *testing.T) {
		resp := s.do(t, http.MethodGet, "/metrics", "", "")

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		b, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(b), "cmsapi_test_total")
	})

	t.Run("token required", func(t *testing.T) {
		resp := s.do(t, http.MethodGet, "/tasks", "", "")

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp).Error.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		resp := s.do(t, http.MethodGet, "/tasks", "not-a-jwt", "")

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestEndToEndRoleGate(t *testing.T) {
	s := newStack(t)
	userToken := s.login(t, "user@local")
	superToken := s.login(t, "super@local")

	t.Run("regular user is forbidden and nothing is audited", func(t *testing.T) {
		before, err := s.svcs.Activity.List(context.Background(), 0)
		require.NoError(t, err)

		resp := s.do(t, http.MethodPost, "/tasks", userToken, `{"title":"Inspect boiler"}`)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "FORBIDDEN", decodeError(t, resp).Error.Code)

		after, err := s.svcs.Activity.List(context.Background(), 0)
		require.NoError(t, err)
		assert.Len(t, after, len(before))
	})

	t.Run("supervisor creates and the activity log shows it", func(t *testing.T) {
		resp := s.do(t, http.MethodPost, "/tasks", superToken, `{"title":"Inspect boiler","due_date":"2030-01-01T00:00:00Z"}`)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		resp = s.do(t, http.MethodGet, "/activity?limit=1", superToken, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body struct {
			Data []model.AuditRecord `json:"data"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body.Data, 1)
		assert.Equal(t, "Created task: Inspect boiler", body.Data[0].Description)
	})

	t.Run("me returns the session", func(t *testing.T) {
		resp := s.do(t, http.MethodGet, "/auth/me", superToken, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var sess access.Session
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&sess))
		assert.Equal(t, model.RoleSupervisor, sess.Role)
	})
}

func TestLoginRateLimited(t *testing.T) {
	s := newStack(t)
	codes := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		resp := s.do(t, http.MethodPost, "/auth/login", "", `{"email":"admin@local","password":"wrong"}`)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{401, 401, 401, 429, 429}, codes)
}
