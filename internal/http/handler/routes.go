package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cmsapi/internal/http/middleware"
	"cmsapi/internal/service"
)

// Options tune RegisterRoutes. The zero value registers no /metrics endpoint
// and no login throttling.
type Options struct {
	// Metrics, when set, is exposed on GET /metrics.
	Metrics prometheus.Gatherer
	// LoginLimiter runs in front of POST /auth/login.
	LoginLimiter fiber.Handler
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Everything
// except health, metrics and login requires a bearer token.
func RegisterRoutes(app *fiber.App, db *sql.DB, svcs *service.Services, opts Options) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())
	if opts.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Metrics, promhttp.HandlerOpts{})))
	}

	login := []fiber.Handler{}
	if opts.LoginLimiter != nil {
		login = append(login, opts.LoginLimiter)
	}
	app.Post("/auth/login", append(login, Login(svcs.Auth))...)

	authn := middleware.Authenticate(svcs.Auth)
	required := middleware.RequireSession()
	secured := func(method, path string, h fiber.Handler) {
		app.Add(method, path, authn, required, h)
	}

	secured(fiber.MethodGet, "/auth/me", Me())
	secured(fiber.MethodPost, "/auth/logout", Logout(svcs.Auth))
	secured(fiber.MethodPost, "/auth/password", ChangePassword(svcs.Auth))

	secured(fiber.MethodGet, "/dashboard", Dashboard(svcs.Dashboard))
	secured(fiber.MethodGet, "/activity", ListActivity(svcs.Activity))

	secured(fiber.MethodGet, "/tasks", ListTasks(svcs.Tasks))
	secured(fiber.MethodPost, "/tasks", CreateTask(svcs.Tasks))
	secured(fiber.MethodGet, "/tasks/:id", GetTask(svcs.Tasks))
	secured(fiber.MethodPatch, "/tasks/:id", UpdateTask(svcs.Tasks))
	secured(fiber.MethodPost, "/tasks/:id/approval", ApproveTask(svcs.Tasks))

	secured(fiber.MethodGet, "/documents", ListDocuments(svcs.Documents))
	secured(fiber.MethodPost, "/documents", CreateDocument(svcs.Documents))
	secured(fiber.MethodGet, "/documents/:id", GetDocument(svcs.Documents))
	secured(fiber.MethodPatch, "/documents/:id", UpdateDocument(svcs.Documents))
	secured(fiber.MethodPost, "/documents/:id/attachment", AttachDocumentFile(svcs.Documents))
	secured(fiber.MethodGet, "/documents/:id/download", DocumentDownloadURL(svcs.Documents))
	secured(fiber.MethodGet, "/documents/:id/attachment", DownloadDocument(svcs.Documents))

	secured(fiber.MethodGet, "/maintenance", ListMaintenance(svcs.Maintenance))
	secured(fiber.MethodPost, "/maintenance", CreateMaintenance(svcs.Maintenance))
	secured(fiber.MethodGet, "/audits", ListAudits(svcs.Audits))
	secured(fiber.MethodPost, "/audits", CreateAudit(svcs.Audits))

	secured(fiber.MethodGet, "/users", ListUsers(svcs.Users))
	secured(fiber.MethodPost, "/users", CreateUser(svcs.Users))
	secured(fiber.MethodGet, "/users/:id", GetUser(svcs.Users))
	secured(fiber.MethodPatch, "/users/:id", UpdateUser(svcs.Users))

	secured(fiber.MethodGet, "/notifications", Inbox(svcs.Notifications))
	secured(fiber.MethodPost, "/notifications", SendNotification(svcs.Notifications))
	secured(fiber.MethodPost, "/notifications/:id/read", MarkNotificationRead(svcs.Notifications))

	secured(fiber.MethodGet, "/settings", GetSettings(svcs.Settings))
	secured(fiber.MethodPatch, "/settings", UpdateSettings(svcs.Settings))
}
