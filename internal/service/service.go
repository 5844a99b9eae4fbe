package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"cmsapi/internal/access"
	"cmsapi/internal/audit"
	"cmsapi/internal/auth"
	"cmsapi/internal/clock"
	"cmsapi/internal/logging"
	"cmsapi/internal/metrics"
	"cmsapi/internal/model"
	"cmsapi/internal/repository"
	"cmsapi/internal/storage"
)

var (
	ErrIDRequired   = errors.New("id is required")
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrEmailExists  = errors.New("email already exists")
	ErrReaderNil    = errors.New("reader is nil")
	// ErrNotDelivered is returned when an explicitly addressed notification is
	// marked read before the delivery queue has sent it.
	ErrNotDelivered = errors.New("notification not delivered yet")
	// ErrStorageUnavailable is returned for attachment operations when no object storage is configured.
	ErrStorageUnavailable = errors.New("object storage is not configured")
)

// Deps are the collaborators shared by every service.
type Deps struct {
	Store   *repository.Store
	Trail   *audit.Trail
	Clock   clock.Clock
	Metrics *metrics.Engine
	// Storage may be nil; attachments are then unavailable.
	Storage storage.Storage
	Tokens  *auth.Tokens
	// Defaults are the settings used until an admin saves their own.
	Defaults model.Settings
}

// Page is a window of a list with the total count.
type Page[T any] struct {
	Items []T `json:"data"`
	Total int `json:"total"`
}

func paginate[T any](items []T, limit, offset int) *Page[T] {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	total := len(items)
	if offset > total {
		offset = total
	}
	end := min(offset+limit, total)
	return &Page[T]{Items: items[offset:end], Total: total}
}

// newestFirst reverses a creation-ordered list in place.
func newestFirst[T any](items []T) []T {
	slices.Reverse(items)
	return items
}

// gate checks the capability and records denials.
func gate(d Deps, s access.Session, c access.Capability) error {
	if err := access.Authorize(s, c); err != nil {
		d.Metrics.AccessDenied(string(c))
		logging.Warn("access", "access_denied", map[string]any{
			"user_id":    s.UserID,
			"role":       s.Role,
			"capability": c,
		})
		return err
	}
	return nil
}

// commit writes puts together with one audit record attributed to the session.
func commit(ctx context.Context, d Deps, s access.Session, description string, puts ...repository.Put) error {
	auditPut, _, err := d.Trail.Stage(s.UserID, description)
	if err != nil {
		return err
	}
	if err := d.Store.KV.Apply(ctx, append(puts, auditPut)...); err != nil {
		return fmt.Errorf("commit %q: %w", description, err)
	}
	return nil
}

// committed advances the in-memory version of e after a successful commit.
func committed(e repository.Entity) {
	e.SetEntityVersion(e.EntityVersion() + 1)
}

func notFound(kind, id string, err error) error {
	if repository.IsNotFound(err) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
	}
	return err
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Services groups the use cases exposed over HTTP and the CLI.
type Services struct {
	Tasks         TaskService
	Documents     DocumentService
	Maintenance   MaintenanceService
	Audits        AuditService
	Users         UserService
	Notifications NotificationService
	Settings      SettingsService
	Dashboard     DashboardService
	Auth          AuthService
	Activity      ActivityService
}

// New builds every service over the same dependencies.
func New(d Deps) *Services {
	return &Services{
		Tasks:         NewTaskService(d),
		Documents:     NewDocumentService(d),
		Maintenance:   NewMaintenanceService(d),
		Audits:        NewAuditService(d),
		Users:         NewUserService(d),
		Notifications: NewNotificationService(d),
		Settings:      NewSettingsService(d),
		Dashboard:     NewDashboardService(d),
		Auth:          NewAuthService(d),
		Activity:      NewActivityService(d),
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
