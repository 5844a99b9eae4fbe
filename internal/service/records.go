package service

import (
	"context"
	"strings"
	"time"

	"cmsapi/internal/access"
	"cmsapi/internal/ids"
	"cmsapi/internal/model"
)

// MaintenanceInput holds the fields of a maintenance record.
type MaintenanceInput struct {
	Title           string     `json:"title"`
	Asset           string     `json:"asset"`
	Category        string     `json:"category"`
	Vendor          string     `json:"vendor"`
	Cost            float64    `json:"cost"`
	Date            time.Time  `json:"date"`
	NextServiceDate *time.Time `json:"next_service_date,omitempty"`
	Notes           string     `json:"notes"`
}

// MaintenanceService defines the use cases for maintenance records.
type MaintenanceService interface {
	Create(ctx context.Context, s access.Session, in MaintenanceInput) (*model.Maintenance, error)
	List(ctx context.Context, limit, offset int) (*Page[model.Maintenance], error)
}

type maintenanceService struct {
	d Deps
}

// NewMaintenanceService constructs a new MaintenanceService.
func NewMaintenanceService(d Deps) MaintenanceService {
	return &maintenanceService{d: d}
}

func (s *maintenanceService) Create(ctx context.Context, sess access.Session, in MaintenanceInput) (*model.Maintenance, error) {
	if err := gate(s.d, sess, access.CreateMaintenance); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, invalid("title is required")
	}
	if in.Cost < 0 {
		return nil, invalid("cost must not be negative")
	}
	now := s.d.Clock.Now()
	date := in.Date
	if date.IsZero() {
		date = now
	}
	m := &model.Maintenance{
		ID:              ids.NewAt(now),
		Title:           in.Title,
		Asset:           in.Asset,
		Category:        in.Category,
		Vendor:          in.Vendor,
		Cost:            in.Cost,
		Date:            date.UTC(),
		NextServiceDate: in.NextServiceDate,
		Notes:           in.Notes,
		CreatedBy:       sess.UserID,
		CreatedAt:       now,
	}
	put, err := s.d.Store.Maintenance.Stage(m)
	if err != nil {
		return nil, err
	}
	if err := commit(ctx, s.d, sess, "Created maintenance: "+m.Title, put); err != nil {
		return nil, err
	}
	committed(m)
	return m, nil
}

func (s *maintenanceService) List(ctx context.Context, limit, offset int) (*Page[model.Maintenance], error) {
	items, err := s.d.Store.Maintenance.List(ctx)
	if err != nil {
		return nil, err
	}
	return paginate(newestFirst(items), limit, offset), nil
}

// CorrectiveActionInput is one follow-up raised by an audit.
type CorrectiveActionInput struct {
	Text    string     `json:"text"`
	OwnerID string     `json:"owner_id"`
	DueDate *time.Time `json:"due_date,omitempty"`
}

// AuditInput holds the fields of a compliance audit.
type AuditInput struct {
	AuditDate         time.Time               `json:"audit_date"`
	AuditorID         string                  `json:"auditor_id"`
	Findings          string                  `json:"findings"`
	CorrectiveActions []CorrectiveActionInput `json:"corrective_actions"`
}

// AuditService defines the use cases for compliance audits.
type AuditService interface {
	Create(ctx context.Context, s access.Session, in AuditInput) (*model.Audit, error)
	List(ctx context.Context, limit, offset int) (*Page[model.Audit], error)
}

type auditService struct {
	d Deps
}

// NewAuditService constructs a new AuditService.
func NewAuditService(d Deps) AuditService {
	return &auditService{d: d}
}

func (s *auditService) Create(ctx context.Context, sess access.Session, in AuditInput) (*model.Audit, error) {
	if err := gate(s.d, sess, access.CreateAudit); err != nil {
		return nil, err
	}
	if in.AuditDate.IsZero() {
		return nil, invalid("audit_date is required")
	}
	now := s.d.Clock.Now()
	auditor := in.AuditorID
	if auditor == "" {
		auditor = sess.UserID
	}
	actions := make([]model.CorrectiveAction, 0, len(in.CorrectiveActions))
	for _, ca := range in.CorrectiveActions {
		if strings.TrimSpace(ca.Text) == "" {
			continue
		}
		actions = append(actions, model.CorrectiveAction{
			ID:      ids.NewAt(now),
			Text:    strings.TrimSpace(ca.Text),
			OwnerID: ca.OwnerID,
			DueDate: ca.DueDate,
			Status:  model.TaskOpen,
		})
	}
	a := &model.Audit{
		ID:                ids.NewAt(now),
		AuditDate:         in.AuditDate.UTC(),
		AuditorID:         auditor,
		Findings:          in.Findings,
		CorrectiveActions: actions,
		Status:            model.AuditOpen,
		CreatedAt:         now,
	}
	put, err := s.d.Store.Audits.Stage(a)
	if err != nil {
		return nil, err
	}
	if err := commit(ctx, s.d, sess, "Created audit on "+a.AuditDate.Format(time.DateOnly), put); err != nil {
		return nil, err
	}
	committed(a)
	return a, nil
}

func (s *auditService) List(ctx context.Context, limit, offset int) (*Page[model.Audit], error) {
	items, err := s.d.Store.Audits.List(ctx)
	if err != nil {
		return nil, err
	}
	return paginate(newestFirst(items), limit, offset), nil
}
