package service

import (
	"context"
	"time"

	"cmsapi/internal/access"
	"cmsapi/internal/model"
)

// UpcomingExpiryWindow is how far ahead the dashboard looks for expiring documents.
const UpcomingExpiryWindow = 90 * 24 * time.Hour

// Totals are the headline numbers on the dashboard.
type Totals struct {
	TasksTotal          int `json:"tasks_total"`
	OverdueTasks        int `json:"overdue_tasks"`
	UpcomingExpiries    int `json:"upcoming_expiries"`
	OpenAudits          int `json:"open_audits"`
	UnreadNotifications int `json:"unread_notifications"`
}

// DashboardService computes the dashboard totals.
type DashboardService interface {
	Totals(ctx context.Context, viewer access.Session) (*Totals, error)
}

type dashboardService struct {
	d Deps
}

// NewDashboardService constructs a new DashboardService.
func NewDashboardService(d Deps) DashboardService {
	return &dashboardService{d: d}
}

func (s *dashboardService) Totals(ctx context.Context, viewer access.Session) (*Totals, error) {
	now := s.d.Clock.Now()
	var t Totals

	tasks, err := s.d.Store.Tasks.List(ctx)
	if err != nil {
		return nil, err
	}
	t.TasksTotal = len(tasks)
	for _, task := range tasks {
		if task.Overdue(now) {
			t.OverdueTasks++
		}
	}

	docs, err := s.d.Store.Documents.List(ctx)
	if err != nil {
		return nil, err
	}
	horizon := now.Add(UpcomingExpiryWindow)
	for _, d := range docs {
		// Already expired documents count as upcoming too.
		if d.ExpiryDate.Before(horizon) {
			t.UpcomingExpiries++
		}
	}

	audits, err := s.d.Store.Audits.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range audits {
		if a.Status != model.AuditClosed {
			t.OpenAudits++
		}
	}

	if !viewer.Anonymous() {
		notes, err := s.d.Store.Notifications.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, n := range notes {
			if n.VisibleTo(viewer.UserID, viewer.Role) && !n.IsReadBy(viewer.UserID) {
				t.UnreadNotifications++
			}
		}
	}
	return &t, nil
}
