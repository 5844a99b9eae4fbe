package service

import (
	"context"

	"cmsapi/internal/model"
)

// ActivityService exposes the audit trail as an activity log.
type ActivityService interface {
	// List returns the newest records first. A limit <= 0 returns everything.
	List(ctx context.Context, limit int) ([]model.AuditRecord, error)
}

type activityService struct {
	d Deps
}

// NewActivityService constructs a new ActivityService.
func NewActivityService(d Deps) ActivityService {
	return &activityService{d: d}
}

func (s *activityService) List(ctx context.Context, limit int) ([]model.AuditRecord, error) {
	return s.d.Trail.List(ctx, limit)
}
