package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cmsapi/internal/access"
	"cmsapi/internal/ids"
	"cmsapi/internal/model"
)

// TaskInput holds the fields of a new task.
type TaskInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Priority    string    `json:"priority"`
	AssignedTo  string    `json:"assigned_to"`
	DueDate     time.Time `json:"due_date"`
}

// TaskPatch changes the non-nil fields of a task.
type TaskPatch struct {
	Title       *string           `json:"title,omitempty"`
	Description *string           `json:"description,omitempty"`
	Category    *string           `json:"category,omitempty"`
	Priority    *string           `json:"priority,omitempty"`
	AssignedTo  *string           `json:"assigned_to,omitempty"`
	DueDate     *time.Time        `json:"due_date,omitempty"`
	Status      *model.TaskStatus `json:"status,omitempty"`
}

// TaskService defines the use cases for tasks.
type TaskService interface {
	Create(ctx context.Context, s access.Session, in TaskInput) (*model.Task, error)
	Update(ctx context.Context, s access.Session, id string, patch TaskPatch) (*model.Task, error)
	// Approve records an approval decision (Approved, Rejected or back to Pending).
	Approve(ctx context.Context, s access.Session, id string, decision model.Approval) (*model.Task, error)
	List(ctx context.Context, limit, offset int) (*Page[model.Task], error)
	Get(ctx context.Context, id string) (*model.Task, error)
}

type taskService struct {
	d Deps
}

// NewTaskService constructs a new TaskService.
func NewTaskService(d Deps) TaskService {
	return &taskService{d: d}
}

func (s *taskService) Create(ctx context.Context, sess access.Session, in TaskInput) (*model.Task, error) {
	if err := gate(s.d, sess, access.CreateTask); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, invalid("title is required")
	}
	now := s.d.Clock.Now()
	t := &model.Task{
		ID:          ids.NewAt(now),
		Title:       in.Title,
		Description: in.Description,
		Category:    defaultString(in.Category, "General"),
		Priority:    defaultString(in.Priority, "Medium"),
		Status:      model.TaskOpen,
		AssignedTo:  in.AssignedTo,
		CreatedBy:   sess.UserID,
		DueDate:     in.DueDate.UTC(),
		Approval:    model.ApprovalPending,
		CreatedAt:   now,
	}
	put, err := s.d.Store.Tasks.Stage(t)
	if err != nil {
		return nil, err
	}
	if err := commit(ctx, s.d, sess, "Created task: "+t.Title, put); err != nil {
		return nil, err
	}
	committed(t)
	return t, nil
}

func (s *taskService) Update(ctx context.Context, sess access.Session, id string, patch TaskPatch) (*model.Task, error) {
	if err := gate(s.d, sess, access.UpdateTask); err != nil {
		return nil, err
	}
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, invalid("title must not be empty")
		}
		t.Title = title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Category != nil {
		t.Category = *patch.Category
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.AssignedTo != nil {
		t.AssignedTo = *patch.AssignedTo
	}
	if patch.DueDate != nil {
		t.DueDate = patch.DueDate.UTC()
	}
	if patch.Status != nil {
		switch *patch.Status {
		case model.TaskOpen, model.TaskDone:
			t.Status = *patch.Status
		default:
			return nil, invalid("unknown task status %q", *patch.Status)
		}
	}
	return s.save(ctx, sess, t, fmt.Sprintf("Updated task %s", t.ID))
}

func (s *taskService) Approve(ctx context.Context, sess access.Session, id string, decision model.Approval) (*model.Task, error) {
	if err := gate(s.d, sess, access.ApproveTask); err != nil {
		return nil, err
	}
	switch decision {
	case model.ApprovalApproved, model.ApprovalRejected, model.ApprovalPending:
	default:
		return nil, invalid("unknown approval %q", decision)
	}
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Approval = decision
	return s.save(ctx, sess, t, fmt.Sprintf("Set approval of task %s to %s", t.ID, decision))
}

func (s *taskService) List(ctx context.Context, limit, offset int) (*Page[model.Task], error) {
	tasks, err := s.d.Store.Tasks.List(ctx)
	if err != nil {
		return nil, err
	}
	return paginate(newestFirst(tasks), limit, offset), nil
}

func (s *taskService) Get(ctx context.Context, id string) (*model.Task, error) {
	return s.load(ctx, id)
}

func (s *taskService) load(ctx context.Context, id string) (*model.Task, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	t, err := s.d.Store.Tasks.Get(ctx, id)
	if err != nil {
		return nil, notFound("task", id, err)
	}
	return t, nil
}

func (s *taskService) save(ctx context.Context, sess access.Session, t *model.Task, description string) (*model.Task, error) {
	now := s.d.Clock.Now()
	t.UpdatedAt = &now
	put, err := s.d.Store.Tasks.Stage(t)
	if err != nil {
		return nil, err
	}
	if err := commit(ctx, s.d, sess, description, put); err != nil {
		return nil, err
	}
	committed(t)
	return t, nil
}

func defaultString(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
