package service

import (
	"context"
	"testing"
	"time"

	"cmsapi/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardService_Totals(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)

	_, err := e.svc.Tasks.Create(ctx, admin, TaskInput{Title: "late", DueDate: t0.Add(-day)})
	require.NoError(t, err)
	_, err = e.svc.Tasks.Create(ctx, admin, TaskInput{Title: "fine", DueDate: t0.Add(day)})
	require.NoError(t, err)
	done, err := e.svc.Tasks.Create(ctx, admin, TaskInput{Title: "late but done", DueDate: t0.Add(-day)})
	require.NoError(t, err)
	status := model.TaskDone
	_, err = e.svc.Tasks.Update(ctx, admin, done.ID, TaskPatch{Status: &status})
	require.NoError(t, err)

	for _, d := range []int{-5, 30, 89, 120} {
		_, err := e.svc.Documents.Create(ctx, admin, DocumentInput{Title: "doc", ExpiryDate: t0.Add(time.Duration(d) * day)})
		require.NoError(t, err)
	}
	_, err = e.svc.Audits.Create(ctx, admin, AuditInput{AuditDate: t0})
	require.NoError(t, err)
	_, err = e.svc.Notifications.Send(ctx, admin, NotificationInput{Title: "hello"})
	require.NoError(t, err)

	totals, err := e.svc.Dashboard.Totals(ctx, supervisor)
	require.NoError(t, err)
	assert.Equal(t, &Totals{
		TasksTotal:          3,
		OverdueTasks:        1,
		UpcomingExpiries:    3,
		OpenAudits:          1,
		UnreadNotifications: 1,
	}, totals)

	userTotals, err := e.svc.Dashboard.Totals(ctx, user)
	require.NoError(t, err)
	assert.Zero(t, userTotals.UnreadNotifications)
}
