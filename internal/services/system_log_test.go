package services

import (
	"context"
	"testing"
	"time"

	"github.com/carlos-juma/branch.it-IMY220/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemLog_WriteAndList(t *testing.T) {
	db := setupTestDB(t)
	InitSystemLogger(db)
	t.Cleanup(func() { InitSystemLogger(nil) })

	uid := uint(3)
	LogInfo("project", "POST /api/projects", "created", LogEntry{UserID: &uid, RequestID: "req-1", Extra: map[string]int{"id": 1}})
	LogWarning("auth", "POST /api/auth/login", "failed login", LogEntry{IP: "10.0.0.1"})
	LogError("project", "DELETE /api/projects/1", "boom", LogEntry{})

	svc := NewSystemLogService(db, 30)
	ctx := context.Background()

	all, err := svc.List(ctx, &SystemLogListRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.Total)
	assert.Equal(t, 20, all.PageSize)

	byModule, err := svc.List(ctx, &SystemLogListRequest{Module: "project"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), byModule.Total)

	byUser, err := svc.List(ctx, &SystemLogListRequest{UserID: uid})
	require.NoError(t, err)
	require.Len(t, byUser.Items, 1)
	assert.Equal(t, "req-1", byUser.Items[0].RequestID)
	assert.JSONEq(t, `{"id":1}`, byUser.Items[0].Extra)

	modules, err := svc.GetModules(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"project", "auth"}, modules)
}

func TestSystemLog_WithoutDatabaseIsNoop(t *testing.T) {
	InitSystemLogger(nil)
	LogInfo("x", "y", "z", LogEntry{})
}

func TestSystemLogService_CleanupOldLogs(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSystemLogService(db, 30)
	ctx := context.Background()

	old := models.SystemLog{Level: "info", Module: "m", Action: "a", CreatedAt: time.Now().AddDate(0, 0, -45)}
	fresh := models.SystemLog{Level: "info", Module: "m", Action: "a", CreatedAt: time.Now()}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Create(&fresh).Error)

	deleted, err := svc.CleanupOldLogs(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, deleted, "non-positive retention keeps everything")

	deleted, err = svc.CleanupOldLogs(ctx, svc.RetentionDays())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining []models.SystemLog
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, fresh.ID, remaining[0].ID)
}
