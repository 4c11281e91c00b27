package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/carlos-juma/branch.it-IMY220/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testConfig writes a config pointing at a fresh pure-Go sqlite file.
func testConfig(t *testing.T) (configPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "branchit.db")
	configPath = filepath.Join(dir, "config.yaml")
	yaml := fmt.Sprintf("database:\n  driver: sqlite-purego\n  dsn: %s\nlog:\n  level: error\nsystem_log:\n  retention_days: 7\n", dbPath)
	require.NoError(t, os.WriteFile(configPath, []byte(yaml), 0o600))
	return configPath, dbPath
}

func run(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func openTestDB(t *testing.T, dbPath string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(dbPath), models.GormConfig())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestMigrate(t *testing.T) {
	configPath, dbPath := testConfig(t)

	out, err := run(t, configPath, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "migrated sqlite-purego database")

	db := openTestDB(t, dbPath)
	assert.True(t, db.Migrator().HasTable(&models.Commit{}))
	assert.True(t, db.Migrator().HasTable(&models.Friendship{}))
}

func TestCreateUser(t *testing.T) {
	configPath, dbPath := testConfig(t)

	out, err := run(t, configPath, "create-user", "--name", "Root", "--email", "Root@Example.com", "--password", "secret123", "--admin")
	require.NoError(t, err)
	assert.Contains(t, out, "<root@example.com> role=admin")

	var user models.User
	require.NoError(t, openTestDB(t, dbPath).Where("email = ?", "root@example.com").First(&user).Error)
	assert.Equal(t, "admin", user.Role)

	_, err = run(t, configPath, "create-user", "--name", "Again", "--email", "root@example.com", "--password", "secret123")
	assert.Error(t, err)

	_, err = run(t, configPath, "create-user", "--name", "Short", "--email", "s@example.com", "--password", "123")
	assert.Error(t, err)
}

func TestReconcile(t *testing.T) {
	configPath, dbPath := testConfig(t)
	_, err := run(t, configPath, "migrate")
	require.NoError(t, err)

	db := openTestDB(t, dbPath)
	require.NoError(t, db.Create(&models.File{ProjectID: 404, Filename: "orphan.txt", Path: "/"}).Error)

	out, err := run(t, configPath, "reconcile")
	require.NoError(t, err)
	assert.Contains(t, out, "removed 1 row(s)")

	var count int64
	require.NoError(t, db.Model(&models.File{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPurgeLogs(t *testing.T) {
	configPath, dbPath := testConfig(t)
	_, err := run(t, configPath, "migrate")
	require.NoError(t, err)

	db := openTestDB(t, dbPath)
	require.NoError(t, db.Create(&models.SystemLog{Level: "info", Module: "Projects", Action: "Create", Message: "old", CreatedAt: time.Now().AddDate(0, 0, -30)}).Error)
	require.NoError(t, db.Create(&models.SystemLog{Level: "info", Module: "Projects", Action: "Create", Message: "new", CreatedAt: time.Now()}).Error)

	out, err := run(t, configPath, "purge-logs")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted 1 log entries older than 7 day(s)")

	_, err = run(t, configPath, "purge-logs", "--days", "0")
	assert.Error(t, err)
}
