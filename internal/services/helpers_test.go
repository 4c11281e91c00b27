package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/carlos-juma/branch.it-IMY220/internal/models"
	"github.com/carlos-juma/branch.it-IMY220/internal/utils"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	utils.BcryptCost = bcrypt.MinCost
	utils.SetJWTSecret("test-secret")
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), models.GormConfig())
	require.NoError(t, err, "failed opening in-memory sqlite")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.Migrate(db), "failed migrating")
	return db
}

// testEnv wires every service against one database.
type testEnv struct {
	db       *gorm.DB
	users    *UserService
	friends  *FriendshipService
	projects *ProjectService
	versions *VersionService
	activity *ActivityService
	hub      *ActivityHub
	cache    *memoryFeedCache
}

// memoryFeedCache is a map-backed FeedCache standing in for Redis.
type memoryFeedCache struct {
	mu      sync.Mutex
	entries map[string][]Activity
}

func newMemoryFeedCache() *memoryFeedCache {
	return &memoryFeedCache{entries: make(map[string][]Activity)}
}

func (c *memoryFeedCache) Get(_ context.Context, key string) ([]Activity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	feed, ok := c.entries[key]
	return feed, ok
}

func (c *memoryFeedCache) Set(_ context.Context, key string, feed []Activity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = feed
}

func (c *memoryFeedCache) Invalidate(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithMode(t, false)
}

func newTestEnvWithMode(t *testing.T, strict bool) *testEnv {
	t.Helper()
	db := setupTestDB(t)
	cache := newMemoryFeedCache()
	projects := NewProjectService(db, cache)
	friends := NewFriendshipService(db)
	hub := NewActivityHub()
	return &testEnv{
		db:       db,
		users:    NewUserService(db, projects, nil),
		friends:  friends,
		projects: projects,
		versions: NewVersionService(db, projects, strict),
		activity: NewActivityService(db, friends, hub, cache),
		hub:      hub,
		cache:    cache,
	}
}

func (e *testEnv) createUser(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := e.users.CreateUser(context.Background(), &RegisterRequest{
		Name:     name,
		Email:    fmt.Sprintf("%s@example.com", name),
		Password: "secret123",
	})
	require.NoError(t, err)
	return u
}

func (e *testEnv) createProject(t *testing.T, owner *models.User, name string, public bool) *models.Project {
	t.Helper()
	p, err := e.projects.CreateProject(context.Background(), as(owner), &CreateProjectRequest{
		Name:     name,
		Type:     "web",
		IsPublic: &public,
	})
	require.NoError(t, err)
	return p
}

// befriend runs the full request/accept handshake.
func (e *testEnv) befriend(t *testing.T, a, b *models.User) {
	t.Helper()
	ctx := context.Background()
	req, err := e.friends.SendRequest(ctx, as(a), b.ID)
	require.NoError(t, err)
	_, err = e.friends.Respond(ctx, as(b), req.ID, true)
	require.NoError(t, err)
}

func as(u *models.User) Caller {
	return Caller{UserID: u.ID, Role: u.Role}
}

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return baseTime.Add(time.Duration(minutes) * time.Minute)
}

func (e *testEnv) insertCommit(t *testing.T, projectID, authorID uint, ts time.Time, msg string) models.Commit {
	t.Helper()
	c := models.Commit{
		ProjectID:    projectID,
		AuthorID:     authorID,
		Message:      msg,
		Timestamp:    ts,
		FilesChanged: []uint{},
		Branch:       models.DefaultBranch,
		Hash:         NewCommitHash(ts),
	}
	require.NoError(t, e.db.Create(&c).Error)
	return c
}

func (e *testEnv) insertMessage(t *testing.T, projectID, authorID uint, ts time.Time, kind models.MessageKind) models.Message {
	t.Helper()
	m := models.Message{
		ProjectID: projectID,
		AuthorID:  authorID,
		Body:      string(kind) + " message",
		Kind:      kind,
		Timestamp: ts,
	}
	require.NoError(t, e.db.Create(&m).Error)
	return m
}
