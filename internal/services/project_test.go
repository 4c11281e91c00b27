package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/carlos-juma/branch.it-IMY220/internal/models"
	"github.com/carlos-juma/branch.it-IMY220/pkg/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectService_CreateDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner")

	p, err := env.projects.CreateProject(ctx, as(owner), &CreateProjectRequest{
		Name: "Tracker",
		Tags: []string{"go", " ", "api"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultProjectVersion, p.Version)
	assert.Equal(t, models.ProjectActive, p.Status)
	assert.True(t, p.IsPublic, "projects default to public")
	assert.Equal(t, []string{"go", "api"}, p.Tags)
	assert.Equal(t, owner.ID, p.OwnerID)

	got, err := env.projects.GetProject(ctx, p.ID, Anonymous())
	require.NoError(t, err)
	assert.Empty(t, got.Collaborators)
	require.NotNil(t, got.Owner)
	assert.Equal(t, "owner", got.Owner.Name)

	_, err = env.projects.CreateProject(ctx, Anonymous(), &CreateProjectRequest{Name: "x"})
	assert.Equal(t, http.StatusUnauthorized, response.StatusOf(err))
}

func TestProjectService_PrivateVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner")
	collab := env.createUser(t, "collab")
	stranger := env.createUser(t, "stranger")

	p := env.createProject(t, owner, "secret", false)
	_, err := env.projects.AddCollaborator(ctx, p.ID, as(owner), collab.ID)
	require.NoError(t, err)

	_, err = env.projects.GetProject(ctx, p.ID, Anonymous())
	assert.Equal(t, http.StatusForbidden, response.StatusOf(err))
	_, err = env.projects.GetProject(ctx, p.ID, as(stranger))
	assert.Equal(t, http.StatusForbidden, response.StatusOf(err))
	_, err = env.projects.ListCollaborators(ctx, p.ID, as(stranger))
	assert.Equal(t, http.StatusForbidden, response.StatusOf(err))

	for _, viewer := range []*models.User{owner, collab} {
		_, err := env.projects.GetProject(ctx, p.ID, as(viewer))
		assert.NoError(t, err, viewer.Name)
	}

	_, err = env.projects.GetProject(ctx, 9999, as(owner))
	assert.Equal(t, http.StatusNotFound, response.StatusOf(err))
}

func TestProjectService_UpdateProject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner")
	collab := env.createUser(t, "collab")
	p := env.createProject(t, owner, "Tracker", true)
	_, err := env.projects.AddCollaborator(ctx, p.ID, as(owner), collab.ID)
	require.NoError(t, err)

	name := "Renamed"
	_, err = env.projects.UpdateProject(ctx, p.ID, as(collab), &UpdateProjectRequest{Name: &name})
	assert.Equal(t, http.StatusForbidden, response.StatusOf(err), "collaborators cannot edit metadata")

	private := false
	version := "2.0.0"
	status := string(models.ProjectArchived)
	updated, err := env.projects.UpdateProject(ctx, p.ID, as(owner), &UpdateProjectRequest{
		Name:     &name,
		Version:  &version,
		IsPublic: &private,
		Tags:     []string{"cli"},
		Status:   &status,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "2.0.0", updated.Version)
	assert.False(t, updated.IsPublic)
	assert.Equal(t, []string{"cli"}, updated.Tags)
	assert.Equal(t, models.ProjectArchived, updated.Status)
	assert.Equal(t, "web", updated.Type, "fields not provided are kept")

	bogus := "deleted"
	_, err = env.projects.UpdateProject(ctx, p.ID, as(owner), &UpdateProjectRequest{Status: &bogus})
	assert.Equal(t, http.StatusBadRequest, response.StatusOf(err))
}

func TestProjectService_DeleteCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner")
	collab := env.createUser(t, "collab")

	p := env.createProject(t, owner, "doomed", true)
	keep := env.createProject(t, owner, "keep", true)

	for _, projectID := range []uint{p.ID, keep.ID} {
		_, err := env.projects.AddCollaborator(ctx, projectID, as(owner), collab.ID)
		require.NoError(t, err)
		f, err := env.versions.UploadFile(ctx, projectID, as(owner), &UploadFileRequest{Filename: "a.txt", Content: "x"})
		require.NoError(t, err)
		_, err = env.versions.CreateCommit(ctx, projectID, as(owner), &CreateCommitRequest{Message: "init", FilesChanged: []uint{f.ID}})
		require.NoError(t, err)
		_, err = env.activity.CreateMessage(ctx, as(owner), &CreateMessageRequest{ProjectID: projectID, Body: "hi"})
		require.NoError(t, err)
		require.NoError(t, env.db.Create(&models.Branch{ProjectID: projectID, Name: "main", Status: models.BranchActive}).Error)
	}

	err := env.projects.DeleteProject(ctx, p.ID, as(collab))
	assert.Equal(t, http.StatusForbidden, response.StatusOf(err))

	require.NoError(t, env.projects.DeleteProject(ctx, p.ID, as(owner)))

	for _, model := range []interface{}{&models.File{}, &models.Commit{}, &models.Branch{}, &models.Message{}, &models.ProjectCollaborator{}} {
		var gone, kept int64
		env.db.Model(model).Where("project_id = ?", p.ID).Count(&gone)
		env.db.Model(model).Where("project_id = ?", keep.ID).Count(&kept)
		assert.Zero(t, gone, "%T rows should be gone", model)
		assert.Equal(t, int64(1), kept, "%T rows of other projects stay", model)
	}

	_, err = env.projects.GetProject(ctx, p.ID, as(owner))
	assert.Equal(t, http.StatusNotFound, response.StatusOf(err))
}

func TestProjectService_Collaborators(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner")
	collab := env.createUser(t, "collab")
	stranger := env.createUser(t, "stranger")
	p := env.createProject(t, owner, "Tracker", true)

	added, err := env.projects.AddCollaborator(ctx, p.ID, as(owner), collab.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, added.AddedBy)

	_, err = env.projects.AddCollaborator(ctx, p.ID, as(owner), collab.ID)
	assert.Equal(t, http.StatusConflict, response.StatusOf(err))

	_, err = env.projects.AddCollaborator(ctx, p.ID, as(owner), owner.ID)
	assert.Equal(t, http.StatusBadRequest, response.StatusOf(err))

	_, err = env.projects.AddCollaborator(ctx, p.ID, as(owner), 4242)
	assert.Equal(t, http.StatusNotFound, response.StatusOf(err))

	_, err = env.projects.AddCollaborator(ctx, p.ID, as(collab), stranger.ID)
	assert.Equal(t, http.StatusForbidden, response.StatusOf(err))

	list, err := env.projects.ListCollaborators(ctx, p.ID, Anonymous())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, collab.ID, list[0].ID)

	require.NoError(t, env.projects.RemoveCollaborator(ctx, p.ID, as(owner), stranger.ID), "removing a non-collaborator is a no-op")
	require.NoError(t, env.projects.RemoveCollaborator(ctx, p.ID, as(owner), collab.ID))

	list, err = env.projects.ListCollaborators(ctx, p.ID, as(owner))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestProjectService_ListPublicProjects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner")

	first := env.createProject(t, owner, "first", true)
	env.createProject(t, owner, "hidden", false)
	second := env.createProject(t, owner, "second", true)

	resp, err := env.projects.ListPublicProjects(ctx, &ProjectListRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Total)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, second.ID, resp.Items[0].ID, "newest first")
	assert.Equal(t, first.ID, resp.Items[1].ID)

	paged, err := env.projects.ListPublicProjects(ctx, &ProjectListRequest{Page: 2, PageSize: 1})
	require.NoError(t, err)
	require.Len(t, paged.Items, 1)
	assert.Equal(t, first.ID, paged.Items[0].ID)
}

func TestProjectService_DeleteDropsCachedGlobalFeed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner")
	p := env.createProject(t, owner, "Tracker", true)
	env.insertCommit(t, p.ID, owner.ID, at(1), "init")
	env.insertMessage(t, p.ID, owner.ID, at(2), models.MessageComment)

	feed, err := env.activity.GlobalFeed(ctx)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	_, cached := env.cache.Get(ctx, globalFeedKey)
	require.True(t, cached)

	require.NoError(t, env.projects.DeleteProject(ctx, p.ID, as(owner)))

	_, cached = env.cache.Get(ctx, globalFeedKey)
	assert.False(t, cached)
	feed, err = env.activity.GlobalFeed(ctx)
	require.NoError(t, err)
	assert.Empty(t, feed)
}
