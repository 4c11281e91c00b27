package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/carlos-juma/branch.it-IMY220/pkg/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchService_Users(t *testing.T) {
	env := newTestEnv(t)
	search := NewSearchService(env.db)
	ctx := context.Background()
	env.createUser(t, "Annabel")
	env.createUser(t, "hannah")
	env.createUser(t, "bob")

	_, err := search.Users(ctx, " a ")
	assert.Equal(t, http.StatusBadRequest, response.StatusOf(err))

	users, err := search.Users(ctx, "ANN")
	require.NoError(t, err)
	assert.Len(t, users, 2)

	users, err = search.Users(ctx, "bob@example")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "bob", users[0].Name)

	users, err = search.Users(ctx, "%%")
	require.NoError(t, err)
	assert.Empty(t, users, "wildcards are matched literally")
}

func TestSearchService_Projects(t *testing.T) {
	env := newTestEnv(t)
	search := NewSearchService(env.db)
	ctx := context.Background()
	owner := env.createUser(t, "owner")

	for _, req := range []*CreateProjectRequest{
		{Name: "Tracker", Description: "issue tracking", Type: "web", Tags: []string{"go", "api"}},
		{Name: "Planner", Description: "tracks plans", Type: "mobile", Tags: []string{"kotlin"}},
		{Name: "Ledger", Type: "web", Tags: []string{"golang"}},
	} {
		_, err := env.projects.CreateProject(ctx, as(owner), req)
		require.NoError(t, err)
	}
	env.createProject(t, owner, "Hidden tracker", false)

	found, err := search.Projects(ctx, &ProjectSearchRequest{Query: "track"})
	require.NoError(t, err)
	require.Len(t, found, 2, "private projects are never returned")
	assert.Equal(t, "Planner", found[0].Name, "newest first")

	found, err = search.Projects(ctx, &ProjectSearchRequest{Type: "WEB"})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = search.Projects(ctx, &ProjectSearchRequest{Tags: []string{"go", "kotlin"}})
	require.NoError(t, err)
	assert.Len(t, found, 2, "tags match whole elements, any of")

	found, err = search.Projects(ctx, &ProjectSearchRequest{})
	require.NoError(t, err)
	assert.Len(t, found, 3)
}

func TestSearchService_CommitsRespectVisibility(t *testing.T) {
	env := newTestEnv(t)
	search := NewSearchService(env.db)
	ctx := context.Background()
	owner := env.createUser(t, "owner")
	collab := env.createUser(t, "collab")
	stranger := env.createUser(t, "stranger")

	public := env.createProject(t, owner, "Open", true)
	private := env.createProject(t, owner, "Closed", false)
	_, err := env.projects.AddCollaborator(ctx, private.ID, as(owner), collab.ID)
	require.NoError(t, err)

	env.insertCommit(t, public.ID, owner.ID, at(1), "Fix login bug")
	env.insertCommit(t, private.ID, owner.ID, at(2), "fix secret bug")

	cases := []struct {
		name   string
		viewer Caller
		want   int
	}{
		{"anonymous", Anonymous(), 1},
		{"stranger", as(stranger), 1},
		{"owner", as(owner), 2},
		{"collaborator", as(collab), 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			commits, err := search.Commits(ctx, tc.viewer, &CommitSearchRequest{Query: "FIX"})
			require.NoError(t, err)
			assert.Len(t, commits, tc.want)
		})
	}

	commits, err := search.Commits(ctx, as(owner), &CommitSearchRequest{Query: "fix", ProjectType: "web"})
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, "fix secret bug", commits[0].Message, "newest first")
	require.NotNil(t, commits[0].Project)
	assert.Equal(t, "Closed", commits[0].Project.Name)
}

func TestSearchService_All(t *testing.T) {
	env := newTestEnv(t)
	search := NewSearchService(env.db)
	ctx := context.Background()
	owner := env.createUser(t, "gopher")
	_, err := env.projects.CreateProject(ctx, as(owner), &CreateProjectRequest{Name: "Ledger", Tags: []string{"gopher-tools"}})
	require.NoError(t, err)
	p := env.createProject(t, owner, "Tracker", true)
	env.insertCommit(t, p.ID, owner.ID, at(1), "teach the gopher")

	_, err = search.All(ctx, Anonymous(), "g")
	assert.Equal(t, http.StatusBadRequest, response.StatusOf(err))

	res, err := search.All(ctx, Anonymous(), "gopher")
	require.NoError(t, err)
	assert.Len(t, res.Users, 1)
	require.Len(t, res.Projects, 1)
	assert.Equal(t, "Ledger", res.Projects[0].Name, "projects also match on tags")
	assert.Len(t, res.Commits, 1)
}
