package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/carlos-juma/branch.it-IMY220/internal/models"
	"github.com/carlos-juma/branch.it-IMY220/pkg/response"
	"gorm.io/gorm"
)

const (
	MinUserQueryLength = 2

	userSearchLimit    = 20
	projectSearchLimit = 30
	commitSearchLimit  = 50

	allUsersLimit    = 10
	allProjectsLimit = 15
	allCommitsLimit  = 10
)

// SearchService runs plain substring filters. There is no ranking.
type SearchService struct {
	db *gorm.DB
}

func NewSearchService(db *gorm.DB) *SearchService {
	return &SearchService{db: db}
}

type ProjectSearchRequest struct {
	Query string   `form:"query"`
	Type  string   `form:"type"`
	Tags  []string `form:"tags"`
}

type CommitSearchRequest struct {
	Query       string   `form:"query"`
	ProjectType string   `form:"projectType"`
	Hashtags    []string `form:"hashtags"`
}

type UserSearchResult struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
	Bio    string `json:"bio"`
}

type SearchAllResponse struct {
	Users    []UserSearchResult `json:"users"`
	Projects []models.Project   `json:"projects"`
	Commits  []models.Commit    `json:"commits"`
}

// likePattern lowercases q and escapes LIKE wildcards with '!'.
func likePattern(q string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + r.Replace(strings.ToLower(strings.TrimSpace(q))) + "%"
}

// tagPattern matches one element of a JSON-encoded string array.
func tagPattern(tag string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return `%"` + r.Replace(tag) + `"%`
}

func whereAnyTag(db *gorm.DB, column string, tags []string) *gorm.DB {
	var clauses []string
	var args []interface{}
	for _, t := range tags {
		if t = strings.TrimSpace(t); t == "" {
			continue
		}
		clauses = append(clauses, column+" LIKE ? ESCAPE '!'")
		args = append(args, tagPattern(t))
	}
	if len(clauses) == 0 {
		return db
	}
	return db.Where("("+strings.Join(clauses, " OR ")+")", args...)
}

func requireQuery(q string) error {
	if len([]rune(strings.TrimSpace(q))) < MinUserQueryLength {
		return response.NewBadRequest("query must be at least %d characters", MinUserQueryLength)
	}
	return nil
}

func (s *SearchService) users(ctx context.Context, q string, limit int) ([]UserSearchResult, error) {
	pattern := likePattern(q)
	results := []UserSearchResult{}
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Select("id, name, email, avatar, bio").
		Where("LOWER(name) LIKE ? ESCAPE '!' OR LOWER(email) LIKE ? ESCAPE '!'", pattern, pattern).
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("searching users: %w", err)
	}
	return results, nil
}

// Users matches name or email. Queries shorter than two characters are
// rejected.
func (s *SearchService) Users(ctx context.Context, q string) ([]UserSearchResult, error) {
	if err := requireQuery(q); err != nil {
		return nil, err
	}
	return s.users(ctx, q, userSearchLimit)
}

// Projects searches public projects newest first. Every filter is optional.
func (s *SearchService) Projects(ctx context.Context, req *ProjectSearchRequest) ([]models.Project, error) {
	query := s.db.WithContext(ctx).Model(&models.Project{}).Where("is_public = ?", true)
	if strings.TrimSpace(req.Query) != "" {
		pattern := likePattern(req.Query)
		query = query.Where("LOWER(name) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!'", pattern, pattern)
	}
	if strings.TrimSpace(req.Type) != "" {
		query = query.Where("LOWER(type) LIKE ? ESCAPE '!'", likePattern(req.Type))
	}
	query = whereAnyTag(query, "tags", req.Tags)

	projects := []models.Project{}
	if err := query.Preload("Owner").
		Order("created_at DESC, id DESC").
		Limit(projectSearchLimit).
		Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("searching projects: %w", err)
	}
	return projects, nil
}

// visibleCommits restricts a commits query to projects the viewer may read.
func (s *SearchService) visibleCommits(ctx context.Context, viewer Caller) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Commit{}).
		Joins("JOIN projects ON projects.id = commits.project_id")
	if viewer.IsAnonymous() {
		return query.Where("projects.is_public = ?", true)
	}
	return query.Where(
		"projects.is_public = ? OR projects.owner_id = ? OR projects.id IN (?)",
		true, viewer.UserID,
		s.db.Model(&models.ProjectCollaborator{}).Select("project_id").Where("user_id = ?", viewer.UserID),
	)
}

// Commits matches commit messages on projects the viewer can see, newest
// first.
func (s *SearchService) Commits(ctx context.Context, viewer Caller, req *CommitSearchRequest) ([]models.Commit, error) {
	query := s.visibleCommits(ctx, viewer)
	if strings.TrimSpace(req.Query) != "" {
		query = query.Where("LOWER(commits.message) LIKE ? ESCAPE '!'", likePattern(req.Query))
	}
	if strings.TrimSpace(req.ProjectType) != "" {
		query = query.Where("LOWER(projects.type) LIKE ? ESCAPE '!'", likePattern(req.ProjectType))
	}
	query = whereAnyTag(query, "projects.tags", req.Hashtags)

	return s.findCommits(query, commitSearchLimit)
}

func (s *SearchService) findCommits(query *gorm.DB, limit int) ([]models.Commit, error) {
	commits := []models.Commit{}
	if err := query.
		Select("commits.*").
		Preload("Author").
		Preload("Project").
		Order("commits.timestamp DESC, commits.id DESC").
		Limit(limit).
		Find(&commits).Error; err != nil {
		return nil, fmt.Errorf("searching commits: %w", err)
	}
	return commits, nil
}

// All runs a smaller version of each search. Projects also match on tags.
func (s *SearchService) All(ctx context.Context, viewer Caller, q string) (*SearchAllResponse, error) {
	if err := requireQuery(q); err != nil {
		return nil, err
	}

	users, err := s.users(ctx, q, allUsersLimit)
	if err != nil {
		return nil, err
	}

	pattern := likePattern(q)
	projects := []models.Project{}
	if err := s.db.WithContext(ctx).
		Preload("Owner").
		Where("is_public = ?", true).
		Where("LOWER(name) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!' OR LOWER(tags) LIKE ? ESCAPE '!'",
			pattern, pattern, pattern).
		Order("created_at DESC, id DESC").
		Limit(allProjectsLimit).
		Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("searching projects: %w", err)
	}

	commits, err := s.findCommits(
		s.visibleCommits(ctx, viewer).Where("LOWER(commits.message) LIKE ? ESCAPE '!'", pattern),
		allCommitsLimit,
	)
	if err != nil {
		return nil, err
	}

	return &SearchAllResponse{Users: users, Projects: projects, Commits: commits}, nil
}
