package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/carlos-juma/branch.it-IMY220/internal/models"
	"github.com/carlos-juma/branch.it-IMY220/pkg/logger"
	"github.com/carlos-juma/branch.it-IMY220/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProjectService struct {
	db    *gorm.DB
	cache FeedCache
}

// NewProjectService wires the registry. cache may be nil; deletes drop the
// cached global feed through it.
func NewProjectService(db *gorm.DB, cache FeedCache) *ProjectService {
	if cache == nil {
		cache = NoopFeedCache{}
	}
	return &ProjectService{db: db, cache: cache}
}

type ProjectListRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Type     string `form:"type"`
}

type ProjectListResponse struct {
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Items    []models.Project `json:"items"`
}

type CreateProjectRequest struct {
	Name        string   `json:"name" binding:"required,max=200"`
	Description string   `json:"description"`
	Type        string   `json:"type" binding:"max=100"`
	Tags        []string `json:"tags"`
	IsPublic    *bool    `json:"isPublic"`
}

type UpdateProjectRequest struct {
	Name        *string  `json:"name" binding:"omitempty,min=1,max=200"`
	Description *string  `json:"description"`
	Type        *string  `json:"type" binding:"omitempty,max=100"`
	Version     *string  `json:"version" binding:"omitempty,max=50"`
	IsPublic    *bool    `json:"isPublic"`
	Tags        []string `json:"tags"`
	Status      *string  `json:"status" binding:"omitempty,project_status"`
}

// ValidProjectStatus reports whether s names a project lifecycle state.
func ValidProjectStatus(s string) bool {
	switch models.ProjectStatus(s) {
	case models.ProjectActive, models.ProjectArchived, models.ProjectCompleted:
		return true
	}
	return false
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// CreateProject registers a project owned by the caller. Projects are public
// unless the request says otherwise.
func (s *ProjectService) CreateProject(ctx context.Context, owner Caller, req *CreateProjectRequest) (*models.Project, error) {
	if err := owner.requireUser(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, response.NewBadRequest("project name is required")
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	project := models.Project{
		Name:        name,
		Description: req.Description,
		Type:        req.Type,
		Version:     models.DefaultProjectVersion,
		OwnerID:     owner.UserID,
		IsPublic:    isPublic,
		Tags:        normalizeTags(req.Tags),
		Status:      models.ProjectActive,
	}
	if err := s.db.WithContext(ctx).Create(&project).Error; err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}

	logger.Info().Uint("project_id", project.ID).Uint("owner_id", owner.UserID).Msg("project created")
	return &project, nil
}

func (s *ProjectService) load(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.WithContext(ctx).First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("project not found")
		}
		return nil, fmt.Errorf("loading project: %w", err)
	}
	return &project, nil
}

// IsMember reports whether userID owns or collaborates on the project.
func (s *ProjectService) IsMember(ctx context.Context, project *models.Project, userID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	if project.OwnerID == userID {
		return true, nil
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.ProjectCollaborator{}).
		Where("project_id = ? AND user_id = ?", project.ID, userID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("checking collaborator: %w", err)
	}
	return count > 0, nil
}

// CanView applies the visibility rule: public projects are readable by
// anyone, private ones only by members.
func (s *ProjectService) CanView(ctx context.Context, project *models.Project, viewer Caller) (bool, error) {
	if project.IsPublic {
		return true, nil
	}
	return s.IsMember(ctx, project, viewer.UserID)
}

// Visible loads a project and enforces read visibility for viewer.
func (s *ProjectService) Visible(ctx context.Context, id uint, viewer Caller) (*models.Project, error) {
	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.CanView(ctx, project, viewer)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, response.NewForbidden("this project is private")
	}
	return project, nil
}

func (s *ProjectService) requireOwner(ctx context.Context, id uint, actor Caller) (*models.Project, error) {
	if err := actor.requireUser(); err != nil {
		return nil, err
	}
	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != actor.UserID {
		return nil, response.NewForbidden("only the project owner can do that")
	}
	return project, nil
}

// GetProject returns the project with its owner and collaborators resolved.
func (s *ProjectService) GetProject(ctx context.Context, id uint, viewer Caller) (*models.Project, error) {
	if _, err := s.Visible(ctx, id, viewer); err != nil {
		return nil, err
	}

	var project models.Project
	if err := s.db.WithContext(ctx).
		Preload("Owner").
		Preload("Collaborators", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		Preload("Collaborators.User").
		First(&project, id).Error; err != nil {
		return nil, fmt.Errorf("loading project: %w", err)
	}
	return &project, nil
}

// UpdateProject overwrites the provided fields. Owner only.
func (s *ProjectService) UpdateProject(ctx context.Context, id uint, actor Caller, req *UpdateProjectRequest) (*models.Project, error) {
	project, err := s.requireOwner(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	var cols []string
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, response.NewBadRequest("project name cannot be empty")
		}
		project.Name = name
		cols = append(cols, "name")
	}
	if req.Description != nil {
		project.Description = *req.Description
		cols = append(cols, "description")
	}
	if req.Type != nil {
		project.Type = *req.Type
		cols = append(cols, "type")
	}
	if req.Version != nil {
		project.Version = *req.Version
		cols = append(cols, "version")
	}
	if req.IsPublic != nil {
		project.IsPublic = *req.IsPublic
		cols = append(cols, "is_public")
	}
	if req.Tags != nil {
		project.Tags = normalizeTags(req.Tags)
		cols = append(cols, "tags")
	}
	if req.Status != nil {
		if !ValidProjectStatus(*req.Status) {
			return nil, response.NewBadRequest("unknown project status %q", *req.Status)
		}
		project.Status = models.ProjectStatus(*req.Status)
		cols = append(cols, "status")
	}

	if len(cols) > 0 {
		if err := s.db.WithContext(ctx).Model(project).Select(cols).Updates(project).Error; err != nil {
			return nil, fmt.Errorf("updating project: %w", err)
		}
	}
	return s.GetProject(ctx, id, actor)
}

// DeleteProject removes the project and everything it owns. Owner only.
func (s *ProjectService) DeleteProject(ctx context.Context, id uint, actor Caller) error {
	if _, err := s.requireOwner(ctx, id, actor); err != nil {
		return err
	}
	if err := s.purge(ctx, id); err != nil {
		return err
	}

	projectsDeletedTotal.WithLabelValues("owner").Inc()
	logger.Info().Uint("project_id", id).Uint("actor_id", actor.UserID).Msg("project deleted")
	s.scheduleSweep(id, actor.UserID)
	return nil
}

// purge deletes files, commits, branches, messages, collaborators and then
// the project row, one statement at a time. A failure part-way leaves
// orphans for the reconciler.
func (s *ProjectService) purge(ctx context.Context, projectID uint) error {
	db := s.db.WithContext(ctx)
	steps := []struct {
		name  string
		model interface{}
	}{
		{"files", &models.File{}},
		{"commits", &models.Commit{}},
		{"branches", &models.Branch{}},
		{"messages", &models.Message{}},
		{"collaborators", &models.ProjectCollaborator{}},
	}
	for _, step := range steps {
		if err := db.Where("project_id = ?", projectID).Delete(step.model).Error; err != nil {
			return fmt.Errorf("deleting project %s: %w", step.name, err)
		}
	}
	if err := db.Delete(&models.Project{}, projectID).Error; err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	s.invalidateFeeds(ctx)
	return nil
}

// invalidateFeeds drops the cached global feed after rows it may show are
// deleted.
func (s *ProjectService) invalidateFeeds(ctx context.Context) {
	s.cache.Invalidate(ctx, globalFeedKey)
}

func (s *ProjectService) scheduleSweep(projectID, requestedBy uint) {
	queue := GetTaskQueue()
	if queue == nil {
		return
	}
	task := &MaintenanceTask{Kind: TaskTypeProjectCascade, ProjectID: projectID, RequestedBy: requestedBy}
	if err := queue.Enqueue(task); err != nil {
		logger.Warn().Err(err).Uint("project_id", projectID).Msg("failed to enqueue cascade sweep")
	}
}

// AddCollaborator grants target write access. Owner only.
func (s *ProjectService) AddCollaborator(ctx context.Context, id uint, actor Caller, targetID uint) (*models.ProjectCollaborator, error) {
	project, err := s.requireOwner(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if targetID == project.OwnerID {
		return nil, response.NewBadRequest("the owner cannot be added as a collaborator")
	}

	var target models.User
	if err := s.db.WithContext(ctx).First(&target, targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("user not found")
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}

	isCollaborator, err := s.IsMember(ctx, project, targetID)
	if err != nil {
		return nil, err
	}
	if isCollaborator {
		return nil, response.NewConflict("user is already a collaborator")
	}

	collab := models.ProjectCollaborator{
		ProjectID: id,
		UserID:    targetID,
		User:      &target,
		AddedBy:   actor.UserID,
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&collab).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, response.NewConflict("user is already a collaborator")
		}
		return nil, fmt.Errorf("adding collaborator: %w", err)
	}
	return &collab, nil
}

// RemoveCollaborator revokes target's access. Removing a non-collaborator
// is a no-op.
func (s *ProjectService) RemoveCollaborator(ctx context.Context, id uint, actor Caller, targetID uint) error {
	if _, err := s.requireOwner(ctx, id, actor); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", id, targetID).
		Delete(&models.ProjectCollaborator{}).Error; err != nil {
		return fmt.Errorf("removing collaborator: %w", err)
	}
	return nil
}

func (s *ProjectService) ListCollaborators(ctx context.Context, id uint, viewer Caller) ([]*models.UserSummary, error) {
	if _, err := s.Visible(ctx, id, viewer); err != nil {
		return nil, err
	}

	var rows []models.ProjectCollaborator
	if err := s.db.WithContext(ctx).
		Preload("User").
		Where("project_id = ?", id).
		Order("created_at, id").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing collaborators: %w", err)
	}

	out := make([]*models.UserSummary, 0, len(rows))
	for _, r := range rows {
		if r.User != nil {
			out = append(out, r.User.Summary())
		}
	}
	return out, nil
}

// ListPublicProjects returns public projects newest first. A zero page size
// returns every match.
func (s *ProjectService) ListPublicProjects(ctx context.Context, req *ProjectListRequest) (*ProjectListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}

	var projects []models.Project
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Project{}).Where("is_public = ?", true)
	if req.Type != "" {
		query = query.Where("type = ?", req.Type)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting projects: %w", err)
	}

	query = query.Preload("Owner").Order("created_at DESC, id DESC")
	if req.PageSize > 0 {
		query = query.Offset((req.Page - 1) * req.PageSize).Limit(req.PageSize)
	}
	if err := query.Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	return &ProjectListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    projects,
	}, nil
}

// ListOwned returns every project ownerID owns, public or not.
func (s *ProjectService) ListOwned(ctx context.Context, ownerID uint) ([]models.Project, error) {
	var projects []models.Project
	if err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC, id DESC").
		Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("listing owned projects: %w", err)
	}
	return projects, nil
}

// DeleteOwnedOnAccountRemoval deletes each project owned by ownerID that has
// at most one collaborator. Projects with more collaborators survive with a
// dangling owner reference. It returns the number of projects removed.
func (s *ProjectService) DeleteOwnedOnAccountRemoval(ctx context.Context, ownerID uint) (int, error) {
	owned, err := s.ListOwned(ctx, ownerID)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, p := range owned {
		var collaborators int64
		if err := s.db.WithContext(ctx).Model(&models.ProjectCollaborator{}).
			Where("project_id = ?", p.ID).
			Count(&collaborators).Error; err != nil {
			return removed, fmt.Errorf("counting collaborators: %w", err)
		}
		if collaborators > 1 {
			logger.Info().Uint("project_id", p.ID).Int64("collaborators", collaborators).Msg("keeping shared project of removed account")
			continue
		}
		if err := s.purge(ctx, p.ID); err != nil {
			return removed, err
		}
		projectsDeletedTotal.WithLabelValues("account_removal").Inc()
		removed++
	}
	return removed, nil
}
