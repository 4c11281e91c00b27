package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carlos-juma/branch.it-IMY220/internal/models"
	"github.com/carlos-juma/branch.it-IMY220/pkg/logger"
	"github.com/carlos-juma/branch.it-IMY220/pkg/response"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProjectActivityLimit caps the per-project commit history view.
const ProjectActivityLimit = 50

// VersionService stores project files and the commit log. Outside strict
// mode any signed-in user may write to any project and commit file lists are
// taken as given.
type VersionService struct {
	db       *gorm.DB
	projects *ProjectService
	strict   bool
}

func NewVersionService(db *gorm.DB, projects *ProjectService, strict bool) *VersionService {
	return &VersionService{db: db, projects: projects, strict: strict}
}

type UploadFileRequest struct {
	Filename string `json:"filename" binding:"required,max=255"`
	Path     string `json:"path" binding:"max=1000"`
	Content  string `json:"content"`
	FileType string `json:"fileType" binding:"max=100"`
}

type UpdateFileRequest struct {
	Content string  `json:"content"`
	Version *string `json:"version" binding:"omitempty,max=50"`
}

type CreateCommitRequest struct {
	Message        string `json:"message" binding:"required"`
	FilesChanged   []uint `json:"filesChanged"`
	Branch         string `json:"branch" binding:"max=200"`
	ParentCommitID *uint  `json:"parentCommit"`
}

// CommitDetail is a commit with its changed files resolved in list order.
type CommitDetail struct {
	models.Commit
	Files []models.File `json:"files"`
}

// NewCommitHash returns commit_<unix millis>_<16 hex chars>.
func NewCommitHash(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	return fmt.Sprintf("commit_%d_%s", now.UnixMilli(), suffix)
}

// writable loads the project and, in strict mode, requires membership.
func (s *VersionService) writable(ctx context.Context, projectID uint, actor Caller) (*models.Project, error) {
	if err := actor.requireUser(); err != nil {
		return nil, err
	}
	project, err := s.projects.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !s.strict {
		return project, nil
	}
	member, err := s.projects.IsMember(ctx, project, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, response.NewForbidden("only the owner or a collaborator can change this project")
	}
	return project, nil
}

func (s *VersionService) loadFile(ctx context.Context, projectID, fileID uint) (*models.File, error) {
	var file models.File
	err := s.db.WithContext(ctx).Preload("Author").First(&file, fileID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("file not found")
		}
		return nil, fmt.Errorf("loading file: %w", err)
	}
	if projectID != 0 && file.ProjectID != projectID {
		return nil, response.NewNotFound("file not found")
	}
	return &file, nil
}

// UploadFile adds a file at version 1.0. Names and paths need not be unique.
func (s *VersionService) UploadFile(ctx context.Context, projectID uint, author Caller, req *UploadFileRequest) (*models.File, error) {
	if _, err := s.writable(ctx, projectID, author); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Filename) == "" {
		return nil, response.NewBadRequest("filename is required")
	}

	path := req.Path
	if path == "" {
		path = "/"
	}

	file := models.File{
		ProjectID: projectID,
		Filename:  req.Filename,
		Path:      path,
		Content:   req.Content,
		Version:   models.DefaultFileVersion,
		AuthorID:  author.UserID,
		Size:      int64(len(req.Content)),
		FileType:  req.FileType,
	}
	if err := s.db.WithContext(ctx).Create(&file).Error; err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}

	filesWrittenTotal.WithLabelValues("upload").Inc()
	return s.loadFile(ctx, projectID, file.ID)
}

// UpdateFile overwrites the content in place and credits the actor as
// author. The version only changes when one is supplied.
func (s *VersionService) UpdateFile(ctx context.Context, projectID, fileID uint, actor Caller, req *UpdateFileRequest) (*models.File, error) {
	if _, err := s.writable(ctx, projectID, actor); err != nil {
		return nil, err
	}
	file, err := s.loadFile(ctx, projectID, fileID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"content":   req.Content,
		"size":      int64(len(req.Content)),
		"author_id": actor.UserID,
	}
	if req.Version != nil && *req.Version != "" {
		updates["version"] = *req.Version
	}

	if err := s.db.WithContext(ctx).Model(&models.File{ID: file.ID}).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("updating file: %w", err)
	}

	filesWrittenTotal.WithLabelValues("update").Inc()
	return s.loadFile(ctx, projectID, fileID)
}

// DeleteFile hard-deletes a file. Commits that list it keep the dangling id.
func (s *VersionService) DeleteFile(ctx context.Context, projectID, fileID uint, actor Caller) error {
	if _, err := s.writable(ctx, projectID, actor); err != nil {
		return err
	}
	if _, err := s.loadFile(ctx, projectID, fileID); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&models.File{}, fileID).Error; err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}

	filesWrittenTotal.WithLabelValues("delete").Inc()
	return nil
}

func (s *VersionService) GetFile(ctx context.Context, projectID, fileID uint, viewer Caller) (*models.File, error) {
	if _, err := s.projects.Visible(ctx, projectID, viewer); err != nil {
		return nil, err
	}
	return s.loadFile(ctx, projectID, fileID)
}

// ListFiles returns the project's files newest first.
func (s *VersionService) ListFiles(ctx context.Context, projectID uint, viewer Caller) ([]models.File, error) {
	if _, err := s.projects.Visible(ctx, projectID, viewer); err != nil {
		return nil, err
	}

	var files []models.File
	if err := s.db.WithContext(ctx).
		Preload("Author").
		Where("project_id = ?", projectID).
		Order("created_at DESC, id DESC").
		Find(&files).Error; err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	return files, nil
}

// CreateCommit appends a commit. The parent id is recorded as given.
func (s *VersionService) CreateCommit(ctx context.Context, projectID uint, author Caller, req *CreateCommitRequest) (*models.Commit, error) {
	project, err := s.writable(ctx, projectID, author)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, response.NewBadRequest("commit message is required")
	}

	filesChanged := req.FilesChanged
	if filesChanged == nil {
		filesChanged = []uint{}
	}
	if s.strict && len(filesChanged) > 0 {
		if err := s.checkFilesBelong(ctx, projectID, filesChanged); err != nil {
			return nil, err
		}
	}

	branch := strings.TrimSpace(req.Branch)
	if branch == "" {
		branch = models.DefaultBranch
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	commit := models.Commit{
		ProjectID:      projectID,
		AuthorID:       author.UserID,
		Message:        req.Message,
		Timestamp:      now,
		FilesChanged:   filesChanged,
		ParentCommitID: req.ParentCommitID,
		Branch:         branch,
		Hash:           NewCommitHash(now),
	}
	if err := s.db.WithContext(ctx).Create(&commit).Error; err != nil {
		return nil, fmt.Errorf("creating commit: %w", err)
	}

	commitsCreatedTotal.Inc()
	logger.Info().Uint("project_id", projectID).Uint("commit_id", commit.ID).Str("branch", branch).Msg("commit recorded")

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, author.UserID).Error; err == nil {
		commit.Author = &user
	}
	commit.Project = project
	return &commit, nil
}

func (s *VersionService) checkFilesBelong(ctx context.Context, projectID uint, ids []uint) error {
	unique := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.File{}).
		Where("project_id = ? AND id IN ?", projectID, ids).
		Count(&count).Error; err != nil {
		return fmt.Errorf("checking changed files: %w", err)
	}
	if int(count) != len(unique) {
		return response.NewBadRequest("filesChanged references files outside this project")
	}
	return nil
}

// ListCommits returns the project's commits newest first.
func (s *VersionService) ListCommits(ctx context.Context, projectID uint, viewer Caller) ([]models.Commit, error) {
	return s.recentCommits(ctx, projectID, viewer, 0)
}

// ProjectActivity is the newest slice of a project's commit log.
func (s *VersionService) ProjectActivity(ctx context.Context, projectID uint, viewer Caller) ([]models.Commit, error) {
	return s.recentCommits(ctx, projectID, viewer, ProjectActivityLimit)
}

func (s *VersionService) recentCommits(ctx context.Context, projectID uint, viewer Caller, limit int) ([]models.Commit, error) {
	if _, err := s.projects.Visible(ctx, projectID, viewer); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).
		Preload("Author").
		Where("project_id = ?", projectID).
		Order("timestamp DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var commits []models.Commit
	if err := query.Find(&commits).Error; err != nil {
		return nil, fmt.Errorf("listing commits: %w", err)
	}
	return commits, nil
}

// GetCommit resolves the author and the changed files. Files deleted since
// the commit are skipped.
func (s *VersionService) GetCommit(ctx context.Context, projectID, commitID uint, viewer Caller) (*CommitDetail, error) {
	if _, err := s.projects.Visible(ctx, projectID, viewer); err != nil {
		return nil, err
	}

	var commit models.Commit
	if err := s.db.WithContext(ctx).Preload("Author").First(&commit, commitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("commit not found")
		}
		return nil, fmt.Errorf("loading commit: %w", err)
	}
	if commit.ProjectID != projectID {
		return nil, response.NewNotFound("commit not found")
	}

	detail := &CommitDetail{Commit: commit, Files: []models.File{}}
	if len(commit.FilesChanged) == 0 {
		return detail, nil
	}

	var files []models.File
	if err := s.db.WithContext(ctx).Where("id IN ?", commit.FilesChanged).Find(&files).Error; err != nil {
		return nil, fmt.Errorf("loading changed files: %w", err)
	}
	byID := make(map[uint]models.File, len(files))
	for _, f := range files {
		byID[f.ID] = f
	}
	for _, id := range commit.FilesChanged {
		if f, ok := byID[id]; ok {
			detail.Files = append(detail.Files, f)
		}
	}
	return detail, nil
}
