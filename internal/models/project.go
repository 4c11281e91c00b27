package models

import "time"

type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectArchived  ProjectStatus = "archived"
	ProjectCompleted ProjectStatus = "completed"
)

const DefaultProjectVersion = "1.0.0"

// Project is owned by exactly one user and exclusively owns its files,
// commits, branches and messages.
type Project struct {
	ID            uint                  `gorm:"primaryKey" json:"id"`
	Name          string                `gorm:"size:200;not null" json:"name"`
	Description   string                `gorm:"type:text" json:"description"`
	Type          string                `gorm:"size:100;index" json:"type"`
	Version       string                `gorm:"size:50" json:"version"`
	OwnerID       uint                  `gorm:"index;not null" json:"owner_id"`
	Owner         *User                 `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	IsPublic      bool                  `gorm:"index" json:"is_public"`
	Tags          []string              `gorm:"serializer:json;type:text" json:"tags"`
	Status        ProjectStatus         `gorm:"size:20;not null" json:"status"`
	Collaborators []ProjectCollaborator `gorm:"foreignKey:ProjectID" json:"collaborators,omitempty"`
	CreatedAt     time.Time             `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

func (Project) TableName() string { return "projects" }

// ProjectSummary is the projection embedded in feed envelopes.
type ProjectSummary struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

func (p *Project) Summary() *ProjectSummary {
	if p == nil {
		return nil
	}
	return &ProjectSummary{ID: p.ID, Name: p.Name, Description: p.Description, Type: p.Type}
}

// ProjectCollaborator grants a user write capability on a project without
// ownership. The owner is never stored here.
type ProjectCollaborator struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"uniqueIndex:idx_project_user;not null" json:"project_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_project_user;index;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	AddedBy   uint      `json:"added_by"`
	CreatedAt time.Time `json:"created_at"`
}

func (ProjectCollaborator) TableName() string { return "project_collaborators" }
