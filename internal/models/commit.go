package models

import "time"

const DefaultBranch = "main"

// Commit is an append-only record. It is never updated and is removed only
// when its project is deleted.
type Commit struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ProjectID      uint      `gorm:"index;not null" json:"project_id"`
	Project        *Project  `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	AuthorID       uint      `gorm:"index;not null" json:"author_id"`
	Author         *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Message        string    `gorm:"type:text;not null" json:"message"`
	Timestamp      time.Time `gorm:"index;not null" json:"timestamp"`
	FilesChanged   []uint    `gorm:"serializer:json;type:text" json:"files_changed"`
	ParentCommitID *uint     `json:"parent_commit_id,omitempty"`
	Branch         string    `gorm:"size:200;not null;default:main" json:"branch"`
	Hash           string    `gorm:"uniqueIndex;size:64;not null" json:"hash"`
	CreatedAt      time.Time `json:"created_at"`
}

func (Commit) TableName() string { return "commits" }
