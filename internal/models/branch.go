package models

import "time"

type BranchStatus string

const (
	BranchActive  BranchStatus = "active"
	BranchMerged  BranchStatus = "merged"
	BranchDeleted BranchStatus = "deleted"
)

// Branch is modelled for completeness. Commits carry the branch name as a
// plain string and nothing advances LastCommitID yet.
type Branch struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	ProjectID    uint         `gorm:"uniqueIndex:idx_project_branch;not null" json:"project_id"`
	Name         string       `gorm:"uniqueIndex:idx_project_branch;size:200;not null" json:"name"`
	CreatorID    uint         `json:"creator_id"`
	IsDefault    bool         `json:"is_default"`
	LastCommitID *uint        `json:"last_commit_id,omitempty"`
	Status       BranchStatus `gorm:"size:20;not null" json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (Branch) TableName() string { return "branches" }
