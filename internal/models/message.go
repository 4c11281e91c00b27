package models

import "time"

type MessageKind string

const (
	MessageCommit  MessageKind = "commit"
	MessageComment MessageKind = "comment"
	MessageSystem  MessageKind = "system"
	MessageChat    MessageKind = "chat"
)

// Message is a project-scoped annotation: a comment, chat line or system
// narration. Kind "commit" is an optional side channel; commit history
// itself lives in the commits table.
type Message struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	ProjectID uint        `gorm:"index;not null" json:"project_id"`
	Project   *Project    `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	AuthorID  uint        `gorm:"index;not null" json:"author_id"`
	Author    *User       `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Body      string      `gorm:"type:text;not null" json:"body"`
	Kind      MessageKind `gorm:"size:20;not null;index" json:"kind"`
	Timestamp time.Time   `gorm:"index;not null" json:"timestamp"`
	CommitID  *uint       `json:"commit_id,omitempty"`
	FileID    *uint       `json:"file_id,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

func (Message) TableName() string { return "messages" }
