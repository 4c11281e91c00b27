package models

import "time"

const DefaultFileVersion = "1.0"

// File is a mutable document inside a project. Updates overwrite content in
// place; no prior revision is kept.
type File struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"index;not null" json:"project_id"`
	Filename  string    `gorm:"size:255;not null" json:"filename"`
	Path      string    `gorm:"size:1000;not null" json:"path"`
	Content   string    `gorm:"type:text" json:"content"`
	Version   string    `gorm:"size:50" json:"version"`
	AuthorID  uint      `gorm:"index;not null" json:"author_id"`
	Author    *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	CommitID  *uint     `json:"commit_id,omitempty"`
	Size      int64     `json:"size"`
	FileType  string    `gorm:"size:100" json:"file_type"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (File) TableName() string { return "files" }
