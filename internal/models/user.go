package models

import "time"

type Privacy string

const (
	PrivacyPublic  Privacy = "public"
	PrivacyPrivate Privacy = "private"
)

// UserSettings is stored inline on the users table.
type UserSettings struct {
	Notifications bool    `gorm:"column:notifications" json:"notifications"`
	Privacy       Privacy `gorm:"column:privacy;size:20" json:"privacy"`
}

// User is a registered account. Email is stored lower-cased so the unique
// index doubles as a case-insensitive constraint.
type User struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"size:100;not null" json:"name"`
	Email     string       `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password  string       `gorm:"size:255;not null" json:"-"`
	Bio       string       `gorm:"size:500" json:"bio"`
	Avatar    string       `gorm:"size:500" json:"avatar"`
	Settings  UserSettings `gorm:"embedded;embeddedPrefix:settings_" json:"settings"`
	Role      string       `gorm:"size:50;default:user" json:"role"` // admin, user
	LastLogin *time.Time   `json:"last_login,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// UserSummary is the projection embedded in feeds, commits and friend lists.
type UserSummary struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Avatar: u.Avatar}
}

// UserFriend is one direction of an accepted friendship. Acceptance writes
// both (a,b) and (b,a); unfriend removes both.
type UserFriend struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	FriendID  uint      `gorm:"primaryKey;autoIncrement:false;index" json:"friend_id"`
	Friend    *User     `gorm:"foreignKey:FriendID" json:"friend,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (UserFriend) TableName() string { return "user_friends" }
