package models

import (
	"fmt"
	"time"
)

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
	// FriendshipBlocked is reserved; no transition produces it yet.
	FriendshipBlocked FriendshipStatus = "blocked"
)

// Friendship is a directed request that becomes symmetric once accepted.
// PairKey holds "min:max" of the two user ids so that only one record can
// exist per unordered pair.
type Friendship struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	RequesterID uint             `gorm:"index;not null" json:"requester_id"`
	Requester   *User            `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	AddresseeID uint             `gorm:"index;not null" json:"addressee_id"`
	Addressee   *User            `gorm:"foreignKey:AddresseeID" json:"addressee,omitempty"`
	PairKey     string           `gorm:"uniqueIndex;size:64;not null" json:"-"`
	Status      FriendshipStatus `gorm:"size:20;not null;index" json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (Friendship) TableName() string { return "friendships" }

func FriendshipPairKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}
