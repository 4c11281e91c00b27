package services

import (
	"github.com/carlos-juma/branch.it-IMY220/pkg/response"
)

// Caller is the verified identity on whose behalf an operation runs.
// The zero value is an anonymous viewer.
type Caller struct {
	UserID uint
	Role   string
}

func Anonymous() Caller { return Caller{} }

func (c Caller) IsAnonymous() bool { return c.UserID == 0 }

func (c Caller) Is(userID uint) bool { return c.UserID != 0 && c.UserID == userID }

func (c Caller) IsAdmin() bool { return c.UserID != 0 && c.Role == "admin" }

// requireUser rejects anonymous callers for operations that need an actor.
func (c Caller) requireUser() error {
	if c.IsAnonymous() {
		return response.NewUnauthorized("authentication required")
	}
	return nil
}
