package api

import "github.com/google/uuid"

// NewUserID generates a random (version 4) user ID.
func NewUserID() string {
	return uuid.NewString()
}

// ValidateUserID checks whether id is a well-formed UUID.
func ValidateUserID(id string) bool {
	return uuid.Validate(id) == nil
}
