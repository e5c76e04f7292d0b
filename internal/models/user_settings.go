package models

import "time"

// UserSettings holds preferences a user set explicitly.
type UserSettings struct {
	UserID int64 `json:"user_id"`
	// Timezone is an IANA name, empty when the user never chose one.
	Timezone  string    `json:"timezone"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Zone returns the chosen timezone, or "" when s is nil.
func (s *UserSettings) Zone() string {
	if s == nil {
		return ""
	}
	return s.Timezone
}
