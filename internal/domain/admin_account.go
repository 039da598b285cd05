package domain

import "time"

// AdminAccount is an administrator login, kept apart from roster data.
type AdminAccount struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
