package models

import "time"

// Manager is an operator account allowed to read and manage contact records.
// Managers are provisioned out-of-band; this service never creates or deletes
// them through its public API.
type Manager struct {
	ID           string
	Login        string
	PasswordHash string
	CreatedAt    time.Time
}
