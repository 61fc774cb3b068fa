package models

import "time"

// Contact is a single contact record submitted through the public form.
// Phone numbers are unique across the table.
type Contact struct {
	ID        string
	Name      string
	Phone     string
	SentAt    time.Time // when the contact submitted the form
	Notes     string    // free-form information about the contact
	CreatedAt time.Time
	UpdatedAt time.Time
}
