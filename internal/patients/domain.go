package patients

import "time"

// Patient model.
type Patient struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	BirthDate  time.Time  `json:"birth_date"`
	Contact    string     `json:"contact,omitempty"`
	Address    string     `json:"address,omitempty"`
	Archived   bool       `json:"archived"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
	ArchivedBy string     `json:"archived_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// CreatePatientInput for registering patients.
type CreatePatientInput struct {
	Name      string    `json:"name" validate:"required"`
	BirthDate time.Time `json:"birth_date"`
	Contact   string    `json:"contact"`
	Address   string    `json:"address"`
}
