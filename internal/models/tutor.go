package models

// Tutor is a user with role tutor, optionally linked to one student.
type Tutor struct {
	User
	IDEstudiante int64 `json:"idEstudiante,omitempty"`
}
