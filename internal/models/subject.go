package models

// Subject is a course taught to groups.
type Subject struct {
	ID           int64  `json:"id"`
	IDAsignatura int64  `json:"idAsignatura"`
	Nombre       string `json:"nombre"`
}
