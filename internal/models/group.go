package models

// Group is a class section tied to a period and a teacher.
// The period is always flattened to its id; the teacher keeps whichever shape
// the backend sent.
type Group struct {
	ID        int64     `json:"id"`
	IDGrupo   int64     `json:"idGrupo"`
	Nombre    string    `json:"nombre"`
	Grado     int       `json:"grado"`
	IDPeriodo int64     `json:"idPeriodo,omitempty"`
	IDDocente Ref[User] `json:"idDocente"`
}

// TeacherID returns the teacher id regardless of reference shape.
func (g Group) TeacherID() int64 {
	return g.IDDocente.ID
}
