package models

// GroupSubject assigns a subject to a group.
type GroupSubject struct {
	ID                int64        `json:"id"`
	IDGrupoAsignatura int64        `json:"idGrupoAsignatura"`
	IDGrupo           int64        `json:"idGrupo"`
	IDAsignatura      Ref[Subject] `json:"idAsignatura"`
}

// SubjectName returns the embedded subject name when present.
func (g GroupSubject) SubjectName() string {
	if g.IDAsignatura.Object == nil {
		return ""
	}
	return g.IDAsignatura.Object.Nombre
}
