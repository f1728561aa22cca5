package models

// Enrollment associates a student with a group. Its identity is the
// (IDEstudiante, IDGrupo) pair.
type Enrollment struct {
	IDEstudiante     int64  `json:"idEstudiante"`
	IDGrupo          int64  `json:"idGrupo"`
	Estudiante       *User  `json:"estudiante,omitempty"`
	Grupo            *Group `json:"grupo,omitempty"`
	FechaInscripcion string `json:"fechaInscripcion,omitempty"`
	Estado           string `json:"estado,omitempty"`
}

// IsActive reports whether the enrollment is the student's current one.
func (e Enrollment) IsActive() bool {
	return e.Estado == StatusActive
}

// GroupName returns the embedded group name when present.
func (e Enrollment) GroupName() string {
	if e.Grupo == nil {
		return ""
	}
	return e.Grupo.Nombre
}

// EnrollmentState classifies the outcome of creating an enrollment.
type EnrollmentState string

const (
	// EnrollmentCreated means no prior active enrollment had to be removed.
	EnrollmentCreated EnrollmentState = "Created"
	// EnrollmentTransferred means prior active enrollments in other groups were
	// removed and the new one was created.
	EnrollmentTransferred EnrollmentState = "Transferred"
	// EnrollmentPartiallyCompleted means prior enrollments were removed but the
	// new one could not be created; the student has no active group.
	EnrollmentPartiallyCompleted EnrollmentState = "PartiallyCompleted"
)

// EnrollmentOutcome reports both phases of an enrollment creation.
type EnrollmentOutcome struct {
	State      EnrollmentState `json:"state"`
	Enrollment *Enrollment     `json:"enrollment,omitempty"`
	Removed    []Enrollment    `json:"removed,omitempty"`
}

// EnrollmentRejection records a failed item of a bulk enrollment.
type EnrollmentRejection struct {
	IDEstudiante int64              `json:"idEstudiante"`
	Outcome      *EnrollmentOutcome `json:"outcome,omitempty"`
	Error        string             `json:"error"`
}

// BulkEnrollmentResult separates successes from failures.
type BulkEnrollmentResult struct {
	Fulfilled []EnrollmentOutcome   `json:"fulfilled"`
	Rejected  []EnrollmentRejection `json:"rejected"`
}
