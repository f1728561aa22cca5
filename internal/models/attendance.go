package models

// Attendance statuses accepted by the backend.
const (
	AttendancePresent = "Asistencia"
	AttendanceAbsent  = "Falta"
	AttendanceExcused = "Permiso"
)

// AttendanceStatuses lists the valid statuses.
var AttendanceStatuses = []string{AttendancePresent, AttendanceAbsent, AttendanceExcused}

// Attendance is one student's status in a group on a date. When the backend
// embeds the student or group, the ids are flattened and the records kept aside.
type Attendance struct {
	ID           int64  `json:"id"`
	IDAsistencia int64  `json:"idAsistencia"`
	IDEstudiante int64  `json:"idEstudiante"`
	IDGrupo      int64  `json:"idGrupo"`
	Fecha        string `json:"fecha"`
	Estado       string `json:"estado"`
	Estudiante   *User  `json:"estudiante,omitempty"`
	Grupo        *Group `json:"grupo,omitempty"`
}

// AttendanceStats summarises a list of attendance records.
type AttendanceStats struct {
	Total       int     `json:"total"`
	Asistencias int     `json:"asistencias"`
	Faltas      int     `json:"faltas"`
	Permisos    int     `json:"permisos"`
	Porcentaje  float64 `json:"porcentajeAsistencia"`
}
