package cli

import (
	"strconv"
	"strings"

	"github.com/noah-isme/sicali-client/internal/models"
)

func itoa(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func fullName(parts ...string) string {
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func score(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func cycleTable(items ...models.Cycle) *Table {
	t := &Table{Headers: []string{"ID", "NOMBRE", "INICIO", "FIN"}}
	for _, c := range items {
		t.Rows = append(t.Rows, []string{itoa(c.ID), c.Nombre, c.FechaInicio, c.FechaFin})
	}
	return t
}

func userTable(items ...models.User) *Table {
	t := &Table{Headers: []string{"ID", "USUARIO", "NOMBRE", "ROL", "CURP", "ESTADO"}}
	for _, u := range items {
		t.Rows = append(t.Rows, []string{itoa(u.ID), u.Usuario, u.FullName(), u.Rol, u.Curp, u.Estado})
	}
	return t
}

func tutorTable(items ...models.Tutor) *Table {
	t := &Table{Headers: []string{"ID", "USUARIO", "NOMBRE", "ESTUDIANTE", "ESTADO"}}
	for _, u := range items {
		t.Rows = append(t.Rows, []string{itoa(u.ID), u.Usuario, u.FullName(), itoa(u.IDEstudiante), u.Estado})
	}
	return t
}

func groupTable(items ...models.Group) *Table {
	t := &Table{Headers: []string{"ID", "NOMBRE", "GRADO", "PERIODO", "DOCENTE"}}
	for _, g := range items {
		t.Rows = append(t.Rows, []string{itoa(g.ID), g.Nombre, strconv.Itoa(g.Grado), itoa(g.IDPeriodo), itoa(g.TeacherID())})
	}
	return t
}

func subjectTable(items ...models.Subject) *Table {
	t := &Table{Headers: []string{"ID", "NOMBRE"}}
	for _, s := range items {
		t.Rows = append(t.Rows, []string{itoa(s.ID), s.Nombre})
	}
	return t
}

func groupSubjectTable(items ...models.GroupSubject) *Table {
	t := &Table{Headers: []string{"ID", "GRUPO", "ASIGNATURA", "NOMBRE"}}
	for _, gs := range items {
		t.Rows = append(t.Rows, []string{itoa(gs.ID), itoa(gs.IDGrupo), itoa(gs.IDAsignatura.ID), gs.SubjectName()})
	}
	return t
}

func enrollmentTable(items ...models.Enrollment) *Table {
	t := &Table{Headers: []string{"ESTUDIANTE", "GRUPO", "NOMBRE GRUPO", "FECHA", "ESTADO"}}
	for _, e := range items {
		t.Rows = append(t.Rows, []string{itoa(e.IDEstudiante), itoa(e.IDGrupo), e.GroupName(), e.FechaInscripcion, e.Estado})
	}
	return t
}

func attendanceTable(items ...models.Attendance) *Table {
	t := &Table{Headers: []string{"ID", "ESTUDIANTE", "GRUPO", "FECHA", "ESTADO"}}
	for _, a := range items {
		t.Rows = append(t.Rows, []string{itoa(a.ID), itoa(a.IDEstudiante), itoa(a.IDGrupo), a.Fecha, a.Estado})
	}
	return t
}

func gradeTable(items ...models.Grade) *Table {
	t := &Table{Headers: []string{"ID", "ESTUDIANTE", "GRUPO", "ASIGNATURA", "P1", "P2", "P3", "P4", "PROMEDIO"}}
	for _, g := range items {
		subject := g.NombreAsignatura
		if subject == "" {
			subject = itoa(g.IDAsignatura)
		}
		t.Rows = append(t.Rows, []string{
			itoa(g.ID), itoa(g.IDEstudiante), itoa(g.IDGrupo), subject,
			score(g.Calificacion1), score(g.Calificacion2), score(g.Calificacion3), score(g.Calificacion4),
			score(g.Promedio),
		})
	}
	return t
}

func deref[T any](items []*T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if item != nil {
			out = append(out, *item)
		}
	}
	return out
}

func deleted(ok bool) map[string]bool {
	return map[string]bool{"deleted": ok}
}

func boolText(v bool) string {
	if v {
		return "si"
	}
	return "no"
}

func joinLines(items []string) string {
	return strings.Join(items, "; ")
}

// bulkFailure reports err, attaching whatever a bulk operation created first.
func bulkFailure[T any](out *OutputFormatter, err error, created []*T, table *Table) error {
	done := deref(created)
	if len(done) == 0 {
		return err
	}
	return out.ErrorWithDetails(err, done, table)
}
