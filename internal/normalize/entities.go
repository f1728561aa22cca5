package normalize

import (
	"encoding/json"
	"strings"

	"github.com/noah-isme/sicali-client/internal/models"
)

// User sets id from id_usuario and trims the name fields. The login name and
// password are kept byte for byte.
func User(raw json.RawMessage) (*models.User, error) {
	rec, err := parse(raw)
	if rec == nil || err != nil {
		return nil, err
	}
	return userFrom(rec)
}

func userFrom(rec record) (*models.User, error) {
	r := newReader("user", rec)
	id := r.id("id_usuario", "id")
	u := &models.User{
		ID:        id,
		IDUsuario: id,
		Nombre:    r.str("nombre"),
		ApeP:      r.str("ape_p"),
		ApeM:      r.str("ape_m"),
		Curp:      r.str("curp"),
		Rfc:       r.str("rfc"),
		Sexo:      r.str("sexo"),
		Usuario:   r.text("usuario"),
		Password:  r.text("password"),
		Rol:       r.str("rol"),
		Estado:    r.str("estado"),
	}
	if r.err != nil {
		return nil, r.err
	}
	return u, nil
}

// Tutor is User plus the optional student association.
func Tutor(raw json.RawMessage) (*models.Tutor, error) {
	rec, err := parse(raw)
	if rec == nil || err != nil {
		return nil, err
	}
	u, err := userFrom(rec)
	if err != nil {
		return nil, err
	}
	r := newReader("tutor", rec)
	t := &models.Tutor{User: *u, IDEstudiante: r.id("idEstudiante")}
	if student := r.obj("estudiante"); student != nil && t.IDEstudiante == 0 {
		t.IDEstudiante = newReader("tutor", student).id("id_usuario", "id")
	}
	if r.err != nil {
		return nil, r.err
	}
	return t, nil
}

// Cycle sets id from idCiclo.
func Cycle(raw json.RawMessage) (*models.Cycle, error) {
	rec, err := parse(raw)
	if rec == nil || err != nil {
		return nil, err
	}
	r := newReader("cycle", rec)
	id := r.id("idCiclo", "id")
	c := &models.Cycle{
		ID:          id,
		IDCiclo:     id,
		Nombre:      r.str("nombre"),
		FechaInicio: r.str("fechaInicio", "fecha_inicio"),
		FechaFin:    r.str("fechaFin", "fecha_fin"),
	}
	if r.err != nil {
		return nil, r.err
	}
	return c, nil
}

// Subject sets id from idAsignatura.
func Subject(raw json.RawMessage) (*models.Subject, error) {
	rec, err := parse(raw)
	if rec == nil || err != nil {
		return nil, err
	}
	return subjectFrom(rec)
}

func subjectFrom(rec record) (*models.Subject, error) {
	r := newReader("subject", rec)
	id := r.id("idAsignatura", "id")
	s := &models.Subject{ID: id, IDAsignatura: id, Nombre: r.str("nombre")}
	if r.err != nil {
		return nil, r.err
	}
	return s, nil
}

// Group flattens idPeriodo to its id and keeps idDocente in the shape it arrived.
func Group(raw json.RawMessage) (*models.Group, error) {
	rec, err := parse(raw)
	if rec == nil || err != nil {
		return nil, err
	}
	return groupFrom(rec)
}

func groupFrom(rec record) (*models.Group, error) {
	r := newReader("group", rec)
	id := r.id("idGrupo", "id")
	g := &models.Group{
		ID:      id,
		IDGrupo: id,
		Nombre:  r.str("nombre"),
		Grado:   r.int("grado"),
	}

	if period := r.obj("idPeriodo"); period != nil {
		g.IDPeriodo = newReader("group period", period).id("idPeriodo", "idCiclo", "id")
	} else {
		g.IDPeriodo = r.id("idPeriodo")
	}

	if teacher := r.obj("idDocente"); teacher != nil {
		u, err := userFrom(teacher)
		if err != nil {
			return nil, err
		}
		g.IDDocente = models.Ref[models.User]{ID: u.ID, Object: u}
	} else {
		g.IDDocente = models.IDRef[models.User](r.id("idDocente"))
	}

	if r.err != nil {
		return nil, r.err
	}
	return g, nil
}

// GroupSubject flattens idGrupo and keeps idAsignatura in the shape it arrived.
func GroupSubject(raw json.RawMessage) (*models.GroupSubject, error) {
	rec, err := parse(raw)
	if rec == nil || err != nil {
		return nil, err
	}
	r := newReader("group subject", rec)
	id := r.id("idGrupoAsignatura", "id")
	gs := &models.GroupSubject{ID: id, IDGrupoAsignatura: id}

	if group := r.obj("idGrupo"); group != nil {
		gs.IDGrupo = newReader("group subject group", group).id("idGrupo", "id")
	} else {
		gs.IDGrupo = r.id("idGrupo")
	}

	if subject := r.obj("idAsignatura"); subject != nil {
		s, err := subjectFrom(subject)
		if err != nil {
			return nil, err
		}
		gs.IDAsignatura = models.Ref[models.Subject]{ID: s.ID, Object: s}
	} else {
		gs.IDAsignatura = models.IDRef[models.Subject](r.id("idAsignatura"))
	}

	if r.err != nil {
		return nil, r.err
	}
	return gs, nil
}

// Enrollment normalizes the embedded student and group and lifts their ids to
// idEstudiante and idGrupo.
func Enrollment(raw json.RawMessage) (*models.Enrollment, error) {
	rec, err := parse(raw)
	if rec == nil || err != nil {
		return nil, err
	}
	r := newReader("enrollment", rec)
	e := &models.Enrollment{
		IDEstudiante:     r.id("idEstudiante"),
		IDGrupo:          r.id("idGrupo"),
		FechaInscripcion: r.str("fechaInscripcion"),
		Estado:           r.str("estado"),
	}
	if r.err != nil {
		return nil, r.err
	}

	if student := r.obj("estudiante"); student != nil {
		if e.Estudiante, err = userFrom(student); err != nil {
			return nil, err
		}
		if e.IDEstudiante == 0 {
			e.IDEstudiante = e.Estudiante.ID
		}
	}
	if group := r.obj("grupo"); group != nil {
		if e.Grupo, err = groupFrom(group); err != nil {
			return nil, err
		}
		if e.IDGrupo == 0 {
			e.IDGrupo = e.Grupo.ID
		}
	}
	return e, nil
}

// Attendance flattens idEstudiante and idGrupo when they arrive embedded and
// keeps the embedded records under estudiante and grupo.
func Attendance(raw json.RawMessage) (*models.Attendance, error) {
	rec, err := parse(raw)
	if rec == nil || err != nil {
		return nil, err
	}
	r := newReader("attendance", rec)
	id := r.id("idAsistencia", "id")
	a := &models.Attendance{
		ID:           id,
		IDAsistencia: id,
		Fecha:        r.str("fecha"),
		Estado:       r.str("estado"),
	}

	student := r.obj("idEstudiante")
	if student != nil {
		a.IDEstudiante = newReader("attendance student", student).id("id_usuario", "id")
	} else {
		a.IDEstudiante = r.id("idEstudiante")
		student = r.obj("estudiante")
	}
	group := r.obj("idGrupo")
	if group != nil {
		a.IDGrupo = newReader("attendance group", group).id("idGrupo", "id")
	} else {
		a.IDGrupo = r.id("idGrupo")
		group = r.obj("grupo")
	}
	if r.err != nil {
		return nil, r.err
	}

	if student != nil {
		if a.Estudiante, err = userFrom(student); err != nil {
			return nil, err
		}
	}
	if group != nil {
		if a.Grupo, err = groupFrom(group); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Grade lifts the ids of embedded student, group and subject and flattens their
// names into nombreEstudiante, apellidosEstudiante, nombreGrupo and nombreAsignatura.
func Grade(raw json.RawMessage) (*models.Grade, error) {
	rec, err := parse(raw)
	if rec == nil || err != nil {
		return nil, err
	}
	r := newReader("grade", rec)
	id := r.id("idCalificacion", "id")
	g := &models.Grade{
		ID:                  id,
		IDCalificacion:      id,
		IDEstudiante:        r.id("idEstudiante"),
		IDGrupo:             r.id("idGrupo"),
		IDAsignatura:        r.id("idAsignatura"),
		Calificacion1:       r.float("calificacion1"),
		Calificacion2:       r.float("calificacion2"),
		Calificacion3:       r.float("calificacion3"),
		Calificacion4:       r.float("calificacion4"),
		Promedio:            r.float("promedio"),
		NombreEstudiante:    r.str("nombreEstudiante"),
		ApellidosEstudiante: r.str("apellidosEstudiante"),
		NombreGrupo:         r.str("nombreGrupo"),
		NombreAsignatura:    r.str("nombreAsignatura"),
	}

	if student := r.obj("estudiante"); student != nil {
		sr := newReader("grade student", student)
		if g.IDEstudiante == 0 {
			g.IDEstudiante = sr.id("id_usuario", "id")
		}
		if name := sr.str("nombre"); name != "" {
			g.NombreEstudiante = name
		}
		surnames := sr.str("apellidos")
		if surnames == "" {
			surnames = strings.TrimSpace(sr.str("ape_p") + " " + sr.str("ape_m"))
		}
		if surnames != "" {
			g.ApellidosEstudiante = surnames
		}
		if sr.err != nil {
			return nil, sr.err
		}
	}
	if group := r.obj("grupo"); group != nil {
		gr := newReader("grade group", group)
		if g.IDGrupo == 0 {
			g.IDGrupo = gr.id("idGrupo", "id")
		}
		if name := gr.str("nombre"); name != "" {
			g.NombreGrupo = name
		}
		if gr.err != nil {
			return nil, gr.err
		}
	}
	if subject := r.obj("asignatura"); subject != nil {
		ar := newReader("grade subject", subject)
		if g.IDAsignatura == 0 {
			g.IDAsignatura = ar.id("idAsignatura", "id")
		}
		if name := ar.str("nombre"); name != "" {
			g.NombreAsignatura = name
		}
		if ar.err != nil {
			return nil, ar.err
		}
	}

	if r.err != nil {
		return nil, r.err
	}
	return g, nil
}
