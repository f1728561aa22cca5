package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sicali-client/internal/models"
	appErrors "github.com/noah-isme/sicali-client/pkg/errors"
	"github.com/noah-isme/sicali-client/pkg/metrics"
)

func enrollIn(student, group int64) EnrollmentInput {
	return EnrollmentInput{IDEstudiante: student, IDGrupo: group, FechaInscripcion: "2024-08-20", Estado: models.StatusActive}
}

func TestEnrollmentServiceCreateChecksInOrder(t *testing.T) {
	svc := NewEnrollmentService(newMockTransport(), nil, nil, nil, 2)

	cases := []struct {
		in   EnrollmentInput
		want string
	}{
		{EnrollmentInput{IDGrupo: 1, FechaInscripcion: "2024-08-20", Estado: "Activo"}, "ID de estudiante inválido"},
		{EnrollmentInput{IDEstudiante: 7, FechaInscripcion: "2024-08-20", Estado: "Activo"}, "ID de grupo inválido"},
		{EnrollmentInput{IDEstudiante: 7, IDGrupo: 1, Estado: "Activo"}, "Fecha de inscripción requerida"},
		{EnrollmentInput{IDEstudiante: 7, IDGrupo: 1, FechaInscripcion: "2024-08-20"}, "Estado requerido"},
		{EnrollmentInput{IDEstudiante: 7, IDGrupo: 1, FechaInscripcion: "2024-08-20", Estado: "Baja"}, "El estado debe ser Activo o Inactivo"},
	}
	for _, tc := range cases {
		_, err := svc.Create(context.Background(), tc.in)
		require.Error(t, err)
		assert.Equal(t, tc.want, err.Error())
		assert.Equal(t, appErrors.ErrValidation.Code, errCode(err))
	}
}

func TestEnrollmentServiceCreateFirstEnrollment(t *testing.T) {
	client := newMockTransport().
		on(http.MethodGet, "/estudiante-grupos/estudiante/7", http.StatusOK, `[]`).
		on(http.MethodPost, "/estudiante-grupos", http.StatusNoContent, "")
	svc := NewEnrollmentService(client, nil, nil, nil, 2)

	out, err := svc.Create(context.Background(), enrollIn(7, 5))
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentCreated, out.State)
	require.NotNil(t, out.Enrollment)
	assert.Equal(t, int64(5), out.Enrollment.IDGrupo)
	assert.Empty(t, out.Removed)

	calls := client.callsTo(http.MethodPost, "/estudiante-grupos")
	require.Len(t, calls, 1)
	body := sentBody(t, calls[0])
	assert.Equal(t, map[string]any{"id_usuario": float64(7)}, body["estudiante"])
	assert.Equal(t, map[string]any{"idGrupo": float64(5)}, body["grupo"])
	assert.Equal(t, "Activo", body["estado"])
}

func TestEnrollmentServiceCreateTransfers(t *testing.T) {
	client := newMockTransport().
		on(http.MethodGet, "/estudiante-grupos/estudiante/7", http.StatusOK,
			`[{"idEstudiante":7,"idGrupo":1,"estado":"Activo"},{"idEstudiante":7,"idGrupo":2,"estado":"Inactivo"}]`).
		on(http.MethodDelete, "/estudiante-grupos/7/1", http.StatusNoContent, "").
		on(http.MethodPost, "/estudiante-grupos", http.StatusCreated,
			`{"estudiante":{"id_usuario":7},"grupo":{"idGrupo":5,"nombre":"2B"},"fechaInscripcion":"2024-08-20","estado":"Activo"}`)
	svc := NewEnrollmentService(client, nil, nil, nil, 2)

	out, err := svc.Create(context.Background(), enrollIn(7, 5))
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentTransferred, out.State)
	require.Len(t, out.Removed, 1)
	assert.Equal(t, int64(1), out.Removed[0].IDGrupo)
	assert.Equal(t, int64(5), out.Enrollment.IDGrupo)
	assert.Equal(t, "2B", out.Enrollment.GroupName())
	assert.Empty(t, client.callsTo(http.MethodDelete, "/estudiante-grupos/7/2"))
}

func TestEnrollmentServiceCreateDuplicateIsConflict(t *testing.T) {
	client := newMockTransport().
		on(http.MethodGet, "/estudiante-grupos/estudiante/7", http.StatusOK,
			`[{"idEstudiante":7,"grupo":{"idGrupo":5,"nombre":"1A"},"estado":"Activo"}]`)
	svc := NewEnrollmentService(client, nil, nil, nil, 2)

	_, err := svc.Create(context.Background(), enrollIn(7, 5))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, errCode(err))
	assert.Equal(t, "El estudiante ya está inscrito en el grupo 1A", err.Error())
	assert.Zero(t, client.count(http.MethodDelete))
	assert.Zero(t, client.count(http.MethodPost))
}

func TestEnrollmentServiceCreatePartiallyCompleted(t *testing.T) {
	client := newMockTransport().
		on(http.MethodGet, "/estudiante-grupos/estudiante/7", http.StatusOK, `[{"idEstudiante":7,"idGrupo":1,"estado":"Activo"}]`).
		on(http.MethodDelete, "/estudiante-grupos/7/1", http.StatusOK, "").
		on(http.MethodPost, "/estudiante-grupos", http.StatusInternalServerError, `{"message":"grupo lleno"}`)
	svc := NewEnrollmentService(client, nil, nil, nil, 2)

	out, err := svc.Create(context.Background(), enrollIn(7, 5))
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrPartiallyCompleted.Code))
	assert.True(t, appErrors.HasCode(err, appErrors.ErrHTTP.Code))
	require.NotNil(t, out)
	assert.Equal(t, models.EnrollmentPartiallyCompleted, out.State)
	assert.Len(t, out.Removed, 1)
	assert.Nil(t, out.Enrollment)
}

func TestEnrollmentServiceCreateFailureWithoutRemovals(t *testing.T) {
	client := newMockTransport().
		on(http.MethodGet, "/estudiante-grupos/estudiante/7", http.StatusOK, `[{"idEstudiante":7,"idGrupo":1,"estado":"Activo"}]`).
		on(http.MethodDelete, "/estudiante-grupos/7/1", http.StatusInternalServerError, "")
	svc := NewEnrollmentService(client, nil, nil, nil, 2)

	out, err := svc.Create(context.Background(), enrollIn(7, 5))
	require.Error(t, err)
	assert.Nil(t, out)
	assert.False(t, appErrors.HasCode(err, appErrors.ErrPartiallyCompleted.Code))
	assert.Zero(t, client.count(http.MethodPost))
}

func TestEnrollmentServiceInactiveSkipsLookup(t *testing.T) {
	client := newMockTransport().on(http.MethodPost, "/estudiante-grupos", http.StatusCreated, "")
	svc := NewEnrollmentService(client, nil, nil, nil, 2)

	in := enrollIn(7, 5)
	in.Estado = models.StatusInactive
	out, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentCreated, out.State)
	assert.Zero(t, client.count(http.MethodGet))
}

func TestEnrollmentServiceEnrollMultiple(t *testing.T) {
	client := newMockTransport().
		on(http.MethodGet, "/estudiante-grupos/estudiante/7", http.StatusOK, `[]`).
		on(http.MethodGet, "/estudiante-grupos/estudiante/8", http.StatusInternalServerError, "").
		on(http.MethodGet, "/estudiante-grupos/estudiante/9", http.StatusOK, `[]`).
		on(http.MethodPost, "/estudiante-grupos", http.StatusCreated, "")
	m := metrics.New()
	svc := NewEnrollmentService(client, nil, nil, m, 2)

	result := svc.EnrollMultiple(context.Background(), 5, []int64{7, 8, 9}, "2024-08-20")
	assert.Len(t, result.Fulfilled, 2)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, int64(8), result.Rejected[0].IDEstudiante)
	assert.NotEmpty(t, result.Rejected[0].Error)
	assert.Equal(t, 2, client.count(http.MethodPost))
}

func TestEnrollmentServiceLookups(t *testing.T) {
	client := newMockTransport().
		on(http.MethodGet, "/estudiante-grupos/estudiante/7", http.StatusOK, `[{"idEstudiante":7,"idGrupo":5,"estado":"Activo"}]`).
		on(http.MethodGet, "/estudiante-grupos/grupo/5", http.StatusOK,
			`[{"idEstudiante":7,"idGrupo":5,"estado":"Activo"},{"idEstudiante":8,"idGrupo":5,"estado":"Inactivo"}]`)
	svc := NewEnrollmentService(client, nil, nil, nil, 2)

	assert.True(t, svc.IsEnrolled(context.Background(), 7, 5))
	assert.False(t, svc.IsEnrolled(context.Background(), 7, 6))
	assert.False(t, svc.IsEnrolled(context.Background(), 99, 5))
	assert.Equal(t, 1, svc.CountByGroup(context.Background(), 5))
	assert.Zero(t, svc.CountByGroup(context.Background(), 6))
}
