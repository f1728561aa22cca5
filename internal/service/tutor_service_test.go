package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sicali-client/pkg/errors"
)

func TestTutorServiceCreateForcesRole(t *testing.T) {
	client := newMockTransport().
		on(http.MethodPost, "/usuarios", http.StatusCreated, `{"id_usuario":40,"nombre":"Rosa","rol":"tutor","estado":"Activo","estudiante":{"id_usuario":7}}`)
	svc := NewTutorService(client, nil, nil)

	in := TutorInput{UserInput: validUser(), IDEstudiante: 7}
	in.Rol = "director"
	in.Estado = "Inactivo"

	tutor, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, int64(40), tutor.ID)
	assert.Equal(t, int64(7), tutor.IDEstudiante)

	calls := client.callsTo(http.MethodPost, "/usuarios")
	require.Len(t, calls, 1)
	body := sentBody(t, calls[0])
	assert.Equal(t, "tutor", body["rol"])
	assert.Equal(t, "Activo", body["estado"])
	assert.EqualValues(t, 7, body["idEstudiante"])
}

func TestTutorServiceCreateRejectsInvalid(t *testing.T) {
	client := newMockTransport()
	svc := NewTutorService(client, nil, nil)

	in := TutorInput{UserInput: validUser()}
	in.Password = "123"

	_, err := svc.Create(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, errCode(err))
	assert.Zero(t, client.count(http.MethodPost))
}

func TestTutorServiceGetAll(t *testing.T) {
	client := newMockTransport().
		on(http.MethodGet, "/usuarios/rol/tutor", http.StatusOK, `[{"id_usuario":40,"nombre":"Rosa","rol":"tutor","idEstudiante":7}]`)
	svc := NewTutorService(client, nil, nil)

	tutors, err := svc.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, tutors, 1)
	assert.Equal(t, int64(7), tutors[0].IDEstudiante)
}
