package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sicali-client/pkg/errors"
)

func TestCycleServiceValidate(t *testing.T) {
	svc := NewCycleService(newMockTransport(), nil, nil)

	res := svc.Validate(CycleInput{})
	assert.False(t, res.IsValid)
	assert.Equal(t, []string{
		"El nombre del ciclo es requerido",
		"La fecha de inicio es requerida",
		"La fecha de fin es requerida",
	}, res.Errors)

	res = svc.Validate(CycleInput{Nombre: "2024-2025", FechaInicio: "2025-07-01", FechaFin: "2024-08-01"})
	assert.Equal(t, []string{"La fecha de inicio debe ser anterior a la fecha de fin"}, res.Errors)

	res = svc.Validate(CycleInput{Nombre: "2024-2025", FechaInicio: "2024-02-30", FechaFin: "2025-07-01"})
	assert.Equal(t, []string{"La fecha de inicio debe tener el formato YYYY-MM-DD"}, res.Errors)

	res = svc.Validate(CycleInput{Nombre: " 2024-2025 ", FechaInicio: "2024-08-01", FechaFin: "2025-07-01"})
	assert.True(t, res.IsValid)
	assert.Empty(t, res.Errors)
}

func TestCycleServiceCreate(t *testing.T) {
	client := newMockTransport().
		on(http.MethodPost, "/ciclos", http.StatusCreated, `{"idCiclo":4,"nombre":"2024-2025","fecha_inicio":"2024-08-01","fecha_fin":"2025-07-01"}`)
	svc := NewCycleService(client, nil, nil)

	cycle, err := svc.Create(context.Background(), CycleInput{Nombre: " 2024-2025", FechaInicio: "2024-08-01", FechaFin: "2025-07-01"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), cycle.ID)
	assert.Equal(t, "2024-08-01", cycle.FechaInicio)

	calls := client.callsTo(http.MethodPost, "/ciclos")
	require.Len(t, calls, 1)
	assert.Equal(t, "2024-2025", sentBody(t, calls[0])["nombre"])
}

func TestCycleServiceCreateInvalidSkipsRequest(t *testing.T) {
	client := newMockTransport()
	svc := NewCycleService(client, nil, nil)

	_, err := svc.Create(context.Background(), CycleInput{Nombre: "x"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, errCode(err))
	assert.Equal(t, "La fecha de inicio es requerida, La fecha de fin es requerida", err.Error())
	assert.Zero(t, client.count(http.MethodPost))
}

func TestCycleServiceGetAllShapes(t *testing.T) {
	client := newMockTransport().
		on(http.MethodGet, "/ciclos", http.StatusOK, `{"ciclos":[{"id":1,"nombre":"A"},{"idCiclo":2,"nombre":"B"}]}`)
	svc := NewCycleService(client, nil, nil)

	cycles, err := svc.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, cycles, 2)
	assert.Equal(t, int64(1), cycles[0].ID)
	assert.Equal(t, int64(2), cycles[1].ID)
}
