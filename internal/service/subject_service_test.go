package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sicali-client/pkg/metrics"
)

func TestSubjectServiceCreateRequiresName(t *testing.T) {
	client := newMockTransport()
	svc := NewSubjectService(client, nil, nil, nil)

	_, err := svc.Create(context.Background(), SubjectInput{Nombre: "   "})
	require.Error(t, err)
	assert.Equal(t, "El nombre de la asignatura es requerido", err.Error())
	assert.Zero(t, client.count(http.MethodPost))
}

func TestSubjectServiceNameCacheFetchesOnce(t *testing.T) {
	client := newMockTransport().
		on(http.MethodGet, "/asignaturas", http.StatusOK, `[{"idAsignatura":1,"nombre":"Matemáticas"},{"idAsignatura":2,"nombre":""}]`)
	m := metrics.New()
	svc := NewSubjectService(client, nil, nil, m)

	names := svc.NameCache(context.Background())
	assert.Equal(t, map[int64]string{1: "Matemáticas", 2: "Sin nombre"}, names)

	client.on(http.MethodGet, "/asignaturas", http.StatusOK, `[{"idAsignatura":1,"nombre":"Álgebra"}]`)
	again := svc.NameCache(context.Background())
	assert.Equal(t, "Matemáticas", again[1])
	assert.Len(t, client.callsTo(http.MethodGet, "/asignaturas"), 1)

	snap := m.Snapshot()
	assert.EqualValues(t, 1, snap.SubjectCacheHits)
	assert.EqualValues(t, 1, snap.SubjectCacheMisses)
}

func TestSubjectServiceNameCacheRetriesAfterFailure(t *testing.T) {
	client := newMockTransport().on(http.MethodGet, "/asignaturas", http.StatusInternalServerError, "")
	svc := NewSubjectService(client, nil, nil, nil)

	assert.Empty(t, svc.NameCache(context.Background()))

	client.on(http.MethodGet, "/asignaturas", http.StatusOK, `{"asignaturas":[{"id":4,"nombre":"Historia"}]}`)
	assert.Equal(t, map[int64]string{4: "Historia"}, svc.NameCache(context.Background()))
	assert.Len(t, client.callsTo(http.MethodGet, "/asignaturas"), 2)
}
