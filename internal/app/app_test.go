package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sicali-client/pkg/config"
	"github.com/noah-isme/sicali-client/pkg/session"
)

type unreachableStore struct {
	*session.MemoryStore
}

func (unreachableStore) Ping(context.Context) error {
	return errors.New("connection refused")
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		API:     config.APIConfig{BaseURL: "http://backend.test/api", Timeout: time.Second},
		Session: config.SessionConfig{Backend: config.SessionBackendMemory},
		Auth:    config.AuthConfig{TokenMode: config.TokenModePseudo},
		Bulk:    config.BulkConfig{Concurrency: 2},
		Exports: config.ExportsConfig{Dir: t.TempDir()},
	}
}

func TestNewBuildsServices(t *testing.T) {
	a, err := New(testConfig(t), nil)
	require.NoError(t, err)
	defer a.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, a.Wait(ctx))

	assert.NotNil(t, a.Auth)
	assert.NotNil(t, a.Grades)
	assert.NotNil(t, a.Exports)
	assert.Equal(t, "http://backend.test/api", a.Client.BaseURL())
	assert.Same(t, a.Store, a.Client.Store())
}

func TestWaitReportsStoreFailure(t *testing.T) {
	a, err := New(testConfig(t), nil, WithSessionStore(unreachableStore{session.NewMemoryStore()}))
	require.NoError(t, err)

	<-a.Ready()
	assert.EqualError(t, a.Wait(context.Background()), "connection refused")
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}
