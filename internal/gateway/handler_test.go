package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sicali-client/pkg/errors"
	"github.com/noah-isme/sicali-client/pkg/httpclient"
	"github.com/noah-isme/sicali-client/pkg/response"
	"github.com/noah-isme/sicali-client/pkg/storage"
)

type backendStub struct {
	result *httpclient.Result
	err    error
	paths  []string
}

func (b *backendStub) Get(_ context.Context, path string, _ url.Values) (*httpclient.Result, error) {
	b.paths = append(b.paths, path)
	return b.result, b.err
}

func newTestEngine(t *testing.T, h *Handler) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
	r.GET("/exports/:token", h.Download)
	r.Any("/api/*path", h.Proxy)
	return r
}

func serve(r http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestHealth(t *testing.T) {
	h := NewHandler(mustURL(t, "http://backend.invalid"), &backendStub{}, nil, nil, nil, nil)
	w := serve(newTestEngine(t, h), http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestReady(t *testing.T) {
	t.Run("backend answers", func(t *testing.T) {
		backend := &backendStub{result: &httpclient.Result{Status: http.StatusOK, Success: true}}
		h := NewHandler(mustURL(t, "http://backend.invalid"), backend, func(context.Context) error { return nil }, nil, nil, nil)

		w := serve(newTestEngine(t, h), http.MethodGet, "/ready")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"/ciclos"}, backend.paths)
	})

	t.Run("backend error status", func(t *testing.T) {
		backend := &backendStub{result: &httpclient.Result{Status: http.StatusInternalServerError, Message: "Error del servidor"}}
		h := NewHandler(mustURL(t, "http://backend.invalid"), backend, nil, nil, nil, nil)

		w := serve(newTestEngine(t, h), http.MethodGet, "/ready")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		env := decodeEnvelope(t, w)
		require.NotNil(t, env.Error)
		assert.Equal(t, appErrors.ErrHTTP.Code, env.Error.Code)
	})

	t.Run("backend unreachable", func(t *testing.T) {
		backend := &backendStub{err: appErrors.Clone(appErrors.ErrNetwork, "")}
		h := NewHandler(mustURL(t, "http://backend.invalid"), backend, nil, nil, nil, nil)

		w := serve(newTestEngine(t, h), http.MethodGet, "/ready")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, appErrors.ErrNetwork.Code, decodeEnvelope(t, w).Error.Code)
	})

	t.Run("store down skips backend", func(t *testing.T) {
		backend := &backendStub{}
		storeDown := func(context.Context) error { return errors.New("dial tcp: refused") }
		h := NewHandler(mustURL(t, "http://backend.invalid"), backend, storeDown, nil, nil, nil)

		w := serve(newTestEngine(t, h), http.MethodGet, "/ready")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "STORE_UNAVAILABLE", decodeEnvelope(t, w).Error.Code)
		assert.Empty(t, backend.paths)
	})
}

func TestDownload(t *testing.T) {
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	name, err := files.Save("asistencia_grupo3_20240601-120000.csv", []byte("Estudiante,Total\n"))
	require.NoError(t, err)

	signer := storage.NewLinkSigner("secret", time.Hour)
	h := NewHandler(mustURL(t, "http://backend.invalid"), &backendStub{}, nil, signer, files, nil)
	r := newTestEngine(t, h)

	t.Run("valid link", func(t *testing.T) {
		token, _, err := signer.Generate(name)
		require.NoError(t, err)

		w := serve(r, http.MethodGet, "/exports/"+token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Estudiante,Total\n", w.Body.String())
		assert.Contains(t, w.Header().Get("Content-Disposition"), "asistencia_grupo3_20240601-120000.csv")
	})

	t.Run("foreign signature", func(t *testing.T) {
		token, _, err := storage.NewLinkSigner("other", time.Hour).Generate(name)
		require.NoError(t, err)

		w := serve(r, http.MethodGet, "/exports/"+token)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, appErrors.ErrUnauthorized.Code, decodeEnvelope(t, w).Error.Code)
	})

	t.Run("file removed", func(t *testing.T) {
		token, _, err := signer.Generate("calificaciones_grupo1_20240601-120000.pdf")
		require.NoError(t, err)

		w := serve(r, http.MethodGet, "/exports/"+token)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, appErrors.ErrNotFound.Code, decodeEnvelope(t, w).Error.Code)
	})
}

// The reverse proxy needs a real connection, so proxy tests run the engine on a server.
func startGateway(t *testing.T, h *Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(newTestEngine(t, h))
	t.Cleanup(srv.Close)
	return srv
}

func TestProxyStripsPrefix(t *testing.T) {
	var gotPath, gotQuery string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"idCiclo":1}]`))
	}))
	defer backend.Close()

	gw := startGateway(t, NewHandler(mustURL(t, backend.URL), &backendStub{}, nil, nil, nil, nil))
	resp, err := http.Get(gw.URL + "/api/ciclos?activo=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/ciclos", gotPath)
	assert.Equal(t, "activo=1", gotQuery)
	assert.JSONEq(t, `[{"idCiclo":1}]`, string(body))
}

func TestProxyBackendDown(t *testing.T) {
	backend := httptest.NewServer(http.NotFoundHandler())
	target := mustURL(t, backend.URL)
	backend.Close()

	gw := startGateway(t, NewHandler(target, &backendStub{}, nil, nil, nil, nil))
	resp, err := http.Get(gw.URL + "/api/usuarios")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	var env response.Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrNetwork.Code, env.Error.Code)
}
