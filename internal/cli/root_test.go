package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/sicali-client/internal/app"
	"github.com/noah-isme/sicali-client/pkg/config"
)

const usersFixture = `[
	{"id_usuario":1,"nombre":"Carlos","ape_p":"García","ape_m":"Pérez","usuario":"carlos.garcia","password":"Director2024!","rol":"admin","estado":"Activo"},
	{"id_usuario":7,"nombre":"Ana","ape_p":"López","ape_m":"Ruiz","usuario":"ana.lopez","password":"Alumna2024!","rol":"estudiante","estado":"Activo"}
]`

func newFakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ciclos", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(`[{"idCiclo":1,"nombre":"2024-A","fechaInicio":"2024-01-08","fechaFin":"2024-06-28"}]`))
	})
	r.GET("/ciclos/:id", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Ciclo no encontrado"})
	})
	r.GET("/usuarios", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(usersFixture))
	})
	r.GET("/asistencias/grupo/:id", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(`[
			{"idAsistencia":1,"idEstudiante":{"id_usuario":7,"nombre":"Ana","ape_p":"López","ape_m":"Ruiz"},"idGrupo":3,"fecha":"2024-06-03","estado":"Asistencia"},
			{"idAsistencia":2,"idEstudiante":{"id_usuario":7,"nombre":"Ana","ape_p":"López","ape_m":"Ruiz"},"idGrupo":3,"fecha":"2024-06-04","estado":"Falta"}
		]`))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T, backendURL string) *app.App {
	t.Helper()
	cfg := &config.Config{
		API:     config.APIConfig{BaseURL: backendURL, Timeout: 2 * time.Second},
		Session: config.SessionConfig{Backend: config.SessionBackendMemory},
		Auth:    config.AuthConfig{TokenMode: config.TokenModePseudo, TokenSecret: "secret"},
		Bulk:    config.BulkConfig{Concurrency: 2},
		Exports: config.ExportsConfig{Dir: t.TempDir(), LinkTTL: time.Hour, BaseURL: "http://localhost:8081"},
	}
	a, err := app.New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

type result struct {
	stdout string
	stderr string
	err    error
}

func execute(a *app.App, args ...string) result {
	cmd, _ := NewRootCommand(func(context.Context, *RootOptions) (*app.App, error) {
		return a, nil
	})
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}

func decodeResponse(t *testing.T, raw string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp), "output: %s", raw)
	return resp
}

func TestRootCommand(t *testing.T) {
	cmd, _ := NewRootCommand(nil)
	require.NotNil(t, cmd)
	assert.Equal(t, "sicali", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd, _ := NewRootCommand(nil)
	commands := [][]string{
		{"login"}, {"logout"}, {"whoami"},
		{"cycles", "list"}, {"users", "validate-curp"}, {"tutors", "create"},
		{"groups", "update"}, {"subjects", "delete"},
		{"group-subjects", "assign-multiple"}, {"group-subjects", "check"}, {"group-subjects", "count"},
		{"enrollments", "enroll"}, {"enrollments", "enroll-multiple"}, {"enrollments", "check"},
		{"attendance", "capture"}, {"attendance", "percentage"}, {"attendance", "stats"},
		{"grades", "open"}, {"grades", "partial"}, {"grades", "average"},
		{"export", "grades"}, {"export", "attendance"}, {"export", "cleanup"},
	}

	for _, path := range commands {
		t.Run(strings.Join(path, " "), func(t *testing.T) {
			sub, _, err := cmd.Find(path)
			require.NoError(t, err)
			assert.Equal(t, path[len(path)-1], sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd, _ := NewRootCommand(nil)

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	assert.NotNil(t, cmd.PersistentFlags().Lookup("timeout"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("base-url"))
}

func TestExportTypeFlag(t *testing.T) {
	cmd, _ := NewRootCommand(nil)
	sub, _, err := cmd.Find([]string{"export", "grades"})
	require.NoError(t, err)

	typ := sub.Flags().Lookup("type")
	require.NotNil(t, typ)
	assert.Equal(t, "csv", typ.DefValue)
}

func TestCyclesListFormats(t *testing.T) {
	a := newTestApp(t, newFakeBackend(t).URL)

	t.Run("text", func(t *testing.T) {
		res := execute(a, "cycles", "list")
		require.NoError(t, res.err)
		assert.Contains(t, res.stdout, "NOMBRE")
		assert.Contains(t, res.stdout, "2024-A")
	})

	t.Run("json", func(t *testing.T) {
		res := execute(a, "cycles", "list", "--format", "json")
		require.NoError(t, res.err)
		resp := decodeResponse(t, res.stdout)
		assert.Equal(t, "ok", resp.Status)
		items, ok := resp.Data.([]any)
		require.True(t, ok)
		require.Len(t, items, 1)
		assert.Equal(t, "2024-A", items[0].(map[string]any)["nombre"])
	})

	t.Run("yaml", func(t *testing.T) {
		res := execute(a, "cycles", "list", "--format", "yaml")
		require.NoError(t, res.err)
		var doc map[string]any
		require.NoError(t, yaml.Unmarshal([]byte(res.stdout), &doc))
		assert.Equal(t, "ok", doc["status"])
	})
}

func TestNotFoundExitsWithFailure(t *testing.T) {
	a := newTestApp(t, newFakeBackend(t).URL)

	res := execute(a, "cycles", "get", "9", "--format", "json")
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, GetExitCode(res.err))
	resp := decodeResponse(t, res.stdout)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestValidationFailsBeforeRequest(t *testing.T) {
	a := newTestApp(t, "http://backend.invalid")

	res := execute(a, "cycles", "create", "--nombre", "2024-B", "--inicio", "2024/08/01", "--fin", "2024-12-20")
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, GetExitCode(res.err))
	assert.Contains(t, res.stderr, "VALIDATION_ERROR")
	assert.Contains(t, res.stderr, "La fecha de inicio debe tener el formato YYYY-MM-DD")
}

func TestBadArgumentsExitWithCommandError(t *testing.T) {
	a := newTestApp(t, "http://backend.invalid")

	res := execute(a, "groups", "get", "abc")
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))

	res = execute(a, "cycles", "list", "--format", "xml")
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
	assert.Contains(t, res.stderr, "invalid format")
}

func TestLoginThenWhoami(t *testing.T) {
	a := newTestApp(t, newFakeBackend(t).URL)

	res := execute(a, "whoami")
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "UNAUTHORIZED")

	res = execute(a, "login", "-u", "carlos.garcia", "-p", "Director2024!", "--format", "json")
	require.NoError(t, res.err)
	login := decodeResponse(t, res.stdout)
	data := login.Data.(map[string]any)
	assert.NotEmpty(t, data["token"])
	assert.NotContains(t, res.stdout, "Director2024!")

	res = execute(a, "whoami", "--has-role", "admin", "--format", "json")
	require.NoError(t, res.err)
	assert.Equal(t, true, decodeResponse(t, res.stdout).Data.(map[string]any)["hasRole"])

	res = execute(a, "logout")
	require.NoError(t, res.err)
	res = execute(a, "whoami")
	assert.Equal(t, ExitFailure, GetExitCode(res.err))
}

func TestLoginWrongPassword(t *testing.T) {
	a := newTestApp(t, newFakeBackend(t).URL)

	res := execute(a, "login", "-u", "carlos.garcia", "-p", "nope")
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, GetExitCode(res.err))
	assert.Contains(t, res.stderr, "Usuario o contraseña incorrectos")
}

func TestValidateCURP(t *testing.T) {
	a := newTestApp(t, "http://backend.invalid")

	res := execute(a, "users", "validate-curp", "GAPC800101HDFRRR09", "--format", "json")
	require.NoError(t, res.err)
	assert.Equal(t, true, decodeResponse(t, res.stdout).Data.(map[string]any)["valid"])

	res = execute(a, "users", "validate-curp", "GAPC80", "--format", "json")
	require.NoError(t, res.err)
	assert.Equal(t, false, decodeResponse(t, res.stdout).Data.(map[string]any)["valid"])
}

func TestGradesAverage(t *testing.T) {
	a := newTestApp(t, "http://backend.invalid")

	res := execute(a, "grades", "average", "--p1", "8", "--p3", "9.5")
	require.NoError(t, res.err)
	assert.Equal(t, "8.75\n", res.stdout)

	res = execute(a, "grades", "average", "--p2", "11")
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "Calificación 2 debe estar entre 0 y 10")
}

func TestExportAttendance(t *testing.T) {
	a := newTestApp(t, newFakeBackend(t).URL)

	res := execute(a, "export", "attendance", "--group", "3", "--format", "json")
	require.NoError(t, res.err, res.stderr)
	data := decodeResponse(t, res.stdout).Data.(map[string]any)

	file := data["file"].(string)
	assert.True(t, strings.HasPrefix(file, "asistencia_grupo3_"))
	assert.EqualValues(t, 2, data["rows"])
	assert.True(t, strings.HasPrefix(data["url"].(string), "http://localhost:8081/exports/"))

	content, err := os.ReadFile(filepath.Join(a.Config.Exports.Dir, file))
	require.NoError(t, err)
	assert.Contains(t, string(content), "Ana López Ruiz")

	res = execute(a, "export", "list", "--format", "json")
	require.NoError(t, res.err)
	assert.Equal(t, []any{file}, decodeResponse(t, res.stdout).Data)
}

func TestExportRejectsUnknownType(t *testing.T) {
	a := newTestApp(t, "http://backend.invalid")

	res := execute(a, "export", "grades", "--group", "1", "--type", "xlsx")
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
}
