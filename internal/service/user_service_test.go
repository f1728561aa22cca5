package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sicali-client/pkg/errors"
)

func validUser() UserInput {
	return UserInput{
		Nombre:   "Ana",
		ApeP:     "López",
		ApeM:     "Ruiz",
		Curp:     "LORA900101MDFPZN09",
		Rfc:      "LORA900101AB1",
		Sexo:     "F",
		Usuario:  "ana.lopez",
		Password: "secreta",
		Rol:      "docente",
	}
}

func TestUserServiceCURPLength(t *testing.T) {
	svc := NewUserService(newMockTransport(), nil, nil)

	cases := map[string]struct {
		curp string
		want []string
	}{
		"17 chars":       {curp: "LORA900101MDFPZN0", want: []string{"El CURP debe tener 18 caracteres (actualmente tiene 17)"}},
		"18 chars":       {curp: "LORA900101MDFPZN09", want: []string{}},
		"19 chars":       {curp: "LORA900101MDFPZN09X", want: []string{"El CURP debe tener 18 caracteres (actualmente tiene 19)"}},
		"spaces ignored": {curp: " lora 900101 mdfpzn09 ", want: []string{}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			in := validUser()
			in.Curp = tc.curp
			res := svc.Validate(in)
			assert.Equal(t, tc.want, res.Errors)
			assert.Equal(t, len(tc.want) == 0, res.IsValid)
		})
	}
}

func TestUserServiceRFCLength(t *testing.T) {
	svc := NewUserService(newMockTransport(), nil, nil)

	in := validUser()
	in.Rfc = "ABC12345678"
	assert.Equal(t, []string{"El RFC debe tener 12 o 13 caracteres (actualmente tiene 11)"}, svc.Validate(in).Errors)

	in.Rfc = "ABC123456789"
	assert.True(t, svc.Validate(in).IsValid)
}

func TestUserServicePasswordRule(t *testing.T) {
	svc := NewUserService(newMockTransport(), nil, nil)

	in := validUser()
	in.Password = "abc"
	in.Rol = "portero"
	assert.Equal(t, []string{
		"La contraseña debe tener al menos 6 caracteres",
		"El rol debe ser: docente, estudiante, director, tutor o admin",
	}, svc.Validate(in).Errors)

	in.IDUsuario = 12
	in.Rol = "admin"
	assert.True(t, svc.Validate(in).IsValid)
}

func TestUserServiceCreateSanitizesAndActivates(t *testing.T) {
	client := newMockTransport().
		on(http.MethodPost, "/usuarios", http.StatusCreated, `{"id_usuario":31,"nombre":"Ana","usuario":"ana.lopez","rol":"docente","estado":"Activo"}`)
	svc := NewUserService(client, nil, nil)

	in := validUser()
	in.Nombre = "  Ana   María "
	in.Curp = "lora900101mdfpzn09"
	in.Sexo = "f"
	in.Estado = "Inactivo"

	user, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, int64(31), user.ID)

	calls := client.callsTo(http.MethodPost, "/usuarios")
	require.Len(t, calls, 1)
	body := sentBody(t, calls[0])
	assert.Equal(t, "Ana María", body["nombre"])
	assert.Equal(t, "LORA900101MDFPZN09", body["curp"])
	assert.Equal(t, "F", body["sexo"])
	assert.Equal(t, "Activo", body["estado"])
	assert.NotContains(t, body, "id_usuario")
}

func TestUserServiceCreateConflictDetail(t *testing.T) {
	client := newMockTransport().
		on(http.MethodPost, "/usuarios", http.StatusConflict, `{"message":"El CURP ya está registrado"}`)
	svc := NewUserService(client, nil, nil)

	_, err := svc.Create(context.Background(), validUser())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, errCode(err))
	assert.Equal(t, "El CURP ya está registrado", err.Error())
}

func TestUserServiceUpdateKeepsPassword(t *testing.T) {
	client := newMockTransport().
		on(http.MethodPut, "/usuarios/31", http.StatusOK, `{"id_usuario":31,"nombre":"Ana"}`)
	svc := NewUserService(client, nil, nil)

	in := validUser()
	in.Password = ""
	_, err := svc.Update(context.Background(), 31, in)
	require.NoError(t, err)

	calls := client.callsTo(http.MethodPut, "/usuarios/31")
	require.Len(t, calls, 1)
	body := sentBody(t, calls[0])
	assert.NotContains(t, body, "password")
	assert.EqualValues(t, 31, body["id_usuario"])
}

func TestUserServiceGetByRole(t *testing.T) {
	client := newMockTransport().
		on(http.MethodGet, "/usuarios/rol/docente", http.StatusOK, `[{"id_usuario":2,"nombre":"Luis","rol":"docente"}]`)
	svc := NewUserService(client, nil, nil)

	users, err := svc.GetByRole(context.Background(), "docente")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, int64(2), users[0].ID)
}

func TestUserServiceCodeFormats(t *testing.T) {
	svc := NewUserService(newMockTransport(), nil, nil)

	assert.True(t, svc.ValidateCURP("LORA900101MDFPZN09"))
	assert.False(t, svc.ValidateCURP("LORA90"))
	assert.True(t, svc.ValidateRFC("LORA900101AB1"))
	assert.False(t, svc.ValidateRFC("LORA900101"))
}
