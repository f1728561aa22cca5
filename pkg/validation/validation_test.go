package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Nombre string `json:"nombre" validate:"required"`
	Curp   string `json:"curp" validate:"required,compactlen=18"`
	Rfc    string `json:"rfc" validate:"omitempty,compactlen=12 13"`
	Fecha  string `json:"fecha" validate:"omitempty,isodate"`
	Grupo  int64  `json:"idGrupo" validate:"positiveid"`
}

var sampleMessages = Messages{
	"nombre.required": "El nombre es requerido",
	"curp.required":   "El CURP es requerido",
	"curp.compactlen": "El CURP debe tener 18 caracteres (actualmente tiene {len})",
	"rfc.compactlen":  "El RFC debe tener 12 o 13 caracteres (actualmente tiene {len})",
}

func TestCheckUsesMessagesInFieldOrder(t *testing.T) {
	v := New()
	errs := v.Check(sample{Curp: "ABCD 123456 HDFRRR0", Rfc: "XAXX0101010", Grupo: 3}, sampleMessages)
	assert.Equal(t, []string{
		"El nombre es requerido",
		"El CURP debe tener 18 caracteres (actualmente tiene 17)",
		"El RFC debe tener 12 o 13 caracteres (actualmente tiene 11)",
	}, errs)
}

func TestCheckPassesCompactedLengths(t *testing.T) {
	v := New()
	res := v.Validate(sample{Nombre: "Ana", Curp: "GARC 800101 HDFRRN09", Rfc: "GARC8001011A3", Grupo: 1}, sampleMessages)
	assert.True(t, res.IsValid)
	assert.Empty(t, res.Errors)
	assert.NotNil(t, res.Errors)
}

func TestFallbackTranslationIsSpanish(t *testing.T) {
	v := New()
	errs := v.Check(sample{Nombre: "Ana", Curp: "GARC800101HDFRRN09", Fecha: "2024-02-30", Grupo: 0}, nil)
	assert.Equal(t, []string{
		"fecha debe tener el formato YYYY-MM-DD",
		"idGrupo debe ser un identificador válido",
	}, errs)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "GARC800101", Compact(" GARC 80\t0101 "))
	assert.Equal(t, 10, CompactLen(" GARC 80\t0101 "))
	assert.Equal(t, "Juan Carlos", CollapseSpaces("  Juan   Carlos "))
	assert.True(t, ValidISODate("2024-02-29"))
	assert.False(t, ValidISODate("2023-02-29"))
	assert.False(t, ValidISODate("01/02/2024"))
	assert.True(t, ValidCURP("GARC800101HDFRRN09"))
	assert.False(t, ValidCURP("GARC800101XDFRRN09"))
	assert.True(t, ValidRFC("GARC8001011A3"))
	assert.True(t, ValidRFC("ABC800101AB1"))
	assert.False(t, ValidRFC("GARC80"))
	assert.Equal(t, "a, b", Join([]string{"a", "b"}))
}

func TestVarUsesRegisteredTags(t *testing.T) {
	v := New()
	assert.True(t, v.Var("garc 800101 hdfrrn09", "curp"))
	assert.False(t, v.Var("GARC800101XDFRRN09", "curp"))
	assert.True(t, v.Var("GARC8001011A3", "rfc"))
	assert.False(t, v.Var("GARC80", "rfc"))
	assert.True(t, v.Var("2024-02-29", "isodate"))
}
