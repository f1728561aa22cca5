package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sicali-client/internal/models"
	"github.com/noah-isme/sicali-client/internal/normalize"
	"github.com/noah-isme/sicali-client/pkg/validation"
)

const usersPath = "/usuarios"

const (
	msgPasswordTooShort = "La contraseña debe tener al menos 6 caracteres"
	msgInvalidRole      = "El rol debe ser: docente, estudiante, director, tutor o admin"
)

// UserInput is the payload for creating or updating a user. IDUsuario is set
// for existing users and disables the password rule.
type UserInput struct {
	IDUsuario int64  `json:"id_usuario,omitempty"`
	Nombre    string `json:"nombre" validate:"required"`
	ApeP      string `json:"ape_p" validate:"required"`
	ApeM      string `json:"ape_m" validate:"required"`
	Curp      string `json:"curp" validate:"required,compactlen=18"`
	Rfc       string `json:"rfc" validate:"required,compactlen=12 13"`
	Sexo      string `json:"sexo" validate:"oneof=M F"`
	Usuario   string `json:"usuario" validate:"required"`
	Password  string `json:"password,omitempty"`
	Rol       string `json:"rol" validate:"oneof=docente estudiante director tutor admin"`
	Estado    string `json:"estado,omitempty"`
}

var userMessages = validation.Messages{
	"nombre.required":  "El nombre es requerido",
	"ape_p.required":   "El apellido paterno es requerido",
	"ape_m.required":   "El apellido materno es requerido",
	"curp.required":    "El CURP es requerido",
	"curp.compactlen":  "El CURP debe tener 18 caracteres (actualmente tiene {len})",
	"rfc.required":     "El RFC es requerido",
	"rfc.compactlen":   "El RFC debe tener 12 o 13 caracteres (actualmente tiene {len})",
	"sexo.oneof":       "El sexo debe ser M o F",
	"usuario.required": "El nombre de usuario es requerido",
	"rol.oneof":        msgInvalidRole,
}

// UserService manages user accounts.
type UserService struct {
	client    transport
	validator *validation.Validator
	logger    *zap.Logger
}

// NewUserService constructs UserService.
func NewUserService(client transport, validate *validation.Validator, logger *zap.Logger) *UserService {
	validate, logger = defaults(validate, logger)
	return &UserService{client: client, validator: validate, logger: logger}
}

// GetAll lists every user.
func (s *UserService) GetAll(ctx context.Context) ([]models.User, error) {
	return fetchList(ctx, s.client, usersPath, normalize.User, "usuarios")
}

// GetByID returns one user.
func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return fetchOne(ctx, s.client, fmt.Sprintf("%s/%d", usersPath, id), normalize.User)
}

// GetByRole lists users having role.
func (s *UserService) GetByRole(ctx context.Context, role string) ([]models.User, error) {
	return fetchList(ctx, s.client, usersPath+"/rol/"+url.PathEscape(role), normalize.User, "usuarios")
}

// Create sanitizes, validates and submits a new active user. A 409 surfaces the
// backend's duplicate detail (for example a repeated CURP).
func (s *UserService) Create(ctx context.Context, in UserInput) (*models.User, error) {
	payload := in.sanitized()
	payload.IDUsuario = 0
	payload.Estado = models.StatusActive
	if res := s.Validate(payload); !res.IsValid {
		return nil, validationFailed(res.Errors)
	}
	s.logger.Debug("creating user", zap.String("usuario", payload.Usuario), zap.String("rol", payload.Rol))
	res, err := s.client.Post(ctx, usersPath, payload)
	return send(res, err, normalize.User)
}

// Update submits the sanitized fields of an existing user. An empty password
// is left out so the stored one is kept.
func (s *UserService) Update(ctx context.Context, id int64, in UserInput) (*models.User, error) {
	payload := in.sanitized()
	payload.IDUsuario = id
	res, err := s.client.Put(ctx, fmt.Sprintf("%s/%d", usersPath, id), payload)
	return send(res, err, normalize.User)
}

// Delete removes a user.
func (s *UserService) Delete(ctx context.Context, id int64) (bool, error) {
	return remove(ctx, s.client, fmt.Sprintf("%s/%d", usersPath, id))
}

// Validate checks a user payload. Codes are measured after removing whitespace.
func (s *UserService) Validate(in UserInput) validation.Result {
	in = in.sanitized()
	errs := s.validator.Check(in, userMessages)
	if in.IDUsuario == 0 && len([]rune(in.Password)) < 6 {
		errs = insertBefore(errs, msgInvalidRole, msgPasswordTooShort)
	}
	if errs == nil {
		errs = []string{}
	}
	return validation.Result{IsValid: len(errs) == 0, Errors: errs}
}

// ValidateCURP reports whether curp has the national population code format.
func (s *UserService) ValidateCURP(curp string) bool {
	return s.validator.Var(curp, "curp")
}

// ValidateRFC reports whether rfc has the tax id format.
func (s *UserService) ValidateRFC(rfc string) bool {
	return s.validator.Var(rfc, "rfc")
}

func (in UserInput) sanitized() UserInput {
	in.Nombre = validation.CollapseSpaces(in.Nombre)
	in.ApeP = validation.CollapseSpaces(in.ApeP)
	in.ApeM = validation.CollapseSpaces(in.ApeM)
	in.Curp = strings.ToUpper(validation.Compact(in.Curp))
	in.Rfc = strings.ToUpper(validation.Compact(in.Rfc))
	in.Sexo = strings.ToUpper(strings.TrimSpace(in.Sexo))
	in.Usuario = validation.CollapseSpaces(in.Usuario)
	in.Rol = validation.CollapseSpaces(in.Rol)
	in.Estado = strings.TrimSpace(in.Estado)
	return in
}

// insertBefore places msg ahead of anchor, or at the end when anchor is absent.
func insertBefore(errs []string, anchor, msg string) []string {
	for i, e := range errs {
		if e == anchor {
			out := make([]string, 0, len(errs)+1)
			out = append(out, errs[:i]...)
			out = append(out, msg)
			return append(out, errs[i:]...)
		}
	}
	return append(errs, msg)
}
