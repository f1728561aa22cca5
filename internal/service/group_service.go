package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sicali-client/internal/models"
	"github.com/noah-isme/sicali-client/internal/normalize"
	appErrors "github.com/noah-isme/sicali-client/pkg/errors"
	"github.com/noah-isme/sicali-client/pkg/validation"
)

const groupsPath = "/grupos"

// GroupInput is the flat payload the backend expects for groups. On update a
// zero field means "keep the current value".
type GroupInput struct {
	Nombre    string `json:"nombre" validate:"required"`
	Grado     int    `json:"grado" validate:"min=1,max=6"`
	IDPeriodo int64  `json:"idPeriodo" validate:"required,positiveid"`
	IDDocente int64  `json:"idDocente" validate:"required,positiveid"`
}

var groupMessages = validation.Messages{
	"nombre.required":      "El nombre del grupo es requerido",
	"grado.min":            "El grado debe ser un número entre 1 y 6",
	"grado.max":            "El grado debe ser un número entre 1 y 6",
	"idPeriodo.required":   "El periodo es requerido",
	"idPeriodo.positiveid": "El periodo debe ser un número válido",
	"idDocente.required":   "El docente es requerido",
	"idDocente.positiveid": "El docente debe ser un número válido",
}

// GroupService manages class groups.
type GroupService struct {
	client    transport
	validator *validation.Validator
	logger    *zap.Logger
}

// NewGroupService constructs GroupService.
func NewGroupService(client transport, validate *validation.Validator, logger *zap.Logger) *GroupService {
	validate, logger = defaults(validate, logger)
	return &GroupService{client: client, validator: validate, logger: logger}
}

// GetAll lists every group.
func (s *GroupService) GetAll(ctx context.Context) ([]models.Group, error) {
	return fetchList(ctx, s.client, groupsPath, normalize.Group, "grupos")
}

// GetByID returns one group.
func (s *GroupService) GetByID(ctx context.Context, id int64) (*models.Group, error) {
	return fetchOne(ctx, s.client, fmt.Sprintf("%s/%d", groupsPath, id), normalize.Group)
}

// GetByTeacher lists the groups taught by a teacher.
func (s *GroupService) GetByTeacher(ctx context.Context, teacherID int64) ([]models.Group, error) {
	return fetchList(ctx, s.client, fmt.Sprintf("%s/docente/%d", groupsPath, teacherID), normalize.Group, "grupos")
}

// GetByPeriod lists the groups of a cycle.
func (s *GroupService) GetByPeriod(ctx context.Context, periodID int64) ([]models.Group, error) {
	return fetchList(ctx, s.client, fmt.Sprintf("%s/periodo/%d", groupsPath, periodID), normalize.Group, "grupos")
}

// Create validates and submits a new group.
func (s *GroupService) Create(ctx context.Context, in GroupInput) (*models.Group, error) {
	in.Nombre = strings.TrimSpace(in.Nombre)
	if res := s.Validate(in); !res.IsValid {
		return nil, validationFailed(res.Errors)
	}
	res, err := s.client.Post(ctx, groupsPath, in)
	return send(res, err, normalize.Group)
}

// Update re-reads the group and fills every field the caller left empty with the
// current value, since period and teacher are mandatory even on partial updates.
// The read and the write are separate requests: a change made by someone else in
// between is overwritten.
func (s *GroupService) Update(ctx context.Context, id int64, in GroupInput) (*models.Group, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status,
			"No se pudo obtener datos del grupo para actualizar. Verifica que el grupo exista.")
	}

	payload := GroupInput{
		Nombre:    strings.TrimSpace(in.Nombre),
		Grado:     in.Grado,
		IDPeriodo: in.IDPeriodo,
		IDDocente: in.IDDocente,
	}
	if payload.Nombre == "" {
		payload.Nombre = current.Nombre
	}
	if payload.Grado == 0 {
		payload.Grado = current.Grado
	}
	if payload.IDPeriodo == 0 {
		payload.IDPeriodo = current.IDPeriodo
	}
	if payload.IDDocente == 0 {
		payload.IDDocente = current.TeacherID()
	}

	switch {
	case payload.Nombre == "":
		return nil, invalid("El nombre del grupo no puede estar vacío")
	case payload.Grado < 1 || payload.Grado > 6:
		return nil, invalid("El grado debe estar entre 1 y 6")
	case payload.IDPeriodo <= 0:
		return nil, invalid("No se pudo obtener el periodo actual del grupo")
	case payload.IDDocente <= 0:
		return nil, invalid("No se pudo obtener el docente actual del grupo")
	}

	s.logger.Debug("updating group", zap.Int64("id", id), zap.Any("payload", payload))
	res, err := s.client.Put(ctx, fmt.Sprintf("%s/%d", groupsPath, id), payload)
	return send(res, err, normalize.Group)
}

// Delete removes a group.
func (s *GroupService) Delete(ctx context.Context, id int64) (bool, error) {
	return remove(ctx, s.client, fmt.Sprintf("%s/%d", groupsPath, id))
}

// Validate checks a group payload.
func (s *GroupService) Validate(in GroupInput) validation.Result {
	in.Nombre = strings.TrimSpace(in.Nombre)
	return s.validator.Validate(in, groupMessages)
}
