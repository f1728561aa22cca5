package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sicali-client/internal/models"
	"github.com/noah-isme/sicali-client/internal/normalize"
	"github.com/noah-isme/sicali-client/pkg/validation"
)

const cyclesPath = "/ciclos"

// CycleInput is the payload for creating or updating a cycle.
type CycleInput struct {
	Nombre      string `json:"nombre" validate:"required"`
	FechaInicio string `json:"fechaInicio" validate:"required,isodate"`
	FechaFin    string `json:"fechaFin" validate:"required,isodate"`
}

var cycleMessages = validation.Messages{
	"nombre.required":      "El nombre del ciclo es requerido",
	"fechaInicio.required": "La fecha de inicio es requerida",
	"fechaInicio.isodate":  "La fecha de inicio debe tener el formato YYYY-MM-DD",
	"fechaFin.required":    "La fecha de fin es requerida",
	"fechaFin.isodate":     "La fecha de fin debe tener el formato YYYY-MM-DD",
}

// CycleService manages academic cycles.
type CycleService struct {
	client    transport
	validator *validation.Validator
	logger    *zap.Logger
}

// NewCycleService constructs CycleService.
func NewCycleService(client transport, validate *validation.Validator, logger *zap.Logger) *CycleService {
	validate, logger = defaults(validate, logger)
	return &CycleService{client: client, validator: validate, logger: logger}
}

// GetAll lists every cycle.
func (s *CycleService) GetAll(ctx context.Context) ([]models.Cycle, error) {
	return fetchList(ctx, s.client, cyclesPath, normalize.Cycle, "ciclos")
}

// GetByID returns one cycle.
func (s *CycleService) GetByID(ctx context.Context, id int64) (*models.Cycle, error) {
	return fetchOne(ctx, s.client, fmt.Sprintf("%s/%d", cyclesPath, id), normalize.Cycle)
}

// Create validates and submits a new cycle.
func (s *CycleService) Create(ctx context.Context, in CycleInput) (*models.Cycle, error) {
	in = in.sanitized()
	if res := s.Validate(in); !res.IsValid {
		return nil, validationFailed(res.Errors)
	}
	res, err := s.client.Post(ctx, cyclesPath, in)
	return send(res, err, normalize.Cycle)
}

// Update validates and replaces a cycle.
func (s *CycleService) Update(ctx context.Context, id int64, in CycleInput) (*models.Cycle, error) {
	in = in.sanitized()
	if res := s.Validate(in); !res.IsValid {
		return nil, validationFailed(res.Errors)
	}
	res, err := s.client.Put(ctx, fmt.Sprintf("%s/%d", cyclesPath, id), in)
	return send(res, err, normalize.Cycle)
}

// Delete removes a cycle.
func (s *CycleService) Delete(ctx context.Context, id int64) (bool, error) {
	return remove(ctx, s.client, fmt.Sprintf("%s/%d", cyclesPath, id))
}

// Validate checks required fields, date format and that the cycle starts before it ends.
func (s *CycleService) Validate(in CycleInput) validation.Result {
	in = in.sanitized()
	errs := s.validator.Check(in, cycleMessages)
	if validation.ValidISODate(in.FechaInicio) && validation.ValidISODate(in.FechaFin) {
		start, _ := time.Parse(time.DateOnly, in.FechaInicio)
		end, _ := time.Parse(time.DateOnly, in.FechaFin)
		if !start.Before(end) {
			errs = append(errs, "La fecha de inicio debe ser anterior a la fecha de fin")
		}
	}
	if errs == nil {
		errs = []string{}
	}
	return validation.Result{IsValid: len(errs) == 0, Errors: errs}
}

func (in CycleInput) sanitized() CycleInput {
	in.Nombre = strings.TrimSpace(in.Nombre)
	in.FechaInicio = strings.TrimSpace(in.FechaInicio)
	in.FechaFin = strings.TrimSpace(in.FechaFin)
	return in
}
