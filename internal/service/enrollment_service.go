package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sicali-client/internal/models"
	"github.com/noah-isme/sicali-client/internal/normalize"
	appErrors "github.com/noah-isme/sicali-client/pkg/errors"
	"github.com/noah-isme/sicali-client/pkg/fanout"
	"github.com/noah-isme/sicali-client/pkg/metrics"
	"github.com/noah-isme/sicali-client/pkg/validation"
)

const enrollmentsPath = "/estudiante-grupos"

// EnrollmentInput describes a student joining a group.
type EnrollmentInput struct {
	IDEstudiante     int64  `json:"idEstudiante" validate:"required"`
	IDGrupo          int64  `json:"idGrupo" validate:"required"`
	FechaInscripcion string `json:"fechaInscripcion" validate:"required"`
	Estado           string `json:"estado" validate:"oneof=Activo Inactivo"`
}

var enrollmentMessages = validation.Messages{
	"idEstudiante.required":     "El estudiante es requerido",
	"idGrupo.required":          "El grupo es requerido",
	"fechaInscripcion.required": "La fecha de inscripción es requerida",
	"estado.oneof":              "El estado debe ser Activo o Inactivo",
}

// the backend expects nested references on this resource
type enrollmentPayload struct {
	Estudiante struct {
		IDUsuario int64 `json:"id_usuario"`
	} `json:"estudiante"`
	Grupo struct {
		IDGrupo int64 `json:"idGrupo"`
	} `json:"grupo"`
	FechaInscripcion string `json:"fechaInscripcion"`
	Estado           string `json:"estado"`
}

// EnrollmentService manages student enrollments. A student has at most one
// active enrollment; creating an active one in another group is a transfer.
type EnrollmentService struct {
	client      transport
	validator   *validation.Validator
	logger      *zap.Logger
	metrics     *metrics.Metrics
	concurrency int
}

// NewEnrollmentService constructs EnrollmentService. concurrency bounds bulk
// enrollment; m may be nil.
func NewEnrollmentService(client transport, validate *validation.Validator, logger *zap.Logger, m *metrics.Metrics, concurrency int) *EnrollmentService {
	validate, logger = defaults(validate, logger)
	return &EnrollmentService{client: client, validator: validate, logger: logger, metrics: m, concurrency: concurrency}
}

// GetAll lists every enrollment.
func (s *EnrollmentService) GetAll(ctx context.Context) ([]models.Enrollment, error) {
	return fetchList(ctx, s.client, enrollmentsPath, normalize.Enrollment)
}

// GetByStudent lists the enrollments of a student.
func (s *EnrollmentService) GetByStudent(ctx context.Context, studentID int64) ([]models.Enrollment, error) {
	return fetchList(ctx, s.client, fmt.Sprintf("%s/estudiante/%d", enrollmentsPath, studentID), normalize.Enrollment)
}

// GetByGroup lists the enrollments of a group.
func (s *EnrollmentService) GetByGroup(ctx context.Context, groupID int64) ([]models.Enrollment, error) {
	return fetchList(ctx, s.client, fmt.Sprintf("%s/grupo/%d", enrollmentsPath, groupID), normalize.Enrollment)
}

// Create enrolls a student. For an active enrollment it runs in two phases:
// active enrollments in other groups are deleted first, then the new one is
// created. Being already active in the same group is a conflict.
//
// The phases are not atomic. When something was deleted and the rest fails, the
// returned outcome has state PartiallyCompleted and lists what was removed, and
// the error carries the PARTIALLY_COMPLETED code.
func (s *EnrollmentService) Create(ctx context.Context, in EnrollmentInput) (*models.EnrollmentOutcome, error) {
	in.FechaInscripcion = strings.TrimSpace(in.FechaInscripcion)
	in.Estado = strings.TrimSpace(in.Estado)

	switch {
	case in.IDEstudiante <= 0:
		return nil, invalid("ID de estudiante inválido")
	case in.IDGrupo <= 0:
		return nil, invalid("ID de grupo inválido")
	case in.FechaInscripcion == "":
		return nil, invalid("Fecha de inscripción requerida")
	case in.Estado == "":
		return nil, invalid("Estado requerido")
	case in.Estado != models.StatusActive && in.Estado != models.StatusInactive:
		return nil, invalid("El estado debe ser Activo o Inactivo")
	}

	outcome := &models.EnrollmentOutcome{State: models.EnrollmentCreated}

	if in.Estado == models.StatusActive {
		current, err := s.GetByStudent(ctx, in.IDEstudiante)
		if err != nil {
			return nil, err
		}
		var previous []models.Enrollment
		for _, e := range current {
			if !e.IsActive() {
				continue
			}
			if e.IDGrupo == in.IDGrupo {
				return nil, appErrors.Clone(appErrors.ErrConflict,
					fmt.Sprintf("El estudiante ya está inscrito en el grupo %s", groupLabel(e)))
			}
			previous = append(previous, e)
		}

		for _, e := range previous {
			if _, err := s.Delete(ctx, e.IDEstudiante, e.IDGrupo); err != nil {
				return s.partial(outcome, in, err)
			}
			outcome.Removed = append(outcome.Removed, e)
			s.logger.Info("previous enrollment removed",
				zap.Int64("student_id", e.IDEstudiante),
				zap.Int64("group_id", e.IDGrupo),
				zap.Int64("target_group_id", in.IDGrupo),
			)
		}
	}

	var payload enrollmentPayload
	payload.Estudiante.IDUsuario = in.IDEstudiante
	payload.Grupo.IDGrupo = in.IDGrupo
	payload.FechaInscripcion = in.FechaInscripcion
	payload.Estado = in.Estado

	res, err := s.client.Post(ctx, enrollmentsPath, payload)
	created, err := send(res, err, normalize.Enrollment)
	if err != nil {
		return s.partial(outcome, in, err)
	}
	if created == nil {
		created = &models.Enrollment{
			IDEstudiante:     in.IDEstudiante,
			IDGrupo:          in.IDGrupo,
			FechaInscripcion: in.FechaInscripcion,
			Estado:           in.Estado,
		}
	}
	outcome.Enrollment = created
	if len(outcome.Removed) > 0 {
		outcome.State = models.EnrollmentTransferred
	}
	return outcome, nil
}

func (s *EnrollmentService) partial(outcome *models.EnrollmentOutcome, in EnrollmentInput, cause error) (*models.EnrollmentOutcome, error) {
	if len(outcome.Removed) == 0 {
		return nil, cause
	}
	outcome.State = models.EnrollmentPartiallyCompleted
	s.logger.Error("enrollment transfer left the student without an active group",
		zap.Int64("student_id", in.IDEstudiante),
		zap.Int64("target_group_id", in.IDGrupo),
		zap.Int("removed", len(outcome.Removed)),
		zap.Error(cause),
	)
	return outcome, appErrors.Wrap(cause, appErrors.ErrPartiallyCompleted.Code, appErrors.ErrPartiallyCompleted.Status,
		"Se dieron de baja las inscripciones anteriores pero no se pudo crear la nueva")
}

// EnrollMultiple enrolls every student as active in the group. Each student is
// handled independently: failures are collected in Rejected and never stop the batch.
func (s *EnrollmentService) EnrollMultiple(ctx context.Context, groupID int64, studentIDs []int64, fecha string) models.BulkEnrollmentResult {
	outcomes := fanout.Run(ctx, s.concurrency, studentIDs, func(ctx context.Context, studentID int64) (*models.EnrollmentOutcome, error) {
		return s.Create(ctx, EnrollmentInput{
			IDEstudiante:     studentID,
			IDGrupo:          groupID,
			FechaInscripcion: fecha,
			Estado:           models.StatusActive,
		})
	})

	result := models.BulkEnrollmentResult{
		Fulfilled: []models.EnrollmentOutcome{},
		Rejected:  []models.EnrollmentRejection{},
	}
	for _, o := range outcomes {
		if o.Err != nil {
			result.Rejected = append(result.Rejected, models.EnrollmentRejection{
				IDEstudiante: studentIDs[o.Index],
				Outcome:      o.Value,
				Error:        o.Err.Error(),
			})
			continue
		}
		result.Fulfilled = append(result.Fulfilled, *o.Value)
	}
	s.metrics.ObserveBulk("enroll_students", len(result.Fulfilled), len(result.Rejected))
	return result
}

// Delete removes the enrollment of a student in a group.
func (s *EnrollmentService) Delete(ctx context.Context, studentID, groupID int64) (bool, error) {
	return remove(ctx, s.client, fmt.Sprintf("%s/%d/%d", enrollmentsPath, studentID, groupID))
}

// Validate checks an enrollment payload.
func (s *EnrollmentService) Validate(in EnrollmentInput) validation.Result {
	in.FechaInscripcion = strings.TrimSpace(in.FechaInscripcion)
	in.Estado = strings.TrimSpace(in.Estado)
	return s.validator.Validate(in, enrollmentMessages)
}

// IsEnrolled reports whether the student is actively enrolled in the group.
// Lookup failures read as false.
func (s *EnrollmentService) IsEnrolled(ctx context.Context, studentID, groupID int64) bool {
	enrollments, err := s.GetByStudent(ctx, studentID)
	if err != nil {
		s.logger.Warn("enrollment lookup failed", zap.Int64("student_id", studentID), zap.Error(err))
		return false
	}
	for _, e := range enrollments {
		if e.IDGrupo == groupID && e.IsActive() {
			return true
		}
	}
	return false
}

// CountByGroup returns the number of active students in a group, or 0 when the lookup fails.
func (s *EnrollmentService) CountByGroup(ctx context.Context, groupID int64) int {
	enrollments, err := s.GetByGroup(ctx, groupID)
	if err != nil {
		s.logger.Warn("enrollment count failed", zap.Int64("group_id", groupID), zap.Error(err))
		return 0
	}
	count := 0
	for _, e := range enrollments {
		if e.IsActive() {
			count++
		}
	}
	return count
}

func groupLabel(e models.Enrollment) string {
	if name := e.GroupName(); name != "" {
		return name
	}
	return strconv.FormatInt(e.IDGrupo, 10)
}
