package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/sicali-client/internal/models"
	"github.com/noah-isme/sicali-client/internal/normalize"
	"github.com/noah-isme/sicali-client/pkg/metrics"
	"github.com/noah-isme/sicali-client/pkg/validation"
)

const groupSubjectsPath = "/grupo-asignatura"

// GroupSubjectInput assigns a subject to a group.
type GroupSubjectInput struct {
	IDGrupo      int64 `json:"idGrupo" validate:"required"`
	IDAsignatura int64 `json:"idAsignatura" validate:"required"`
}

var groupSubjectMessages = validation.Messages{
	"idGrupo.required":      "El grupo es requerido",
	"idAsignatura.required": "La asignatura es requerida",
}

// GroupSubjectService manages the subjects taught in each group.
type GroupSubjectService struct {
	client      transport
	validator   *validation.Validator
	logger      *zap.Logger
	metrics     *metrics.Metrics
	concurrency int
}

// NewGroupSubjectService constructs GroupSubjectService. concurrency bounds bulk
// assignments; m may be nil.
func NewGroupSubjectService(client transport, validate *validation.Validator, logger *zap.Logger, m *metrics.Metrics, concurrency int) *GroupSubjectService {
	validate, logger = defaults(validate, logger)
	return &GroupSubjectService{client: client, validator: validate, logger: logger, metrics: m, concurrency: concurrency}
}

// GetAll lists every assignment.
func (s *GroupSubjectService) GetAll(ctx context.Context) ([]models.GroupSubject, error) {
	return fetchList(ctx, s.client, groupSubjectsPath, normalize.GroupSubject)
}

// GetByID returns one assignment.
func (s *GroupSubjectService) GetByID(ctx context.Context, id int64) (*models.GroupSubject, error) {
	return fetchOne(ctx, s.client, fmt.Sprintf("%s/%d", groupSubjectsPath, id), normalize.GroupSubject)
}

// GetByGroup lists the subjects assigned to a group.
func (s *GroupSubjectService) GetByGroup(ctx context.Context, groupID int64) ([]models.GroupSubject, error) {
	return fetchList(ctx, s.client, fmt.Sprintf("%s/grupo/%d", groupSubjectsPath, groupID), normalize.GroupSubject)
}

// Create assigns a subject to a group. A duplicate assignment fails with the
// backend's conflict message.
func (s *GroupSubjectService) Create(ctx context.Context, in GroupSubjectInput) (*models.GroupSubject, error) {
	if res := s.Validate(in); !res.IsValid {
		return nil, validationFailed(res.Errors)
	}
	res, err := s.client.Post(ctx, groupSubjectsPath, in)
	return send(res, err, normalize.GroupSubject)
}

// AssignMultiple assigns every subject to the group concurrently. Assignments
// that succeed are kept even when another fails; the first failure in input
// order is returned with the partial results.
func (s *GroupSubjectService) AssignMultiple(ctx context.Context, groupID int64, subjectIDs []int64) ([]*models.GroupSubject, error) {
	return runBulk(ctx, s.metrics, "assign_subjects", s.concurrency, subjectIDs, func(ctx context.Context, subjectID int64) (*models.GroupSubject, error) {
		return s.Create(ctx, GroupSubjectInput{IDGrupo: groupID, IDAsignatura: subjectID})
	})
}

// Delete removes an assignment.
func (s *GroupSubjectService) Delete(ctx context.Context, id int64) (bool, error) {
	return remove(ctx, s.client, fmt.Sprintf("%s/%d", groupSubjectsPath, id))
}

// Validate checks an assignment payload.
func (s *GroupSubjectService) Validate(in GroupSubjectInput) validation.Result {
	return s.validator.Validate(in, groupSubjectMessages)
}

// IsAssigned reports whether the subject is already assigned to the group.
// Lookup failures read as false.
func (s *GroupSubjectService) IsAssigned(ctx context.Context, groupID, subjectID int64) bool {
	assignments, err := s.GetByGroup(ctx, groupID)
	if err != nil {
		s.logger.Warn("assignment lookup failed", zap.Int64("group_id", groupID), zap.Error(err))
		return false
	}
	for _, a := range assignments {
		if a.IDAsignatura.ID == subjectID {
			return true
		}
	}
	return false
}

// CountByGroup returns how many subjects the group has, or 0 when the lookup fails.
func (s *GroupSubjectService) CountByGroup(ctx context.Context, groupID int64) int {
	assignments, err := s.GetByGroup(ctx, groupID)
	if err != nil {
		s.logger.Warn("assignment count failed", zap.Int64("group_id", groupID), zap.Error(err))
		return 0
	}
	return len(assignments)
}
