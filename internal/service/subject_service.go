package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/sicali-client/internal/models"
	"github.com/noah-isme/sicali-client/internal/normalize"
	"github.com/noah-isme/sicali-client/pkg/metrics"
	"github.com/noah-isme/sicali-client/pkg/validation"
)

const subjectsPath = "/asignaturas"

// unnamedSubject is shown for subjects the backend sends without a name.
const unnamedSubject = "Sin nombre"

// SubjectInput is the payload for creating or updating a subject.
type SubjectInput struct {
	Nombre string `json:"nombre" validate:"required"`
}

var subjectMessages = validation.Messages{
	"nombre.required": "El nombre de la asignatura es requerido",
}

// SubjectService manages subjects and keeps the id to name table used to label grades.
type SubjectService struct {
	client    transport
	validator *validation.Validator
	logger    *zap.Logger
	metrics   *metrics.Metrics

	mu    sync.Mutex
	names map[int64]string
}

// NewSubjectService constructs SubjectService. m may be nil.
func NewSubjectService(client transport, validate *validation.Validator, logger *zap.Logger, m *metrics.Metrics) *SubjectService {
	validate, logger = defaults(validate, logger)
	return &SubjectService{client: client, validator: validate, logger: logger, metrics: m}
}

// GetAll lists every subject.
func (s *SubjectService) GetAll(ctx context.Context) ([]models.Subject, error) {
	return fetchList(ctx, s.client, subjectsPath, normalize.Subject, "asignaturas")
}

// GetByID returns one subject.
func (s *SubjectService) GetByID(ctx context.Context, id int64) (*models.Subject, error) {
	return fetchOne(ctx, s.client, fmt.Sprintf("%s/%d", subjectsPath, id), normalize.Subject)
}

// Create validates and submits a new subject.
func (s *SubjectService) Create(ctx context.Context, in SubjectInput) (*models.Subject, error) {
	in.Nombre = validation.CollapseSpaces(in.Nombre)
	if res := s.Validate(in); !res.IsValid {
		return nil, validationFailed(res.Errors)
	}
	res, err := s.client.Post(ctx, subjectsPath, in)
	return send(res, err, normalize.Subject)
}

// Update validates and replaces a subject. The name table is not refreshed.
func (s *SubjectService) Update(ctx context.Context, id int64, in SubjectInput) (*models.Subject, error) {
	in.Nombre = validation.CollapseSpaces(in.Nombre)
	if res := s.Validate(in); !res.IsValid {
		return nil, validationFailed(res.Errors)
	}
	res, err := s.client.Put(ctx, fmt.Sprintf("%s/%d", subjectsPath, id), in)
	return send(res, err, normalize.Subject)
}

// Delete removes a subject.
func (s *SubjectService) Delete(ctx context.Context, id int64) (bool, error) {
	return remove(ctx, s.client, fmt.Sprintf("%s/%d", subjectsPath, id))
}

// Validate checks a subject payload.
func (s *SubjectService) Validate(in SubjectInput) validation.Result {
	in.Nombre = strings.TrimSpace(in.Nombre)
	return s.validator.Validate(in, subjectMessages)
}

// NameCache returns the subject id to name table. It is fetched once per service
// lifetime and never refreshed, so renames show up only in a new process. A
// failed fetch yields an empty table and is retried on the next call.
func (s *SubjectService) NameCache(ctx context.Context) map[int64]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.names != nil {
		s.metrics.RecordCacheOperation(true)
		return s.names
	}
	s.metrics.RecordCacheOperation(false)

	subjects, err := s.GetAll(ctx)
	if err != nil {
		s.logger.Warn("subject names unavailable", zap.Error(err))
		return map[int64]string{}
	}

	names := make(map[int64]string, len(subjects))
	for _, subject := range subjects {
		if subject.ID == 0 {
			continue
		}
		name := subject.Nombre
		if name == "" {
			name = unnamedSubject
		}
		names[subject.ID] = name
	}
	s.names = names
	return names
}
