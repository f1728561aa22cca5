package service

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/noah-isme/sicali-client/internal/models"
	"github.com/noah-isme/sicali-client/internal/normalize"
	"github.com/noah-isme/sicali-client/pkg/metrics"
	"github.com/noah-isme/sicali-client/pkg/validation"
)

const gradesPath = "/calificaciones"

// GradeInput carries the flat ids and the four partial scores. Nil scores are
// sent as null.
type GradeInput struct {
	IDEstudiante  int64    `json:"idEstudiante"`
	IDGrupo       int64    `json:"idGrupo"`
	IDAsignatura  int64    `json:"idAsignatura"`
	Calificacion1 *float64 `json:"calificacion1"`
	Calificacion2 *float64 `json:"calificacion2"`
	Calificacion3 *float64 `json:"calificacion3"`
	Calificacion4 *float64 `json:"calificacion4"`
}

// Partials returns the scores in order.
func (in GradeInput) Partials() [4]*float64 {
	return [4]*float64{in.Calificacion1, in.Calificacion2, in.Calificacion3, in.Calificacion4}
}

type partialsPayload struct {
	Calificacion1 *float64 `json:"calificacion1"`
	Calificacion2 *float64 `json:"calificacion2"`
	Calificacion3 *float64 `json:"calificacion3"`
	Calificacion4 *float64 `json:"calificacion4"`
}

// PartialScore sets one partial of an existing grade.
type PartialScore struct {
	IDCalificacion int64    `json:"idCalificacion"`
	Valor          *float64 `json:"valor"`
}

type subjectNames interface {
	NameCache(ctx context.Context) map[int64]string
}

// GradeService manages partial scores. List views degrade to an empty list when
// the backend fails; reads are labelled with subject names from the subject table.
type GradeService struct {
	client      transport
	subjects    subjectNames
	validator   *validation.Validator
	logger      *zap.Logger
	metrics     *metrics.Metrics
	concurrency int
}

// NewGradeService constructs GradeService. subjects may be nil to skip name
// enrichment; m may be nil.
func NewGradeService(client transport, subjects subjectNames, validate *validation.Validator, logger *zap.Logger, m *metrics.Metrics, concurrency int) *GradeService {
	validate, logger = defaults(validate, logger)
	return &GradeService{client: client, subjects: subjects, validator: validate, logger: logger, metrics: m, concurrency: concurrency}
}

// GetAll lists every grade.
func (s *GradeService) GetAll(ctx context.Context) ([]models.Grade, error) {
	return s.list(ctx, "grades.list", gradesPath)
}

// GetByID returns one grade.
func (s *GradeService) GetByID(ctx context.Context, id int64) (*models.Grade, error) {
	grade, err := fetchOne(ctx, s.client, fmt.Sprintf("%s/%d", gradesPath, id), normalize.Grade)
	if err != nil {
		return nil, err
	}
	s.enrich(ctx, []*models.Grade{grade})
	return grade, nil
}

// GetByStudent lists the grades of a student.
func (s *GradeService) GetByStudent(ctx context.Context, studentID int64) ([]models.Grade, error) {
	return s.list(ctx, "grades.by_student", fmt.Sprintf("%s/estudiante/%d", gradesPath, studentID))
}

// GetByGroup lists the grades of a group.
func (s *GradeService) GetByGroup(ctx context.Context, groupID int64) ([]models.Grade, error) {
	return s.list(ctx, "grades.by_group", fmt.Sprintf("%s/grupo/%d", gradesPath, groupID))
}

// GetBySubject lists the grades of a subject.
func (s *GradeService) GetBySubject(ctx context.Context, subjectID int64) ([]models.Grade, error) {
	return s.list(ctx, "grades.by_subject", fmt.Sprintf("%s/asignatura/%d", gradesPath, subjectID))
}

func (s *GradeService) list(ctx context.Context, op, path string) ([]models.Grade, error) {
	grades, err := fetchList(ctx, s.client, path, normalize.Grade, "calificaciones")
	grades, err = degrade(s.logger, op, grades, err)
	if err != nil {
		return nil, err
	}
	refs := make([]*models.Grade, len(grades))
	for i := range grades {
		refs[i] = &grades[i]
	}
	s.enrich(ctx, refs)
	return grades, nil
}

func (s *GradeService) enrich(ctx context.Context, grades []*models.Grade) {
	if s.subjects == nil || len(grades) == 0 {
		return
	}
	names := s.subjects.NameCache(ctx)
	for _, g := range grades {
		if g == nil || g.IDAsignatura == 0 {
			continue
		}
		if name, ok := names[g.IDAsignatura]; ok {
			g.NombreAsignatura = name
		}
	}
}

// Create validates the scores and ids and submits a new grade.
func (s *GradeService) Create(ctx context.Context, in GradeInput) (*models.Grade, error) {
	if res := s.Validate(in); !res.IsValid {
		return nil, validationFailed(res.Errors)
	}
	switch {
	case in.IDEstudiante <= 0:
		return nil, invalid("ID de estudiante inválido")
	case in.IDGrupo <= 0:
		return nil, invalid("ID de grupo inválido")
	case in.IDAsignatura <= 0:
		return nil, invalid("ID de asignatura inválido")
	}
	res, err := s.client.Post(ctx, gradesPath, in)
	return send(res, err, normalize.Grade)
}

// Update replaces the four partials of a grade. Ids are not sent.
func (s *GradeService) Update(ctx context.Context, id int64, in GradeInput) (*models.Grade, error) {
	if res := s.Validate(in); !res.IsValid {
		return nil, validationFailed(res.Errors)
	}
	payload := partialsPayload{
		Calificacion1: in.Calificacion1,
		Calificacion2: in.Calificacion2,
		Calificacion3: in.Calificacion3,
		Calificacion4: in.Calificacion4,
	}
	res, err := s.client.Put(ctx, fmt.Sprintf("%s/%d", gradesPath, id), payload)
	return send(res, err, normalize.Grade)
}

// Delete removes a grade.
func (s *GradeService) Delete(ctx context.Context, id int64) (bool, error) {
	return remove(ctx, s.client, fmt.Sprintf("%s/%d", gradesPath, id))
}

// CreateBulk opens an empty grade for each student of a group in a subject.
func (s *GradeService) CreateBulk(ctx context.Context, groupID, subjectID int64, studentIDs []int64) ([]*models.Grade, error) {
	return runBulk(ctx, s.metrics, "grades_open", s.concurrency, studentIDs, func(ctx context.Context, studentID int64) (*models.Grade, error) {
		return s.Create(ctx, GradeInput{IDEstudiante: studentID, IDGrupo: groupID, IDAsignatura: subjectID})
	})
}

// UpdatePartial writes partial number parcial (1 to 4) for each item. The backend
// replaces all four partials on update, so every request carries the target
// value and null for the other three.
func (s *GradeService) UpdatePartial(ctx context.Context, items []PartialScore, parcial int) ([]*models.Grade, error) {
	if parcial < 1 || parcial > 4 {
		return nil, invalid("El parcial debe estar entre 1 y 4")
	}
	return runBulk(ctx, s.metrics, "grades_partial", s.concurrency, items, func(ctx context.Context, item PartialScore) (*models.Grade, error) {
		var in GradeInput
		switch parcial {
		case 1:
			in.Calificacion1 = item.Valor
		case 2:
			in.Calificacion2 = item.Valor
		case 3:
			in.Calificacion3 = item.Valor
		case 4:
			in.Calificacion4 = item.Valor
		}
		return s.Update(ctx, item.IDCalificacion, in)
	})
}

// Validate checks that every present partial lies in [0, 10].
func (s *GradeService) Validate(in GradeInput) validation.Result {
	errs := []string{}
	for i, p := range in.Partials() {
		if p != nil && (math.IsNaN(*p) || *p < 0 || *p > 10) {
			errs = append(errs, fmt.Sprintf("Calificación %d debe estar entre 0 y 10", i+1))
		}
	}
	return validation.Result{IsValid: len(errs) == 0, Errors: errs}
}

// Average is the mean of the present partials rounded to two decimals, nil when none.
func (s *GradeService) Average(in GradeInput) *float64 {
	p := in.Partials()
	return models.Average(p[:]...)
}
