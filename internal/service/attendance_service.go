package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/noah-isme/sicali-client/internal/models"
	"github.com/noah-isme/sicali-client/internal/normalize"
	"github.com/noah-isme/sicali-client/pkg/metrics"
	"github.com/noah-isme/sicali-client/pkg/validation"
)

const attendancePath = "/asistencias"

// AttendanceInput is the flat payload for one attendance record.
type AttendanceInput struct {
	IDEstudiante int64  `json:"idEstudiante" validate:"required"`
	IDGrupo      int64  `json:"idGrupo" validate:"required"`
	Fecha        string `json:"fecha" validate:"required,isodate"`
	Estado       string `json:"estado" validate:"oneof=Asistencia Falta Permiso"`
}

var attendanceMessages = validation.Messages{
	"idEstudiante.required": "El estudiante es requerido",
	"idGrupo.required":      "El grupo es requerido",
	"fecha.required":        "La fecha es requerida",
	"fecha.isodate":         "El formato de fecha debe ser YYYY-MM-DD",
	"estado.oneof":          "El estado debe ser: Asistencia, Falta o Permiso",
}

// StudentAttendance is one row of a group capture. An empty Estado means present.
type StudentAttendance struct {
	IDEstudiante int64  `json:"id_usuario"`
	Estado       string `json:"estado,omitempty"`
}

// AttendanceService records daily attendance. List views degrade to an empty
// list when the backend fails so capture screens stay usable.
type AttendanceService struct {
	client      transport
	validator   *validation.Validator
	logger      *zap.Logger
	metrics     *metrics.Metrics
	concurrency int
}

// NewAttendanceService constructs AttendanceService. concurrency bounds bulk
// capture; m may be nil.
func NewAttendanceService(client transport, validate *validation.Validator, logger *zap.Logger, m *metrics.Metrics, concurrency int) *AttendanceService {
	validate, logger = defaults(validate, logger)
	return &AttendanceService{client: client, validator: validate, logger: logger, metrics: m, concurrency: concurrency}
}

// GetAll lists every record.
func (s *AttendanceService) GetAll(ctx context.Context) ([]models.Attendance, error) {
	items, err := fetchList(ctx, s.client, attendancePath, normalize.Attendance, "asistencias")
	return degrade(s.logger, "attendance.list", items, err)
}

// GetByID returns one record.
func (s *AttendanceService) GetByID(ctx context.Context, id int64) (*models.Attendance, error) {
	return fetchOne(ctx, s.client, fmt.Sprintf("%s/%d", attendancePath, id), normalize.Attendance)
}

// GetByStudent lists the records of a student.
func (s *AttendanceService) GetByStudent(ctx context.Context, studentID int64) ([]models.Attendance, error) {
	items, err := fetchList(ctx, s.client, fmt.Sprintf("%s/estudiante/%d", attendancePath, studentID), normalize.Attendance, "asistencias")
	return degrade(s.logger, "attendance.by_student", items, err)
}

// GetByGroup lists the records of a group.
func (s *AttendanceService) GetByGroup(ctx context.Context, groupID int64) ([]models.Attendance, error) {
	items, err := fetchList(ctx, s.client, fmt.Sprintf("%s/grupo/%d", attendancePath, groupID), normalize.Attendance, "asistencias")
	return degrade(s.logger, "attendance.by_group", items, err)
}

// GetByDate lists the records taken on a YYYY-MM-DD date.
func (s *AttendanceService) GetByDate(ctx context.Context, date string) ([]models.Attendance, error) {
	date = strings.TrimSpace(date)
	if !validation.ValidISODate(date) {
		return nil, invalid("El formato de fecha debe ser YYYY-MM-DD")
	}
	items, err := fetchList(ctx, s.client, fmt.Sprintf("%s/fecha/%s", attendancePath, date), normalize.Attendance, "asistencias")
	return degrade(s.logger, "attendance.by_date", items, err)
}

// Create submits a record. skipValidation is for callers that already validated the batch.
func (s *AttendanceService) Create(ctx context.Context, in AttendanceInput, skipValidation bool) (*models.Attendance, error) {
	in = in.sanitized()
	if !skipValidation {
		if res := s.Validate(in); !res.IsValid {
			return nil, validationFailed(res.Errors)
		}
	}
	res, err := s.client.Post(ctx, attendancePath, in)
	return send(res, err, normalize.Attendance)
}

// CreateBulk captures the attendance of several students of a group on one date.
// Rows default to present. The first failure in input order is returned with
// whatever was created.
func (s *AttendanceService) CreateBulk(ctx context.Context, groupID int64, date string, students []StudentAttendance) ([]*models.Attendance, error) {
	return runBulk(ctx, s.metrics, "attendance_capture", s.concurrency, students, func(ctx context.Context, st StudentAttendance) (*models.Attendance, error) {
		status := st.Estado
		if strings.TrimSpace(status) == "" {
			status = models.AttendancePresent
		}
		return s.Create(ctx, AttendanceInput{
			IDEstudiante: st.IDEstudiante,
			IDGrupo:      groupID,
			Fecha:        date,
			Estado:       status,
		}, false)
	})
}

// Update replaces a record with the given flat payload.
func (s *AttendanceService) Update(ctx context.Context, id int64, in AttendanceInput) (*models.Attendance, error) {
	in = in.sanitized()
	res, err := s.client.Put(ctx, fmt.Sprintf("%s/%d", attendancePath, id), in)
	return send(res, err, normalize.Attendance)
}

// Delete removes a record.
func (s *AttendanceService) Delete(ctx context.Context, id int64) (bool, error) {
	return remove(ctx, s.client, fmt.Sprintf("%s/%d", attendancePath, id))
}

// Validate checks a record. The date must name a real calendar day.
func (s *AttendanceService) Validate(in AttendanceInput) validation.Result {
	return s.validator.Validate(in.sanitized(), attendanceMessages)
}

// Percentage asks the backend for a student's attendance rate in a group. Any
// failure reads as 0.
func (s *AttendanceService) Percentage(ctx context.Context, studentID, groupID int64) float64 {
	res, err := s.client.Get(ctx, fmt.Sprintf("%s/porcentaje/%d/%d", attendancePath, studentID, groupID), nil)
	data, err := unwrap(res, err)
	if err != nil {
		s.logger.Warn("attendance percentage unavailable", zap.Int64("student_id", studentID), zap.Int64("group_id", groupID), zap.Error(err))
		return 0
	}
	return parsePercentage(data, res.Text)
}

func parsePercentage(data json.RawMessage, text string) float64 {
	raw := bytes.TrimSpace(data)
	if len(raw) == 0 {
		raw = []byte(strings.TrimSpace(text))
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		v = string(raw)
	}
	if obj, ok := v.(map[string]any); ok {
		for _, key := range []string{"porcentaje", "porcentajeAsistencia", "data"} {
			if inner, found := obj[key]; found {
				v = inner
				break
			}
		}
	}
	if n, ok := v.(json.Number); ok {
		v = n.String()
	}
	pct, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(pct) {
		return 0
	}
	return pct
}

// Stats counts records per status. The rate is present/total*100 rounded to two
// decimals, 0 for an empty list.
func (s *AttendanceService) Stats(records []models.Attendance) models.AttendanceStats {
	return AttendanceStats(records)
}

// AttendanceStats is Stats without a service.
func AttendanceStats(records []models.Attendance) models.AttendanceStats {
	stats := models.AttendanceStats{Total: len(records)}
	for _, r := range records {
		switch r.Estado {
		case models.AttendancePresent:
			stats.Asistencias++
		case models.AttendanceAbsent:
			stats.Faltas++
		case models.AttendanceExcused:
			stats.Permisos++
		}
	}
	if stats.Total > 0 {
		stats.Porcentaje = math.Round(float64(stats.Asistencias)/float64(stats.Total)*10000) / 100
	}
	return stats
}

func (in AttendanceInput) sanitized() AttendanceInput {
	in.Fecha = strings.TrimSpace(in.Fecha)
	in.Estado = strings.TrimSpace(in.Estado)
	return in
}
