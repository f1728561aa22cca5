package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sicali-client/internal/models"
	appErrors "github.com/noah-isme/sicali-client/pkg/errors"
	"github.com/noah-isme/sicali-client/pkg/export"
	"github.com/noah-isme/sicali-client/pkg/storage"
)

type gradeSource interface {
	GetByGroup(ctx context.Context, groupID int64) ([]models.Grade, error)
}

type attendanceSource interface {
	GetByGroup(ctx context.Context, groupID int64) ([]models.Attendance, error)
}

type fileStorage interface {
	Save(name string, data []byte) (string, error)
}

type linkSigner interface {
	Generate(name string) (string, time.Time, error)
}

type renderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	// BaseURL prefixes download links; links are omitted when empty.
	BaseURL string
}

// ExportResult describes a stored export.
type ExportResult struct {
	File      string        `json:"file"`
	Format    export.Format `json:"format"`
	Rows      int           `json:"rows"`
	URL       string        `json:"url,omitempty"`
	ExpiresAt *time.Time    `json:"expiresAt,omitempty"`
}

// ExportService renders grade sheets and attendance summaries and stores them.
type ExportService struct {
	grades     gradeSource
	attendance attendanceSource
	storage    fileStorage
	signer     linkSigner
	csv        renderer
	pdf        renderer
	logger     *zap.Logger
	cfg        ExportConfig
	now        func() time.Time
}

// NewExportService constructs an ExportService. signer may be nil.
func NewExportService(grades gradeSource, attendance attendanceSource, files fileStorage, signer linkSigner, cfg ExportConfig, logger *zap.Logger, csv, pdf renderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		grades:     grades,
		attendance: attendance,
		storage:    files,
		signer:     signer,
		csv:        csv,
		pdf:        pdf,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// ExportGrades renders the grades of a group, optionally limited to one subject.
func (s *ExportService) ExportGrades(ctx context.Context, groupID, subjectID int64, format export.Format) (*ExportResult, error) {
	if groupID <= 0 {
		return nil, invalid("ID de grupo inválido")
	}
	grades, err := s.grades.GetByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if subjectID > 0 {
		filtered := grades[:0]
		for _, g := range grades {
			if g.IDAsignatura == subjectID {
				filtered = append(filtered, g)
			}
		}
		grades = filtered
	}
	if len(grades) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "No hay calificaciones para exportar")
	}

	sort.SliceStable(grades, func(i, j int) bool {
		return studentSortKey(grades[i]) < studentSortKey(grades[j])
	})

	data := GradeSheet(grades)
	data.Title = fmt.Sprintf("Calificaciones del grupo %s", groupName(grades[0].NombreGrupo, groupID))
	prefix := fmt.Sprintf("calificaciones_grupo%d", groupID)
	if subjectID > 0 {
		prefix += fmt.Sprintf("_asignatura%d", subjectID)
	}
	return s.store(prefix, format, data)
}

// ExportAttendance renders per-student attendance totals of a group.
func (s *ExportService) ExportAttendance(ctx context.Context, groupID int64, format export.Format) (*ExportResult, error) {
	if groupID <= 0 {
		return nil, invalid("ID de grupo inválido")
	}
	records, err := s.attendance.GetByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "No hay asistencias para exportar")
	}

	name := ""
	if records[0].Grupo != nil {
		name = records[0].Grupo.Nombre
	}
	data := AttendanceSummary(records)
	data.Title = fmt.Sprintf("Asistencia del grupo %s", groupName(name, groupID))
	return s.store(fmt.Sprintf("asistencia_grupo%d", groupID), format, data)
}

func (s *ExportService) store(prefix string, format export.Format, data export.Dataset) (*ExportResult, error) {
	var r renderer
	switch format {
	case export.FormatCSV:
		r = s.csv
	case export.FormatPDF:
		r = s.pdf
	default:
		return nil, invalid(fmt.Sprintf("Formato de exportación no soportado: %s", format))
	}

	content, err := r.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	name, err := s.storage.Save(storage.Filename(prefix, format.Extension(), s.now()), content)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}

	result := &ExportResult{File: name, Format: format, Rows: len(data.Rows)}
	if s.signer != nil && s.cfg.BaseURL != "" {
		token, expiresAt, err := s.signer.Generate(name)
		if err != nil {
			s.logger.Warn("export link not signed", zap.String("file", name), zap.Error(err))
		} else {
			result.URL = strings.TrimRight(s.cfg.BaseURL, "/") + "/exports/" + token
			result.ExpiresAt = &expiresAt
		}
	}
	s.logger.Info("export stored", zap.String("file", name), zap.String("format", string(format)), zap.Int("rows", result.Rows))
	return result, nil
}

// GradeSheet lays grades out one row per grade. A missing average is computed
// from the captured partials.
func GradeSheet(grades []models.Grade) export.Dataset {
	data := export.Dataset{Headers: []string{
		"Estudiante", "Asignatura", "Parcial 1", "Parcial 2", "Parcial 3", "Parcial 4", "Promedio",
	}}
	for _, g := range grades {
		p := g.Partials()
		avg := g.Promedio
		if avg == nil {
			avg = models.Average(p[:]...)
		}
		subject := g.NombreAsignatura
		if subject == "" {
			subject = unnamedSubject
		}
		data.AddRow(studentLabel(g), subject, formatScore(p[0]), formatScore(p[1]), formatScore(p[2]), formatScore(p[3]), formatScore(avg))
	}
	return data
}

// AttendanceSummary totals the records per student, followed by a group row.
func AttendanceSummary(records []models.Attendance) export.Dataset {
	data := export.Dataset{Headers: []string{"Estudiante", "Asistencias", "Faltas", "Permisos", "Total", "Porcentaje"}}

	byStudent := map[int64][]models.Attendance{}
	names := map[int64]string{}
	var order []int64
	for _, r := range records {
		if _, seen := byStudent[r.IDEstudiante]; !seen {
			order = append(order, r.IDEstudiante)
		}
		byStudent[r.IDEstudiante] = append(byStudent[r.IDEstudiante], r)
		if r.Estudiante != nil && names[r.IDEstudiante] == "" {
			names[r.IDEstudiante] = r.Estudiante.FullName()
		}
	}
	for _, id := range order {
		name := names[id]
		if name == "" {
			name = "Estudiante " + strconv.FormatInt(id, 10)
		}
		data.AddRow(statsRow(name, AttendanceStats(byStudent[id]))...)
	}
	data.AddRow(statsRow("Total del grupo", AttendanceStats(records))...)
	return data
}

func statsRow(label string, st models.AttendanceStats) []string {
	return []string{
		label,
		strconv.Itoa(st.Asistencias),
		strconv.Itoa(st.Faltas),
		strconv.Itoa(st.Permisos),
		strconv.Itoa(st.Total),
		strconv.FormatFloat(st.Porcentaje, 'f', 2, 64) + "%",
	}
}

func formatScore(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func studentLabel(g models.Grade) string {
	name := strings.TrimSpace(g.NombreEstudiante + " " + g.ApellidosEstudiante)
	if name == "" {
		return "Estudiante " + strconv.FormatInt(g.IDEstudiante, 10)
	}
	return name
}

func studentSortKey(g models.Grade) string {
	return strings.ToLower(g.ApellidosEstudiante + " " + g.NombreEstudiante)
}

func groupName(name string, id int64) string {
	if name != "" {
		return name
	}
	return strconv.FormatInt(id, 10)
}
