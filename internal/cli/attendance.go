package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/noah-isme/sicali-client/internal/app"
	"github.com/noah-isme/sicali-client/internal/models"
	"github.com/noah-isme/sicali-client/internal/service"
)

type attendanceFilter struct {
	student int64
	group   int64
	date    string
}

func (f *attendanceFilter) bind(fs *pflag.FlagSet) {
	fs.Int64Var(&f.student, "student", 0, "only this student")
	fs.Int64Var(&f.group, "group", 0, "only this group")
	fs.StringVar(&f.date, "date", "", "only this date (YYYY-MM-DD)")
}

func (f *attendanceFilter) fetch(ctx context.Context, a *app.App) ([]models.Attendance, error) {
	set := 0
	for _, on := range []bool{f.student != 0, f.group != 0, f.date != ""} {
		if on {
			set++
		}
	}
	if set > 1 {
		return nil, usageError("use only one of --student, --group or --date")
	}
	switch {
	case f.student != 0:
		return a.Attendance.GetByStudent(ctx, f.student)
	case f.group != 0:
		return a.Attendance.GetByGroup(ctx, f.group)
	case f.date != "":
		return a.Attendance.GetByDate(ctx, f.date)
	default:
		return a.Attendance.GetAll(ctx)
	}
}

// NewAttendanceCommand creates the attendance command group.
func NewAttendanceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "attendance",
		Aliases: []string{"asistencia"},
		Short:   "Record and review daily attendance",
	}

	var listFilter attendanceFilter
	list := &cobra.Command{
		Use:           "list",
		Short:         "List attendance records",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				items, err := listFilter.fetch(ctx, a)
				if err != nil {
					return err
				}
				return out.Success(items, attendanceTable(items...))
			})
		},
	}
	listFilter.bind(list.Flags())
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:           "get ID",
		Short:         "Show one record",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				item, err := a.Attendance.GetByID(ctx, id)
				if err != nil {
					return err
				}
				return out.Success(item, attendanceTable(*item))
			})
		},
	})

	var in service.AttendanceInput
	var skipValidation bool
	record := &cobra.Command{
		Use:           "record",
		Short:         "Record one student's attendance",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				if in.Fecha == "" {
					in.Fecha = today()
				}
				item, err := a.Attendance.Create(ctx, in, skipValidation)
				if err != nil {
					return err
				}
				return out.Success(item, attendanceTable(*item))
			})
		},
	}
	bindAttendanceFlags(record.Flags(), &in)
	record.Flags().BoolVar(&skipValidation, "skip-validation", false, "send without local validation")
	cmd.AddCommand(record)

	var captureGroup int64
	var captureDate, captureStudents, captureEntries string
	capture := &cobra.Command{
		Use:   "capture",
		Short: "Capture the attendance of a group on one date",
		Long: `Capture the attendance of several students of a group.

Students given with --students are recorded as present. --entries sets the
status per student, for example 12=Falta,13=Permiso.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				var rows []service.StudentAttendance
				if captureStudents != "" {
					ids, err := parseIDs(captureStudents)
					if err != nil {
						return err
					}
					for _, id := range ids {
						rows = append(rows, service.StudentAttendance{IDEstudiante: id})
					}
				}
				if captureEntries != "" {
					ids, statuses, err := parsePairs(captureEntries)
					if err != nil {
						return err
					}
					for i, id := range ids {
						rows = append(rows, service.StudentAttendance{IDEstudiante: id, Estado: statuses[i]})
					}
				}
				if len(rows) == 0 {
					return usageError("--students or --entries is required")
				}
				date := captureDate
				if date == "" {
					date = today()
				}
				items, err := a.Attendance.CreateBulk(ctx, captureGroup, date, rows)
				if err != nil {
					return bulkFailure(out, err, items, attendanceTable(deref(items)...))
				}
				return out.Success(items, attendanceTable(deref(items)...))
			})
		},
	}
	capture.Flags().Int64Var(&captureGroup, "group", 0, "group id")
	capture.Flags().StringVar(&captureDate, "date", "", "date (default today)")
	capture.Flags().StringVar(&captureStudents, "students", "", "comma separated student ids recorded as present")
	capture.Flags().StringVar(&captureEntries, "entries", "", "comma separated student=status pairs")
	cmd.AddCommand(capture)

	var upd service.AttendanceInput
	update := &cobra.Command{
		Use:           "update ID",
		Short:         "Replace a record",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				item, err := a.Attendance.Update(ctx, id, upd)
				if err != nil {
					return err
				}
				return out.Success(item, attendanceTable(*item))
			})
		},
	}
	bindAttendanceFlags(update.Flags(), &upd)
	cmd.AddCommand(update)

	cmd.AddCommand(newDeleteCommand(rootOpts, "record", func(ctx context.Context, a *app.App, id int64) (bool, error) {
		return a.Attendance.Delete(ctx, id)
	}))

	var pctStudent, pctGroup int64
	percentage := &cobra.Command{
		Use:           "percentage",
		Short:         "Show a student's attendance rate in a group",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				pct := a.Attendance.Percentage(ctx, pctStudent, pctGroup)
				text := strconv.FormatFloat(pct, 'f', 2, 64) + "%"
				return out.Success(map[string]float64{"porcentaje": pct}, &Table{Rows: [][]string{{text}}})
			})
		},
	}
	percentage.Flags().Int64Var(&pctStudent, "student", 0, "student id")
	percentage.Flags().Int64Var(&pctGroup, "group", 0, "group id")
	cmd.AddCommand(percentage)

	var statsFilter attendanceFilter
	stats := &cobra.Command{
		Use:           "stats",
		Short:         "Count records per status",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				items, err := statsFilter.fetch(ctx, a)
				if err != nil {
					return err
				}
				st := a.Attendance.Stats(items)
				table := &Table{
					Headers: []string{"TOTAL", "ASISTENCIAS", "FALTAS", "PERMISOS", "PORCENTAJE"},
					Rows: [][]string{{
						strconv.Itoa(st.Total), strconv.Itoa(st.Asistencias), strconv.Itoa(st.Faltas),
						strconv.Itoa(st.Permisos), strconv.FormatFloat(st.Porcentaje, 'f', 2, 64) + "%",
					}},
				}
				return out.Success(st, table)
			})
		},
	}
	statsFilter.bind(stats.Flags())
	cmd.AddCommand(stats)

	return cmd
}

func bindAttendanceFlags(fs *pflag.FlagSet, in *service.AttendanceInput) {
	fs.Int64Var(&in.IDEstudiante, "student", 0, "student id")
	fs.Int64Var(&in.IDGrupo, "group", 0, "group id")
	fs.StringVar(&in.Fecha, "date", "", "date (YYYY-MM-DD)")
	fs.StringVar(&in.Estado, "estado", models.AttendancePresent, "Asistencia, Falta or Permiso")
}
