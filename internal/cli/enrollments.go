package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sicali-client/internal/app"
	"github.com/noah-isme/sicali-client/internal/models"
	"github.com/noah-isme/sicali-client/internal/service"
	appErrors "github.com/noah-isme/sicali-client/pkg/errors"
)

// NewEnrollmentsCommand creates the enrollments command group.
func NewEnrollmentsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "enrollments",
		Aliases: []string{"inscripciones"},
		Short:   "Manage student enrollments",
	}

	var listStudent, listGroup int64
	list := &cobra.Command{
		Use:           "list",
		Short:         "List enrollments",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				var (
					items []models.Enrollment
					err   error
				)
				switch {
				case listStudent != 0 && listGroup != 0:
					return usageError("--student and --group are mutually exclusive")
				case listStudent != 0:
					items, err = a.Enrollments.GetByStudent(ctx, listStudent)
				case listGroup != 0:
					items, err = a.Enrollments.GetByGroup(ctx, listGroup)
				default:
					items, err = a.Enrollments.GetAll(ctx)
				}
				if err != nil {
					return err
				}
				return out.Success(items, enrollmentTable(items...))
			})
		},
	}
	list.Flags().Int64Var(&listStudent, "student", 0, "only this student")
	list.Flags().Int64Var(&listGroup, "group", 0, "only this group")
	cmd.AddCommand(list)

	in := service.EnrollmentInput{Estado: models.StatusActive}
	enroll := &cobra.Command{
		Use:   "enroll",
		Short: "Enroll a student in a group",
		Long: `Enroll a student in a group.

An active enrollment moves the student: active enrollments in other groups are
removed first. If the new enrollment then fails the command reports
PARTIALLY_COMPLETED together with what was removed.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				if in.FechaInscripcion == "" {
					in.FechaInscripcion = today()
				}
				outcome, err := a.Enrollments.Create(ctx, in)
				if err != nil {
					if outcome != nil && appErrors.HasCode(err, appErrors.ErrPartiallyCompleted.Code) {
						return out.ErrorWithDetails(err, outcome, outcomeTable(*outcome))
					}
					return err
				}
				return out.Success(outcome, outcomeTable(*outcome))
			})
		},
	}
	enroll.Flags().Int64Var(&in.IDEstudiante, "student", 0, "student id")
	enroll.Flags().Int64Var(&in.IDGrupo, "group", 0, "group id")
	enroll.Flags().StringVar(&in.FechaInscripcion, "fecha", "", "enrollment date (default today)")
	enroll.Flags().StringVar(&in.Estado, "estado", models.StatusActive, "Activo or Inactivo")
	cmd.AddCommand(enroll)

	var multiGroup int64
	var multiStudents, multiFecha string
	enrollMultiple := &cobra.Command{
		Use:           "enroll-multiple",
		Short:         "Enroll several students in a group",
		Long:          "Enroll several students as active. Each student is handled independently and failures are listed.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				ids, err := parseIDs(multiStudents)
				if err != nil {
					return err
				}
				fecha := multiFecha
				if fecha == "" {
					fecha = today()
				}
				result := a.Enrollments.EnrollMultiple(ctx, multiGroup, ids, fecha)
				if len(result.Rejected) > 0 {
					failed := NewExitError(ExitFailure, strconv.Itoa(len(result.Rejected))+" de "+strconv.Itoa(len(ids))+" inscripciones fallaron")
					return out.ErrorWithDetails(failed, result, bulkEnrollmentTable(result))
				}
				return out.Success(result, bulkEnrollmentTable(result))
			})
		},
	}
	enrollMultiple.Flags().Int64Var(&multiGroup, "group", 0, "group id")
	enrollMultiple.Flags().StringVar(&multiStudents, "students", "", "comma separated student ids")
	enrollMultiple.Flags().StringVar(&multiFecha, "fecha", "", "enrollment date (default today)")
	cmd.AddCommand(enrollMultiple)

	var delStudent, delGroup int64
	del := &cobra.Command{
		Use:           "delete",
		Short:         "Remove a student from a group",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				ok, err := a.Enrollments.Delete(ctx, delStudent, delGroup)
				if err != nil {
					return err
				}
				return out.Success(deleted(ok), nil)
			})
		},
	}
	del.Flags().Int64Var(&delStudent, "student", 0, "student id")
	del.Flags().Int64Var(&delGroup, "group", 0, "group id")
	cmd.AddCommand(del)

	var checkStudent, checkGroup int64
	check := &cobra.Command{
		Use:           "check",
		Short:         "Report whether a student is enrolled in a group",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				enrolled := a.Enrollments.IsEnrolled(ctx, checkStudent, checkGroup)
				return out.Success(map[string]bool{"enrolled": enrolled}, &Table{Rows: [][]string{{boolText(enrolled)}}})
			})
		},
	}
	check.Flags().Int64Var(&checkStudent, "student", 0, "student id")
	check.Flags().Int64Var(&checkGroup, "group", 0, "group id")
	cmd.AddCommand(check)

	var countGroup int64
	count := &cobra.Command{
		Use:           "count",
		Short:         "Count the students of a group",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				n := a.Enrollments.CountByGroup(ctx, countGroup)
				return out.Success(map[string]int{"count": n}, &Table{Rows: [][]string{{strconv.Itoa(n)}}})
			})
		},
	}
	count.Flags().Int64Var(&countGroup, "group", 0, "group id")
	cmd.AddCommand(count)

	return cmd
}

func outcomeTable(o models.EnrollmentOutcome) *Table {
	t := &Table{Headers: []string{"ESTADO", "ESTUDIANTE", "GRUPO", "BAJAS"}}
	var student, group string
	if o.Enrollment != nil {
		student, group = itoa(o.Enrollment.IDEstudiante), itoa(o.Enrollment.IDGrupo)
	}
	var removed []string
	for _, r := range o.Removed {
		name := r.GroupName()
		if name == "" {
			name = itoa(r.IDGrupo)
		}
		removed = append(removed, name)
	}
	t.Rows = append(t.Rows, []string{string(o.State), student, group, joinLines(removed)})
	return t
}

func bulkEnrollmentTable(r models.BulkEnrollmentResult) *Table {
	t := &Table{Headers: []string{"ESTUDIANTE", "RESULTADO", "DETALLE"}}
	for _, o := range r.Fulfilled {
		if o.Enrollment == nil {
			continue
		}
		t.Rows = append(t.Rows, []string{itoa(o.Enrollment.IDEstudiante), string(o.State), ""})
	}
	for _, rej := range r.Rejected {
		t.Rows = append(t.Rows, []string{itoa(rej.IDEstudiante), "Error", rej.Error})
	}
	return t
}
