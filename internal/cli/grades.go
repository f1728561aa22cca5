package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sicali-client/internal/app"
	"github.com/noah-isme/sicali-client/internal/models"
	"github.com/noah-isme/sicali-client/internal/service"
)

var partialFlags = []string{"p1", "p2", "p3", "p4"}

// NewGradesCommand creates the grades command group.
func NewGradesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "grades",
		Aliases: []string{"calificaciones"},
		Short:   "Capture and review partial scores",
	}

	var listStudent, listGroup, listSubject int64
	list := &cobra.Command{
		Use:           "list",
		Short:         "List grades",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				var (
					items []models.Grade
					err   error
				)
				switch {
				case listStudent != 0:
					items, err = a.Grades.GetByStudent(ctx, listStudent)
				case listGroup != 0:
					items, err = a.Grades.GetByGroup(ctx, listGroup)
				case listSubject != 0:
					items, err = a.Grades.GetBySubject(ctx, listSubject)
				default:
					items, err = a.Grades.GetAll(ctx)
				}
				if err != nil {
					return err
				}
				return out.Success(items, gradeTable(items...))
			})
		},
	}
	list.Flags().Int64Var(&listStudent, "student", 0, "only this student")
	list.Flags().Int64Var(&listGroup, "group", 0, "only this group")
	list.Flags().Int64Var(&listSubject, "subject", 0, "only this subject")
	list.MarkFlagsMutuallyExclusive("student", "group", "subject")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:           "get ID",
		Short:         "Show one grade",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				item, err := a.Grades.GetByID(ctx, id)
				if err != nil {
					return err
				}
				return out.Success(item, gradeTable(*item))
			})
		},
	})

	cmd.AddCommand(newGradeWriteCommand(rootOpts, false))
	cmd.AddCommand(newGradeWriteCommand(rootOpts, true))

	cmd.AddCommand(newDeleteCommand(rootOpts, "grade", func(ctx context.Context, a *app.App, id int64) (bool, error) {
		return a.Grades.Delete(ctx, id)
	}))

	var openGroup, openSubject int64
	var openStudents string
	open := &cobra.Command{
		Use:           "open",
		Short:         "Open empty grades for students of a group in a subject",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				ids, err := parseIDs(openStudents)
				if err != nil {
					return err
				}
				items, err := a.Grades.CreateBulk(ctx, openGroup, openSubject, ids)
				if err != nil {
					return bulkFailure(out, err, items, gradeTable(deref(items)...))
				}
				return out.Success(items, gradeTable(deref(items)...))
			})
		},
	}
	open.Flags().Int64Var(&openGroup, "group", 0, "group id")
	open.Flags().Int64Var(&openSubject, "subject", 0, "subject id")
	open.Flags().StringVar(&openStudents, "students", "", "comma separated student ids")
	cmd.AddCommand(open)

	var parcial int
	var scores string
	partial := &cobra.Command{
		Use:   "partial",
		Short: "Write one partial for several grades",
		Long: `Write partial number --parcial for each grade in --scores, given as
gradeID=value pairs. An empty value clears the partial.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				ids, values, err := parsePairs(scores)
				if err != nil {
					return err
				}
				items := make([]service.PartialScore, len(ids))
				for i, id := range ids {
					items[i].IDCalificacion = id
					if values[i] == "" {
						continue
					}
					v, err := strconv.ParseFloat(values[i], 64)
					if err != nil {
						return usageError("invalid score %q for grade %d", values[i], id)
					}
					items[i].Valor = &v
				}
				updated, err := a.Grades.UpdatePartial(ctx, items, parcial)
				if err != nil {
					return bulkFailure(out, err, updated, gradeTable(deref(updated)...))
				}
				return out.Success(updated, gradeTable(deref(updated)...))
			})
		},
	}
	partial.Flags().IntVar(&parcial, "parcial", 0, "partial number (1 to 4)")
	partial.Flags().StringVar(&scores, "scores", "", "comma separated gradeID=value pairs")
	cmd.AddCommand(partial)

	average := &cobra.Command{
		Use:           "average",
		Short:         "Compute the average of the given partials",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				in, err := gradeInputFromFlags(cmd, service.GradeInput{})
				if err != nil {
					return err
				}
				if res := a.Grades.Validate(in); !res.IsValid {
					return out.ErrorWithDetails(NewExitError(ExitFailure, joinLines(res.Errors)), res, nil)
				}
				avg := a.Grades.Average(in)
				return out.Success(map[string]*float64{"promedio": avg}, &Table{Rows: [][]string{{score(avg)}}})
			})
		},
	}
	bindPartialFlags(average)
	cmd.AddCommand(average)

	return cmd
}

func newGradeWriteCommand(rootOpts *RootOptions, update bool) *cobra.Command {
	var base service.GradeInput

	use, short, args := "create", "Create a grade", cobra.NoArgs
	if update {
		use, short, args = "update ID", "Replace the partials of a grade", cobra.ExactArgs(1)
	}

	cmd := &cobra.Command{
		Use:           use,
		Short:         short,
		Args:          args,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				in, err := gradeInputFromFlags(cmd, base)
				if err != nil {
					return err
				}
				var item *models.Grade
				if update {
					id, perr := parseID(args[0])
					if perr != nil {
						return perr
					}
					item, err = a.Grades.Update(ctx, id, in)
				} else {
					item, err = a.Grades.Create(ctx, in)
				}
				if err != nil {
					return err
				}
				return out.Success(item, gradeTable(*item))
			})
		},
	}

	cmd.Flags().Int64Var(&base.IDEstudiante, "student", 0, "student id")
	cmd.Flags().Int64Var(&base.IDGrupo, "group", 0, "group id")
	cmd.Flags().Int64Var(&base.IDAsignatura, "subject", 0, "subject id")
	bindPartialFlags(cmd)

	return cmd
}

func bindPartialFlags(cmd *cobra.Command) {
	for i, name := range partialFlags {
		cmd.Flags().Float64(name, 0, "partial "+strconv.Itoa(i+1)+" (0 to 10, omit if not captured)")
	}
}

func gradeInputFromFlags(cmd *cobra.Command, in service.GradeInput) (service.GradeInput, error) {
	targets := []**float64{&in.Calificacion1, &in.Calificacion2, &in.Calificacion3, &in.Calificacion4}
	for i, name := range partialFlags {
		v, err := optionalScore(cmd, name)
		if err != nil {
			return in, err
		}
		*targets[i] = v
	}
	return in, nil
}
