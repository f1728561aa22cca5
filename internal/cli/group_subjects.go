package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sicali-client/internal/app"
	"github.com/noah-isme/sicali-client/internal/models"
	"github.com/noah-isme/sicali-client/internal/service"
)

// NewGroupSubjectsCommand creates the group-subjects command group.
func NewGroupSubjectsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "group-subjects",
		Aliases: []string{"grupo-asignaturas"},
		Short:   "Manage the subjects taught in each group",
	}

	var listGroup int64
	list := &cobra.Command{
		Use:           "list",
		Short:         "List assignments",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				var (
					items []models.GroupSubject
					err   error
				)
				if listGroup != 0 {
					items, err = a.GroupSubjects.GetByGroup(ctx, listGroup)
				} else {
					items, err = a.GroupSubjects.GetAll(ctx)
				}
				if err != nil {
					return err
				}
				return out.Success(items, groupSubjectTable(items...))
			})
		},
	}
	list.Flags().Int64Var(&listGroup, "group", 0, "only this group")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:           "get ID",
		Short:         "Show one assignment",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				item, err := a.GroupSubjects.GetByID(ctx, id)
				if err != nil {
					return err
				}
				return out.Success(item, groupSubjectTable(*item))
			})
		},
	})

	var in service.GroupSubjectInput
	assign := &cobra.Command{
		Use:           "assign",
		Short:         "Assign a subject to a group",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				item, err := a.GroupSubjects.Create(ctx, in)
				if err != nil {
					return err
				}
				return out.Success(item, groupSubjectTable(*item))
			})
		},
	}
	assign.Flags().Int64Var(&in.IDGrupo, "group", 0, "group id")
	assign.Flags().Int64Var(&in.IDAsignatura, "subject", 0, "subject id")
	cmd.AddCommand(assign)

	var multiGroup int64
	var multiSubjects string
	assignMultiple := &cobra.Command{
		Use:           "assign-multiple",
		Short:         "Assign several subjects to a group",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				ids, err := parseIDs(multiSubjects)
				if err != nil {
					return err
				}
				items, err := a.GroupSubjects.AssignMultiple(ctx, multiGroup, ids)
				if err != nil {
					return bulkFailure(out, err, items, groupSubjectTable(deref(items)...))
				}
				return out.Success(items, groupSubjectTable(deref(items)...))
			})
		},
	}
	assignMultiple.Flags().Int64Var(&multiGroup, "group", 0, "group id")
	assignMultiple.Flags().StringVar(&multiSubjects, "subjects", "", "comma separated subject ids")
	cmd.AddCommand(assignMultiple)

	cmd.AddCommand(newDeleteCommand(rootOpts, "assignment", func(ctx context.Context, a *app.App, id int64) (bool, error) {
		return a.GroupSubjects.Delete(ctx, id)
	}))

	var checkGroup, checkSubject int64
	check := &cobra.Command{
		Use:           "check",
		Short:         "Report whether a subject is assigned to a group",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				assigned := a.GroupSubjects.IsAssigned(ctx, checkGroup, checkSubject)
				table := &Table{Rows: [][]string{{boolText(assigned)}}}
				return out.Success(map[string]bool{"assigned": assigned}, table)
			})
		},
	}
	check.Flags().Int64Var(&checkGroup, "group", 0, "group id")
	check.Flags().Int64Var(&checkSubject, "subject", 0, "subject id")
	cmd.AddCommand(check)

	var countGroup int64
	count := &cobra.Command{
		Use:           "count",
		Short:         "Count the subjects of a group",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				n := a.GroupSubjects.CountByGroup(ctx, countGroup)
				return out.Success(map[string]int{"count": n}, &Table{Rows: [][]string{{strconv.Itoa(n)}}})
			})
		},
	}
	count.Flags().Int64Var(&countGroup, "group", 0, "group id")
	cmd.AddCommand(count)

	return cmd
}
