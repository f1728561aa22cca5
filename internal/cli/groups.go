package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/noah-isme/sicali-client/internal/app"
	"github.com/noah-isme/sicali-client/internal/models"
	"github.com/noah-isme/sicali-client/internal/service"
)

// NewGroupsCommand creates the groups command group.
func NewGroupsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "groups",
		Aliases: []string{"grupos"},
		Short:   "Manage groups",
	}

	var teacherID, periodID int64
	list := &cobra.Command{
		Use:           "list",
		Short:         "List groups",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				var (
					items []models.Group
					err   error
				)
				switch {
				case teacherID != 0 && periodID != 0:
					return usageError("--docente and --periodo are mutually exclusive")
				case teacherID != 0:
					items, err = a.Groups.GetByTeacher(ctx, teacherID)
				case periodID != 0:
					items, err = a.Groups.GetByPeriod(ctx, periodID)
				default:
					items, err = a.Groups.GetAll(ctx)
				}
				if err != nil {
					return err
				}
				return out.Success(items, groupTable(items...))
			})
		},
	}
	list.Flags().Int64Var(&teacherID, "docente", 0, "only groups of this teacher")
	list.Flags().Int64Var(&periodID, "periodo", 0, "only groups of this period")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:           "get ID",
		Short:         "Show one group",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				item, err := a.Groups.GetByID(ctx, id)
				if err != nil {
					return err
				}
				return out.Success(item, groupTable(*item))
			})
		},
	})

	var in service.GroupInput
	create := &cobra.Command{
		Use:           "create",
		Short:         "Create a group",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				item, err := a.Groups.Create(ctx, in)
				if err != nil {
					return err
				}
				return out.Success(item, groupTable(*item))
			})
		},
	}
	bindGroupFlags(create.Flags(), &in)
	cmd.AddCommand(create)

	var upd service.GroupInput
	update := &cobra.Command{
		Use:           "update ID",
		Short:         "Update a group",
		Long:          "Update a group. Omitted period and teacher keep their current values.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				item, err := a.Groups.Update(ctx, id, upd)
				if err != nil {
					return err
				}
				return out.Success(item, groupTable(*item))
			})
		},
	}
	bindGroupFlags(update.Flags(), &upd)
	cmd.AddCommand(update)

	cmd.AddCommand(newDeleteCommand(rootOpts, "group", func(ctx context.Context, a *app.App, id int64) (bool, error) {
		return a.Groups.Delete(ctx, id)
	}))

	return cmd
}

func bindGroupFlags(fs *pflag.FlagSet, in *service.GroupInput) {
	fs.StringVar(&in.Nombre, "nombre", "", "group name")
	fs.IntVar(&in.Grado, "grado", 0, "grade (1 to 6)")
	fs.Int64Var(&in.IDPeriodo, "periodo", 0, "cycle id")
	fs.Int64Var(&in.IDDocente, "docente", 0, "teacher user id")
}
