package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sicali-client/internal/app"
	"github.com/noah-isme/sicali-client/internal/service"
)

// NewSubjectsCommand creates the subjects command group.
func NewSubjectsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "subjects",
		Aliases: []string{"asignaturas"},
		Short:   "Manage subjects",
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "list",
		Short:         "List subjects",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				items, err := a.Subjects.GetAll(ctx)
				if err != nil {
					return err
				}
				return out.Success(items, subjectTable(items...))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "get ID",
		Short:         "Show one subject",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				item, err := a.Subjects.GetByID(ctx, id)
				if err != nil {
					return err
				}
				return out.Success(item, subjectTable(*item))
			})
		},
	})

	var in service.SubjectInput
	create := &cobra.Command{
		Use:           "create",
		Short:         "Create a subject",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				item, err := a.Subjects.Create(ctx, in)
				if err != nil {
					return err
				}
				return out.Success(item, subjectTable(*item))
			})
		},
	}
	create.Flags().StringVar(&in.Nombre, "nombre", "", "subject name")
	cmd.AddCommand(create)

	var upd service.SubjectInput
	update := &cobra.Command{
		Use:           "update ID",
		Short:         "Rename a subject",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				item, err := a.Subjects.Update(ctx, id, upd)
				if err != nil {
					return err
				}
				return out.Success(item, subjectTable(*item))
			})
		},
	}
	update.Flags().StringVar(&upd.Nombre, "nombre", "", "subject name")
	cmd.AddCommand(update)

	cmd.AddCommand(newDeleteCommand(rootOpts, "subject", func(ctx context.Context, a *app.App, id int64) (bool, error) {
		return a.Subjects.Delete(ctx, id)
	}))

	return cmd
}
