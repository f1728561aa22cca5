package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sicali-client/internal/app"
	"github.com/noah-isme/sicali-client/internal/service"
)

// NewTutorsCommand creates the tutors command group.
func NewTutorsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tutors",
		Aliases: []string{"tutores"},
		Short:   "Manage guardians",
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "list",
		Short:         "List tutors",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				items, err := a.Tutors.GetAll(ctx)
				if err != nil {
					return err
				}
				return out.Success(items, tutorTable(items...))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "get ID",
		Short:         "Show one tutor",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				item, err := a.Tutors.GetByID(ctx, id)
				if err != nil {
					return err
				}
				return out.Success(item, tutorTable(*item))
			})
		},
	})

	var in service.TutorInput
	create := &cobra.Command{
		Use:           "create",
		Short:         "Create an active tutor",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				item, err := a.Tutors.Create(ctx, in)
				if err != nil {
					return err
				}
				return out.Success(item, tutorTable(*item))
			})
		},
	}
	bindUserFlags(create.Flags(), &in.UserInput)
	create.Flags().Int64Var(&in.IDEstudiante, "estudiante", 0, "linked student id")
	cmd.AddCommand(create)

	var upd service.TutorInput
	update := &cobra.Command{
		Use:           "update ID",
		Short:         "Update a tutor",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				item, err := a.Tutors.Update(ctx, id, upd)
				if err != nil {
					return err
				}
				return out.Success(item, tutorTable(*item))
			})
		},
	}
	bindUserFlags(update.Flags(), &upd.UserInput)
	update.Flags().Int64Var(&upd.IDEstudiante, "estudiante", 0, "linked student id")
	cmd.AddCommand(update)

	cmd.AddCommand(newDeleteCommand(rootOpts, "tutor", func(ctx context.Context, a *app.App, id int64) (bool, error) {
		return a.Tutors.Delete(ctx, id)
	}))

	return cmd
}
