package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sicali-client/internal/app"
	"github.com/noah-isme/sicali-client/internal/service"
)

// NewCyclesCommand creates the cycles command group.
func NewCyclesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cycles",
		Aliases: []string{"ciclos"},
		Short:   "Manage academic cycles",
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "list",
		Short:         "List cycles",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				items, err := a.Cycles.GetAll(ctx)
				if err != nil {
					return err
				}
				return out.Success(items, cycleTable(items...))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "get ID",
		Short:         "Show one cycle",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				item, err := a.Cycles.GetByID(ctx, id)
				if err != nil {
					return err
				}
				return out.Success(item, cycleTable(*item))
			})
		},
	})

	cmd.AddCommand(newCycleWriteCommand(rootOpts, false))
	cmd.AddCommand(newCycleWriteCommand(rootOpts, true))
	cmd.AddCommand(newDeleteCommand(rootOpts, "cycle", func(ctx context.Context, a *app.App, id int64) (bool, error) {
		return a.Cycles.Delete(ctx, id)
	}))

	return cmd
}

func newCycleWriteCommand(rootOpts *RootOptions, update bool) *cobra.Command {
	var in service.CycleInput

	use, short, args := "create", "Create a cycle", cobra.NoArgs
	if update {
		use, short, args = "update ID", "Replace a cycle", cobra.ExactArgs(1)
	}

	cmd := &cobra.Command{
		Use:           use,
		Short:         short,
		Args:          args,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				if !update {
					item, err := a.Cycles.Create(ctx, in)
					if err != nil {
						return err
					}
					return out.Success(item, cycleTable(*item))
				}
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				item, err := a.Cycles.Update(ctx, id, in)
				if err != nil {
					return err
				}
				return out.Success(item, cycleTable(*item))
			})
		},
	}

	cmd.Flags().StringVar(&in.Nombre, "nombre", "", "cycle name")
	cmd.Flags().StringVar(&in.FechaInicio, "inicio", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&in.FechaFin, "fin", "", "end date (YYYY-MM-DD)")

	return cmd
}

// newDeleteCommand builds "delete ID" for resources identified by one id.
func newDeleteCommand(rootOpts *RootOptions, noun string, del func(ctx context.Context, a *app.App, id int64) (bool, error)) *cobra.Command {
	return &cobra.Command{
		Use:           "delete ID",
		Short:         "Delete a " + noun,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				ok, err := del(ctx, a, id)
				if err != nil {
					return err
				}
				return out.Success(deleted(ok), nil)
			})
		},
	}
}
