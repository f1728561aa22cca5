package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/noah-isme/sicali-client/internal/app"
	"github.com/noah-isme/sicali-client/internal/models"
	"github.com/noah-isme/sicali-client/internal/service"
)

// NewUsersCommand creates the users command group.
func NewUsersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"usuarios"},
		Short:   "Manage user accounts",
	}

	var role string
	list := &cobra.Command{
		Use:           "list",
		Short:         "List users",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				var (
					items []models.User
					err   error
				)
				if role != "" {
					items, err = a.Users.GetByRole(ctx, role)
				} else {
					items, err = a.Users.GetAll(ctx)
				}
				if err != nil {
					return err
				}
				return out.Success(items, userTable(items...))
			})
		},
	}
	list.Flags().StringVar(&role, "rol", "", "only users with this role")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:           "get ID",
		Short:         "Show one user",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				item, err := a.Users.GetByID(ctx, id)
				if err != nil {
					return err
				}
				return out.Success(item, userTable(*item))
			})
		},
	})

	var in service.UserInput
	create := &cobra.Command{
		Use:           "create",
		Short:         "Create a user",
		Long:          "Create a user. Codes are normalized and the account is created active.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				item, err := a.Users.Create(ctx, in)
				if err != nil {
					return err
				}
				return out.Success(item, userTable(*item))
			})
		},
	}
	bindUserFlags(create.Flags(), &in)
	cmd.AddCommand(create)

	var upd service.UserInput
	update := &cobra.Command{
		Use:           "update ID",
		Short:         "Update a user",
		Long:          "Update a user. The password is only sent when --password is given.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				item, err := a.Users.Update(ctx, id, upd)
				if err != nil {
					return err
				}
				return out.Success(item, userTable(*item))
			})
		},
	}
	bindUserFlags(update.Flags(), &upd)
	cmd.AddCommand(update)

	cmd.AddCommand(newDeleteCommand(rootOpts, "user", func(ctx context.Context, a *app.App, id int64) (bool, error) {
		return a.Users.Delete(ctx, id)
	}))

	var check service.UserInput
	validate := &cobra.Command{
		Use:           "validate",
		Short:         "Validate a user payload without sending it",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				res := a.Users.Validate(check)
				table := &Table{Headers: []string{"VALIDO", "ERRORES"}}
				table.Rows = append(table.Rows, []string{boolText(res.IsValid), joinLines(res.Errors)})
				return out.Success(res, table)
			})
		},
	}
	bindUserFlags(validate.Flags(), &check)
	cmd.AddCommand(validate)

	cmd.AddCommand(newCodeCheckCommand(rootOpts, "validate-curp CURP", "Check the format of a CURP", func(a *app.App, code string) bool {
		return a.Users.ValidateCURP(code)
	}))
	cmd.AddCommand(newCodeCheckCommand(rootOpts, "validate-rfc RFC", "Check the format of an RFC", func(a *app.App, code string) bool {
		return a.Users.ValidateRFC(code)
	}))

	return cmd
}

func bindUserFlags(fs *pflag.FlagSet, in *service.UserInput) {
	fs.StringVar(&in.Nombre, "nombre", "", "given name")
	fs.StringVar(&in.ApeP, "ape-p", "", "first surname")
	fs.StringVar(&in.ApeM, "ape-m", "", "second surname")
	fs.StringVar(&in.Curp, "curp", "", "CURP (18 characters)")
	fs.StringVar(&in.Rfc, "rfc", "", "RFC (12 or 13 characters)")
	fs.StringVar(&in.Sexo, "sexo", "", "M or F")
	fs.StringVar(&in.Usuario, "usuario", "", "login name")
	fs.StringVar(&in.Password, "password", "", "password (at least 6 characters on create)")
	fs.StringVar(&in.Rol, "rol", "", "docente|estudiante|director|tutor|admin")
	fs.StringVar(&in.Estado, "estado", "", "Activo or Inactivo")
}

func newCodeCheckCommand(rootOpts *RootOptions, use, short string, check func(a *app.App, code string) bool) *cobra.Command {
	return &cobra.Command{
		Use:           use,
		Short:         short,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				valid := check(a, args[0])
				table := &Table{Rows: [][]string{{args[0], boolText(valid)}}}
				return out.Success(map[string]any{"value": args[0], "valid": valid}, table)
			})
		},
	}
}
