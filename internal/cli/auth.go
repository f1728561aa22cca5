package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sicali-client/internal/app"
	"github.com/noah-isme/sicali-client/internal/models"
)

// LoginOptions holds flags for the login command.
type LoginOptions struct {
	*RootOptions
	Usuario  string
	Password string
}

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoginOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Open a session",
		Long: `Match the credentials against the backend user list and store the session.

The password may also be given through SICALI_PASSWORD. With the memory
session backend the session only lives for this invocation; set
SESSION_BACKEND=redis to keep it between commands.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Password == "" {
				opts.Password = os.Getenv("SICALI_PASSWORD")
			}
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				result, err := a.Auth.Login(ctx, models.Credentials{Usuario: opts.Usuario, Password: opts.Password})
				if err != nil {
					return err
				}
				out.VerboseLog("session stored for %s", result.User.Usuario)
				return out.Success(result, userInfoTable(result.User))
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Usuario, "usuario", "u", "", "user name")
	cmd.Flags().StringVarP(&opts.Password, "password", "p", "", "password")

	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "logout",
		Short:         "Forget the stored session",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				if err := a.Auth.Logout(ctx); err != nil {
					return err
				}
				return out.Success(map[string]bool{"loggedOut": true}, nil)
			})
		},
	}
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand(rootOpts *RootOptions) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:           "whoami",
		Short:         "Show the logged-in user",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				user, err := a.Auth.CurrentUser(ctx)
				if err != nil {
					return err
				}
				if role != "" {
					has := a.Auth.HasRole(ctx, role)
					return out.Success(map[string]any{"user": user, "rol": role, "hasRole": has}, nil)
				}
				return out.Success(user, userInfoTable(*user))
			})
		},
	}

	cmd.Flags().StringVar(&role, "has-role", "", "report whether the user has this role")

	return cmd
}

func userInfoTable(u models.UserInfo) *Table {
	return &Table{
		Headers: []string{"ID", "USUARIO", "NOMBRE", "ROL", "ESTADO"},
		Rows:    [][]string{{itoa(u.ID), u.Usuario, fullName(u.Nombre, u.ApeP, u.ApeM), u.Rol, u.Estado}},
	}
}
