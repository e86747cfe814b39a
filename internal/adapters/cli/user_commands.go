package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"3tcapital/ducactl/internal/core/user"
)

func (c *CLI) usersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "usuarios",
		Aliases: []string{"users"},
		Short:   "Administración de usuarios",
	}
	cmd.AddCommand(c.usersListCommand(), c.usersCreateCommand(), c.usersActivateCommand())
	return cmd
}

func (c *CLI) usersListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Lista los usuarios",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.warnRole(cmd, rolesAdmin...)

			users, err := c.app.Users.List(cmd.Context())
			if err != nil {
				return err
			}
			return render(c.out, c.flags.Output, users, func(tw *tabwriter.Writer) {
				writeUsers(tw, users)
			})
		},
	}
}

func (c *CLI) usersCreateCommand() *cobra.Command {
	var nu user.NewUser
	var rol string

	cmd := &cobra.Command{
		Use:   "crear",
		Short: "Crea un usuario",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.warnRole(cmd, rolesAdmin...)

			nu.Rol = user.Role(rol)
			created, err := c.app.Users.Create(cmd.Context(), nu)
			if err != nil {
				return err
			}
			return c.printUser("Usuario creado", created)
		},
	}

	f := cmd.Flags()
	f.StringVar(&nu.Nombre, "nombre", "", "nombre completo")
	f.StringVar(&nu.Correo, "correo", "", "correo electrónico")
	f.StringVar(&nu.Password, "password", "", "contraseña inicial (mínimo 6 caracteres)")
	f.StringVar(&rol, "rol", string(user.RoleTransportista), "rol: TRANSPORTISTA|AGENTE|ADMIN")
	return cmd
}

func (c *CLI) usersActivateCommand() *cobra.Command {
	var activo bool

	cmd := &cobra.Command{
		Use:   "activar ID",
		Short: "Activa o desactiva un usuario (sin --activo alterna el estado)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.warnRole(cmd, rolesAdmin...)

			id := user.ID(args[0])
			var (
				updated user.User
				err     error
			)
			if cmd.Flags().Changed("activo") {
				updated, err = c.app.Users.SetActive(cmd.Context(), id, activo)
			} else {
				updated, err = c.app.Users.Toggle(cmd.Context(), id)
			}
			if err != nil {
				return err
			}

			title := "Usuario desactivado"
			if updated.Activo {
				title = "Usuario activado"
			}
			return c.printUser(title, updated)
		},
	}
	cmd.Flags().BoolVar(&activo, "activo", true, "estado deseado")
	return cmd
}

func (c *CLI) printUser(title string, u user.User) error {
	return render(c.out, c.flags.Output, u, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "%s: %s <%s> %s\n", title, dash(u.Nombre), dash(u.Correo), dash(string(u.Rol)))
	})
}
