package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"3tcapital/ducactl/internal/core/session"
)

func (c *CLI) loginCommand() *cobra.Command {
	var email, password string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Inicia sesión y guarda el token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if passwordStdin {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("leer contraseña: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}

			sess, err := c.app.Auth.Login(cmd.Context(), session.Credentials{Email: email, Password: password})
			if err != nil {
				return err
			}
			return render(c.out, c.flags.Output, sess, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "Sesión iniciada como %s (%s)\n", sess.Email, dash(sess.Role))
			})
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "correo del usuario")
	cmd.Flags().StringVarP(&password, "password", "p", "", "contraseña")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "leer la contraseña de la entrada estándar")
	_ = cmd.MarkFlagRequired("email")
	cmd.MarkFlagsMutuallyExclusive("password", "password-stdin")
	return cmd
}

func (c *CLI) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Cierra la sesión actual",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.Auth.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Sesión cerrada")
			return nil
		},
	}
}

type whoami struct {
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Expired   bool       `json:"expired"`
}

func (c *CLI) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Muestra la sesión actual",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := c.app.Auth.Current(cmd.Context())
			if errors.Is(err, session.ErrNoSession) || (err == nil && !id.Valid()) {
				return session.ErrNoSession
			}
			if err != nil {
				return err
			}

			view := whoami{Email: id.Email, Role: id.Role, CreatedAt: id.CreatedAt, Expired: id.Expired}
			if !id.ExpiresAt.IsZero() {
				view.ExpiresAt = &id.ExpiresAt
			}
			return render(c.out, c.flags.Output, view, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "Correo:\t%s\n", dash(view.Email))
				fmt.Fprintf(tw, "Rol:\t%s\n", dash(view.Role))
				if !view.CreatedAt.IsZero() {
					fmt.Fprintf(tw, "Desde:\t%s\n", view.CreatedAt.Local().Format(time.DateTime))
				}
				if view.ExpiresAt != nil {
					state := "vigente"
					if view.Expired {
						state = "expirado"
					}
					fmt.Fprintf(tw, "Expira:\t%s (%s)\n", view.ExpiresAt.Local().Format(time.DateTime), state)
				}
			})
		},
	}
}
