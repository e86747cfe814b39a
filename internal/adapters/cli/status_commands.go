package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (c *CLI) statusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "estados",
		Aliases: []string{"status"},
		Short:   "Lista las DUCA con su estado actual",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.warnRole(cmd, rolesCarrier...)

			items, err := c.app.Declarations.Statuses(cmd.Context())
			if err != nil {
				return err
			}
			return render(c.out, c.flags.Output, items, func(tw *tabwriter.Writer) {
				writeSummaries(tw, items)
			})
		},
	}
	cmd.AddCommand(c.statusShowCommand())
	return cmd
}

func (c *CLI) statusShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show NUMERO",
		Short: "Muestra el historial de estados de una DUCA",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.warnRole(cmd, rolesCarrier...)

			history, err := c.app.Declarations.History(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return render(c.out, c.flags.Output, history, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "DUCA %s: %s\n\n", history.Numero, history.Current().Label())
				writeHistory(tw, history.Historial)
			})
		},
	}
}
