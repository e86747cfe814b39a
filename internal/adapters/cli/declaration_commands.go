package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"3tcapital/ducactl/internal/core/declaration"
	httpclient "3tcapital/ducactl/internal/infrastructure/http"
)

const maxPayloadBytes = 4 << 20

func (c *CLI) declarationCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "duca",
		Short: "Consulta y registro de DUCA",
	}
	cmd.AddCommand(c.declarationShowCommand(), c.declarationRegisterCommand())
	return cmd
}

func (c *CLI) declarationShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show NUMERO",
		Short: "Muestra el detalle y el historial de una DUCA",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.warnRole(cmd)

			dossier, err := c.app.Declarations.Dossier(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if dossier.HistoryErr != nil {
				fmt.Fprintf(c.errOut, "Aviso: historial no disponible (%s), se muestra el incluido en el detalle\n", Message(dossier.HistoryErr))
			}

			view := struct {
				declaration.Detail
				Historial []declaration.StatusEntry `json:"historial"`
			}{Detail: dossier.Detail, Historial: dossier.History.Historial}
			return render(c.out, c.flags.Output, view, func(tw *tabwriter.Writer) {
				writeDossier(tw, dossier)
			})
		},
	}
}

func (c *CLI) declarationRegisterCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:     "registrar",
		Aliases: []string{"register"},
		Short:   "Registra una DUCA a partir de un archivo JSON",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.warnRole(cmd, rolesCarrier...)

			d, err := readDeclaration(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			result, err := c.app.Declarations.Register(cmd.Context(), d)
			if err != nil {
				return err
			}
			return render(c.out, c.flags.Output, result, func(tw *tabwriter.Writer) {
				msg := result.Message
				if msg == "" {
					msg = "DUCA registrada"
				}
				fmt.Fprintf(tw, "%s: %s (%s)\n", msg, result.Numero, result.Estado.Label())
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "archivo JSON con la declaración (- para la entrada estándar)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// readDeclaration decodes the payload file; "-" reads stdin. Unknown fields are rejected
// so typos in field names do not go unnoticed.
func readDeclaration(stdin io.Reader, path string) (declaration.Declaration, error) {
	var r io.Reader
	if path == "-" {
		r = stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return declaration.Declaration{}, fmt.Errorf("abrir %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	dec := json.NewDecoder(io.LimitReader(r, maxPayloadBytes))
	dec.DisallowUnknownFields()

	var d declaration.Declaration
	if err := dec.Decode(&d); err != nil {
		return declaration.Declaration{}, httpclient.NewValidationError(fmt.Sprintf("archivo de declaración inválido: %v", err))
	}
	return d, nil
}
