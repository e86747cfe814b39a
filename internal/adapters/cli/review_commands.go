package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"3tcapital/ducactl/internal/application/review"
)

func (c *CLI) pendingCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "pendientes",
		Aliases: []string{"pending"},
		Short:   "Lista las DUCA pendientes de validación",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.warnRole(cmd, rolesValidation...)

			items, err := c.app.Review.Pending(cmd.Context())
			if err != nil {
				return err
			}
			return render(c.out, c.flags.Output, items, func(tw *tabwriter.Writer) {
				writeSummaries(tw, items)
			})
		},
	}
}

type decisionResult struct {
	Numero     string `json:"numero"`
	Decision   string `json:"decision"`
	Comentario string `json:"comentario,omitempty"`
}

// decision describes aprobar and rechazar, which differ only in wording and service calls.
type decision struct {
	use, alias, short, commentHelp, done string
	one                                  func(ctx context.Context, numero, comentario string) error
	all                                  func(ctx context.Context, numeros []string, comentario string, workers int) (review.BatchResult, error)
}

func (c *CLI) approveCommand() *cobra.Command {
	return c.decisionCommand(decision{
		use:         "aprobar NUMERO...",
		alias:       "approve",
		short:       "Aprueba una o varias DUCA pendientes",
		commentHelp: "comentario opcional (mínimo 5 caracteres si se indica)",
		done:        "aprobada",
		one:         func(ctx context.Context, n, com string) error { return c.app.Review.Approve(ctx, n, com) },
		all: func(ctx context.Context, ns []string, com string, w int) (review.BatchResult, error) {
			return c.app.Review.ApproveAll(ctx, ns, com, w)
		},
	})
}

func (c *CLI) rejectCommand() *cobra.Command {
	return c.decisionCommand(decision{
		use:         "rechazar NUMERO...",
		alias:       "reject",
		short:       "Rechaza una o varias DUCA pendientes con un motivo",
		commentHelp: "motivo del rechazo (mínimo 5 caracteres)",
		done:        "rechazada",
		one:         func(ctx context.Context, n, com string) error { return c.app.Review.Reject(ctx, n, com) },
		all: func(ctx context.Context, ns []string, com string, w int) (review.BatchResult, error) {
			return c.app.Review.RejectAll(ctx, ns, com, w)
		},
	})
}

func (c *CLI) decisionCommand(d decision) *cobra.Command {
	var comentario string
	var workers int

	cmd := &cobra.Command{
		Use:     d.use,
		Aliases: []string{d.alias},
		Short:   d.short,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.warnRole(cmd, rolesValidation...)

			if len(args) == 1 {
				if err := d.one(cmd.Context(), args[0], comentario); err != nil {
					return err
				}
				res := decisionResult{Numero: args[0], Decision: d.done, Comentario: comentario}
				return render(c.out, c.flags.Output, res, func(tw *tabwriter.Writer) {
					fmt.Fprintf(tw, "DUCA %s %s\n", res.Numero, res.Decision)
				})
			}

			result, err := d.all(cmd.Context(), args, comentario, workers)
			if err != nil {
				return err
			}
			if err := render(c.out, c.flags.Output, result, func(tw *tabwriter.Writer) {
				writeBatch(tw, result, d.done)
			}); err != nil {
				return err
			}
			if first := result.FirstError(); first != nil {
				return fmt.Errorf("%d de %d DUCA no se procesaron; primer error: %w", result.Failed, len(result.Outcomes), first)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&comentario, "comentario", "c", "", d.commentHelp)
	cmd.Flags().IntVar(&workers, "paralelo", review.DefaultBatchWorkers, "decisiones enviadas a la vez cuando se indican varias DUCA")
	return cmd
}
