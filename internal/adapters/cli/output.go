package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	appdeclaration "3tcapital/ducactl/internal/application/declaration"
	"3tcapital/ducactl/internal/application/review"
	"3tcapital/ducactl/internal/core/declaration"
	"3tcapital/ducactl/internal/core/user"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

// render writes v as indented JSON, or calls table with a tabwriter over w.
func render(w io.Writer, format string, v any, table func(tw *tabwriter.Writer)) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	table(tw)
	return tw.Flush()
}

func writeSummaries(tw *tabwriter.Writer, items []declaration.Summary) {
	if len(items) == 0 {
		fmt.Fprintln(tw, "Sin resultados")
		return
	}
	fmt.Fprintln(tw, "NUMERO\tESTADO\tCREADO")
	for _, s := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Numero, s.Estado.Label(), dash(s.Creado))
	}
}

func writeHistory(tw *tabwriter.Writer, entries []declaration.StatusEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(tw, "Sin historial")
		return
	}
	fmt.Fprintln(tw, "FECHA\tESTADO\tUSUARIO\tMOTIVO")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", dash(e.Fecha), e.Estado.Label(), dash(e.Usuario), dash(e.Motivo))
	}
}

func writeBatch(tw *tabwriter.Writer, result review.BatchResult, done string) {
	fmt.Fprintln(tw, "NUMERO\tRESULTADO")
	for _, o := range result.Outcomes {
		status := done
		if o.Err != nil {
			status = "error: " + o.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\n", o.Numero, status)
	}
	fmt.Fprintf(tw, "\n%d procesadas, %d con error\n", result.Succeeded, result.Failed)
}

func writeUsers(tw *tabwriter.Writer, users []user.User) {
	if len(users) == 0 {
		fmt.Fprintln(tw, "Sin usuarios")
		return
	}
	fmt.Fprintln(tw, "ID\tNOMBRE\tCORREO\tROL\tACTIVO")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", dash(string(u.ID)), u.Nombre, u.Correo, u.Rol, yesNo(u.Activo))
	}
}

func writeDossier(tw *tabwriter.Writer, d appdeclaration.Dossier) {
	det := d.Detail
	fmt.Fprintf(tw, "Número:\t%s\n", det.Numero)
	fmt.Fprintf(tw, "Estado:\t%s\n", det.Estado.Label())
	fmt.Fprintf(tw, "Fecha de emisión:\t%s\n", dash(det.FechaEmision))
	fmt.Fprintf(tw, "País emisor:\t%s\n", dash(det.PaisEmisor))
	if det.ValorAduanaTotal != nil {
		fmt.Fprintf(tw, "Valor en aduana:\t%s %s\n", det.ValorAduanaTotal.String(), det.Moneda)
	}
	if det.Importador != nil {
		fmt.Fprintf(tw, "Importador:\t%s\n", party(*det.Importador))
	}
	if det.Exportador != nil {
		fmt.Fprintf(tw, "Exportador:\t%s\n", party(*det.Exportador))
	}
	if det.Transporte != nil && !det.Transporte.IsZero() {
		t := det.Transporte
		fmt.Fprintf(tw, "Transporte:\t%s\n", joinNonEmpty(" / ", t.Medio, t.Placa, t.Conductor, t.Ruta))
	}

	if len(det.Mercancias) > 0 {
		fmt.Fprintln(tw, "\nMERCANCÍAS")
		fmt.Fprintln(tw, "ITEM\tDESCRIPCIÓN\tCANTIDAD\tUNIDAD\tVALOR")
		for _, g := range det.Mercancias {
			fmt.Fprintf(tw, "%d\t%s\t%g\t%s\t%s\n", g.ItemNo, g.Descripcion, g.Cantidad, dash(g.Unidad), g.Valor.String())
		}
	}

	fmt.Fprintln(tw, "\nHISTORIAL")
	writeHistory(tw, d.History.Historial)
}

func party(p declaration.Party) string {
	return joinNonEmpty(" / ", p.Nombre, p.Documento, p.Pais)
}

func joinNonEmpty(sep string, values ...string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return dash(strings.Join(parts, sep))
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "sí"
	}
	return "no"
}
