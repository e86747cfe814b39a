package declaration

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMissingNumero is returned when a detail response carries no declaration number.
var ErrMissingNumero = errors.New("declaration detail without numero")

// Detail is the full view of a declaration together with its history.
//
// The backend answers either with an envelope {"duca": {...}, "historial": [...]}
// or with a flat record whose parties may be flattened into importador_nombre-style
// columns. Both shapes decode into the same value; anything else fails.
type Detail struct {
	Numero           string        `json:"numero"`
	Estado           Status        `json:"estado"`
	FechaEmision     string        `json:"fecha_emision,omitempty"`
	PaisEmisor       string        `json:"pais_emisor,omitempty"`
	Moneda           string        `json:"moneda,omitempty"`
	ValorAduanaTotal *Amount       `json:"valor_aduana_total,omitempty"`
	Importador       *Party        `json:"importador,omitempty"`
	Exportador       *Party        `json:"exportador,omitempty"`
	Transporte       *Transport    `json:"transporte,omitempty"`
	Mercancias       []GoodsItem   `json:"mercancias,omitempty"`
	Historial        []StatusEntry `json:"historial,omitempty"`
}

// flatRecord covers every field name the backend has used for a declaration row.
type flatRecord struct {
	Numero          string        `json:"numero"`
	NumeroDocumento string        `json:"numero_documento"`
	Estado          Status        `json:"estado"`
	FechaEmision    string        `json:"fecha_emision"`
	Creado          string        `json:"creado"`
	PaisEmisor      string        `json:"pais_emisor"`
	Moneda          string        `json:"moneda"`
	Valor           *Amount       `json:"valor_aduana_total"`
	Importador      *Party        `json:"importador"`
	Exportador      *Party        `json:"exportador"`
	Transporte      *Transport    `json:"transporte"`
	Mercancias      []GoodsItem   `json:"mercancias"`
	Historial       []StatusEntry `json:"historial"`

	ImportadorNombre    string `json:"importador_nombre"`
	ImportadorDocumento string `json:"importador_documento"`
	ImportadorPais      string `json:"importador_pais"`
	ExportadorNombre    string `json:"exportador_nombre"`
	ExportadorDocumento string `json:"exportador_documento"`
	ExportadorPais      string `json:"exportador_pais"`
	TransporteMedio     string `json:"transporte_medio"`
	TransportePlaca     string `json:"transporte_placa"`
	TransporteConductor string `json:"transporte_conductor"`
	TransporteRuta      string `json:"transporte_ruta"`
}

func (d *Detail) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return fmt.Errorf("declaration detail: expected object")
	}

	var envelope struct {
		Duca      json.RawMessage `json:"duca"`
		Historial []StatusEntry   `json:"historial"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("declaration detail: %w", err)
	}

	record := data
	if len(envelope.Duca) > 0 && !bytes.Equal(envelope.Duca, []byte("null")) {
		record = envelope.Duca
	}

	var flat flatRecord
	if err := json.Unmarshal(record, &flat); err != nil {
		return fmt.Errorf("declaration detail: %w", err)
	}

	out := flat.detail()
	if len(out.Historial) == 0 {
		out.Historial = envelope.Historial
	}
	if out.Numero == "" {
		return ErrMissingNumero
	}

	*d = out
	return nil
}

func (f flatRecord) detail() Detail {
	d := Detail{
		Numero:           firstNonEmpty(f.Numero, f.NumeroDocumento),
		Estado:           f.Estado,
		FechaEmision:     firstNonEmpty(f.FechaEmision, f.Creado),
		PaisEmisor:       f.PaisEmisor,
		Moneda:           f.Moneda,
		ValorAduanaTotal: f.Valor,
		Importador:       f.Importador,
		Exportador:       f.Exportador,
		Transporte:       f.Transporte,
		Mercancias:       f.Mercancias,
		Historial:        f.Historial,
	}

	if d.Importador == nil || d.Importador.IsZero() {
		d.Importador = partyOrNil(Party{Nombre: f.ImportadorNombre, Documento: f.ImportadorDocumento, Pais: f.ImportadorPais})
	}
	if d.Exportador == nil || d.Exportador.IsZero() {
		d.Exportador = partyOrNil(Party{Nombre: f.ExportadorNombre, Documento: f.ExportadorDocumento, Pais: f.ExportadorPais})
	}
	if d.Transporte == nil || d.Transporte.IsZero() {
		d.Transporte = nil
		t := Transport{Medio: f.TransporteMedio, Placa: f.TransportePlaca, Conductor: f.TransporteConductor, Ruta: f.TransporteRuta}
		if !t.IsZero() {
			d.Transporte = &t
		}
	}
	return d
}

func partyOrNil(p Party) *Party {
	if p.IsZero() {
		return nil
	}
	return &p
}

// Summary reduces the detail to a list row.
func (d Detail) Summary() Summary {
	return Summary{Numero: d.Numero, Estado: d.Estado, Creado: d.FechaEmision}
}

// LatestEntry returns the most recent history entry, assuming the server's order is oldest first.
func (d Detail) LatestEntry() (StatusEntry, bool) {
	if len(d.Historial) == 0 {
		return StatusEntry{}, false
	}
	return d.Historial[len(d.Historial)-1], true
}
