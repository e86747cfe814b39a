package declaration

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Party is an importer or exporter.
type Party struct {
	Nombre    string `json:"nombre" validate:"required"`
	Documento string `json:"documento,omitempty"`
	Pais      string `json:"pais,omitempty"`
}

// IsZero reports whether no field is set.
func (p Party) IsZero() bool {
	return p == Party{}
}

// Transport describes how the goods travel.
type Transport struct {
	Medio     string `json:"medio,omitempty"`
	Placa     string `json:"placa,omitempty"`
	Conductor string `json:"conductor,omitempty"`
	Ruta      string `json:"ruta,omitempty"`
}

func (t Transport) IsZero() bool {
	return t == Transport{}
}

// GoodsItem is one line of the declared merchandise.
type GoodsItem struct {
	ItemNo      int     `json:"itemNo,omitempty"`
	Descripcion string  `json:"descripcion" validate:"required"`
	Cantidad    float64 `json:"cantidad" validate:"gt=0"`
	Unidad      string  `json:"unidad,omitempty"`
	Valor       Amount  `json:"valor" validate:"gte=0"`
}

// Declaration is the registration payload of a DUCA.
type Declaration struct {
	NumeroDocumento  string      `json:"numero_documento" validate:"required"`
	FechaEmision     string      `json:"fecha_emision" validate:"required,datetime=2006-01-02"`
	PaisEmisor       string      `json:"pais_emisor" validate:"required"`
	Moneda           string      `json:"moneda" validate:"required,len=3"`
	ValorAduanaTotal Amount      `json:"valor_aduana_total" validate:"gte=0"`
	Importador       Party       `json:"importador"`
	Exportador       Party       `json:"exportador"`
	Transporte       Transport   `json:"transporte"`
	Mercancias       []GoodsItem `json:"mercancias,omitempty" validate:"omitempty,dive"`
}

// Summary is one row of the pending or status lists.
type Summary struct {
	Numero string `json:"numero"`
	Estado Status `json:"estado"`
	Creado string `json:"creado,omitempty"`
}

// UnmarshalJSON accepts the creation date under any of the spellings the backend has used.
func (s *Summary) UnmarshalJSON(data []byte) error {
	var raw struct {
		Numero          string `json:"numero"`
		NumeroDocumento string `json:"numero_documento"`
		Estado          Status `json:"estado"`
		Creado          string `json:"creado"`
		Created         string `json:"created"`
		CreatedAtCamel  string `json:"createdAt"`
		CreatedAtSnake  string `json:"created_at"`
		FechaEmision    string `json:"fecha_emision"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = Summary{
		Numero: firstNonEmpty(raw.Numero, raw.NumeroDocumento),
		Estado: raw.Estado,
		Creado: firstNonEmpty(raw.Creado, raw.Created, raw.CreatedAtCamel, raw.CreatedAtSnake, raw.FechaEmision),
	}
	if s.Numero == "" {
		return fmt.Errorf("declaration summary without numero")
	}
	return nil
}

// StatusEntry is one transition in a declaration's history.
type StatusEntry struct {
	Fecha   string `json:"fecha"`
	Estado  Status `json:"estado"`
	Motivo  string `json:"motivo,omitempty"`
	Usuario string `json:"usuario,omitempty"`
}

func (e *StatusEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Fecha      string `json:"fecha"`
		Estado     Status `json:"estado"`
		Motivo     string `json:"motivo"`
		Comentario string `json:"comentario"`
		Usuario    string `json:"usuario"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = StatusEntry{
		Fecha:   raw.Fecha,
		Estado:  raw.Estado,
		Motivo:  firstNonEmpty(raw.Motivo, raw.Comentario),
		Usuario: raw.Usuario,
	}
	return nil
}

// UnmarshalJSON decodes a party sent either as an object or as a JSON-encoded string.
func (p *Party) UnmarshalJSON(data []byte) error {
	type plain Party
	inner, err := unwrapEmbeddedJSON(data)
	if err != nil || inner == nil {
		return err
	}
	var v plain
	if err := json.Unmarshal(inner, &v); err != nil {
		return fmt.Errorf("party: %w", err)
	}
	*p = Party(v)
	return nil
}

func (t *Transport) UnmarshalJSON(data []byte) error {
	type plain Transport
	inner, err := unwrapEmbeddedJSON(data)
	if err != nil || inner == nil {
		return err
	}
	var v plain
	if err := json.Unmarshal(inner, &v); err != nil {
		return fmt.Errorf("transport: %w", err)
	}
	*t = Transport(v)
	return nil
}

// unwrapEmbeddedJSON returns the object inside data. Some backend rows store sub-records
// as text columns, so an object may arrive as a quoted JSON string. Null and "" yield nil.
func unwrapEmbeddedJSON(data []byte) ([]byte, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	if data[0] != '"' {
		return data, nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace([]byte(s))
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] != '{' {
		return nil, fmt.Errorf("expected object, got %q", s)
	}
	return trimmed, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
