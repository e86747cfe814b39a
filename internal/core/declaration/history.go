package declaration

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// History is the status timeline of one declaration.
type History struct {
	Numero    string        `json:"numero"`
	Estado    Status        `json:"estado,omitempty"`
	Historial []StatusEntry `json:"historial"`
}

// UnmarshalJSON accepts a bare array of entries, a {numero, estado, historial} object
// or the {duca, historial} envelope used by the detail endpoint.
func (h *History) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("status history: empty body")
	}

	switch data[0] {
	case '[':
		var entries []StatusEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("status history: %w", err)
		}
		*h = History{Historial: entries}
		return nil
	case '{':
	default:
		return fmt.Errorf("status history: expected array or object")
	}

	var raw struct {
		Numero          string          `json:"numero"`
		NumeroDocumento string          `json:"numero_documento"`
		Estado          Status          `json:"estado"`
		Historial       []StatusEntry   `json:"historial"`
		Duca            json.RawMessage `json:"duca"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("status history: %w", err)
	}

	out := History{
		Numero:    firstNonEmpty(raw.Numero, raw.NumeroDocumento),
		Estado:    raw.Estado,
		Historial: raw.Historial,
	}
	if len(raw.Duca) > 0 && !bytes.Equal(raw.Duca, []byte("null")) {
		var d Detail
		if err := json.Unmarshal(raw.Duca, &d); err != nil {
			return fmt.Errorf("status history: %w", err)
		}
		out.Numero = firstNonEmpty(out.Numero, d.Numero)
		out.Estado = Status(firstNonEmpty(string(out.Estado), string(d.Estado)))
		if len(out.Historial) == 0 {
			out.Historial = d.Historial
		}
	}

	*h = out
	return nil
}

// Current is the state shown for the declaration: the explicit one, else the latest entry's.
func (h History) Current() Status {
	if h.Estado != "" {
		return h.Estado
	}
	if n := len(h.Historial); n > 0 {
		return h.Historial[n-1].Estado
	}
	return ""
}
