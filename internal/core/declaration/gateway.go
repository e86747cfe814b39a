package declaration

import (
	"context"
	"encoding/json"
)

// RegisterResult is what the backend answers to a registration. Every field is optional.
type RegisterResult struct {
	Numero  string `json:"numero,omitempty"`
	Estado  Status `json:"estado,omitempty"`
	Message string `json:"message,omitempty"`
}

func (r *RegisterResult) UnmarshalJSON(data []byte) error {
	var raw struct {
		Numero          string `json:"numero"`
		NumeroDocumento string `json:"numero_documento"`
		Estado          Status `json:"estado"`
		Message         string `json:"message"`
		Mensaje         string `json:"mensaje"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = RegisterResult{
		Numero:  firstNonEmpty(raw.Numero, raw.NumeroDocumento),
		Estado:  raw.Estado,
		Message: firstNonEmpty(raw.Message, raw.Mensaje),
	}
	return nil
}

// Gateway is the remote side of every declaration operation.
type Gateway interface {
	ListPending(ctx context.Context) ([]Summary, error)
	Approve(ctx context.Context, numero, comentario string) error
	Reject(ctx context.Context, numero, comentario string) error
	GetDeclaration(ctx context.Context, numero string) (Detail, error)
	RegisterDeclaration(ctx context.Context, d Declaration) (RegisterResult, error)
	ListStatuses(ctx context.Context) ([]Summary, error)
	GetStatusHistory(ctx context.Context, numero string) (History, error)
}
