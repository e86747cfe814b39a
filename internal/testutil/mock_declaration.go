package testutil

import (
	"context"

	"3tcapital/ducactl/internal/core/declaration"
)

// MockDeclarationGateway is a mock implementation of declaration.Gateway for testing.
type MockDeclarationGateway struct {
	ListPendingFunc         func(ctx context.Context) ([]declaration.Summary, error)
	ApproveFunc             func(ctx context.Context, numero, comentario string) error
	RejectFunc              func(ctx context.Context, numero, comentario string) error
	GetDeclarationFunc      func(ctx context.Context, numero string) (declaration.Detail, error)
	RegisterDeclarationFunc func(ctx context.Context, d declaration.Declaration) (declaration.RegisterResult, error)
	ListStatusesFunc        func(ctx context.Context) ([]declaration.Summary, error)
	GetStatusHistoryFunc    func(ctx context.Context, numero string) (declaration.History, error)
}

// ListPending calls the mock function if set, otherwise returns empty slice.
func (m *MockDeclarationGateway) ListPending(ctx context.Context) ([]declaration.Summary, error) {
	if m.ListPendingFunc != nil {
		return m.ListPendingFunc(ctx)
	}
	return []declaration.Summary{}, nil
}

// Approve calls the mock function if set.
func (m *MockDeclarationGateway) Approve(ctx context.Context, numero, comentario string) error {
	if m.ApproveFunc != nil {
		return m.ApproveFunc(ctx, numero, comentario)
	}
	return nil
}

// Reject calls the mock function if set.
func (m *MockDeclarationGateway) Reject(ctx context.Context, numero, comentario string) error {
	if m.RejectFunc != nil {
		return m.RejectFunc(ctx, numero, comentario)
	}
	return nil
}

// GetDeclaration calls the mock function if set, otherwise returns a detail carrying only numero.
func (m *MockDeclarationGateway) GetDeclaration(ctx context.Context, numero string) (declaration.Detail, error) {
	if m.GetDeclarationFunc != nil {
		return m.GetDeclarationFunc(ctx, numero)
	}
	return declaration.Detail{Numero: numero}, nil
}

// RegisterDeclaration calls the mock function if set, otherwise echoes the document number.
func (m *MockDeclarationGateway) RegisterDeclaration(ctx context.Context, d declaration.Declaration) (declaration.RegisterResult, error) {
	if m.RegisterDeclarationFunc != nil {
		return m.RegisterDeclarationFunc(ctx, d)
	}
	return declaration.RegisterResult{Numero: d.NumeroDocumento}, nil
}

// ListStatuses calls the mock function if set, otherwise returns empty slice.
func (m *MockDeclarationGateway) ListStatuses(ctx context.Context) ([]declaration.Summary, error) {
	if m.ListStatusesFunc != nil {
		return m.ListStatusesFunc(ctx)
	}
	return []declaration.Summary{}, nil
}

// GetStatusHistory calls the mock function if set, otherwise returns an empty history.
func (m *MockDeclarationGateway) GetStatusHistory(ctx context.Context, numero string) (declaration.History, error) {
	if m.GetStatusHistoryFunc != nil {
		return m.GetStatusHistoryFunc(ctx, numero)
	}
	return declaration.History{Numero: numero, Historial: []declaration.StatusEntry{}}, nil
}

// Ensure MockDeclarationGateway implements declaration.Gateway interface.
var _ declaration.Gateway = (*MockDeclarationGateway)(nil)
