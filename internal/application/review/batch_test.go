package review

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"3tcapital/ducactl/internal/core/declaration"
	httpclient "3tcapital/ducactl/internal/infrastructure/http"
	"3tcapital/ducactl/internal/testutil"
)

func TestService_RejectAll(t *testing.T) {
	var mu sync.Mutex
	sent := map[string]string{}
	gateway := &testutil.MockDeclarationGateway{
		RejectFunc: func(ctx context.Context, numero, comentario string) error {
			mu.Lock()
			defer mu.Unlock()
			sent[numero] = comentario
			if numero == "DUCA-0003" {
				return &httpclient.APIError{Kind: httpclient.KindHTTP, Status: 409, Message: "La DUCA ya fue procesada"}
			}
			return nil
		},
	}
	svc := NewService(gateway, testutil.NewNullLogger())

	result, err := svc.RejectAll(context.Background(),
		[]string{" DUCA-0001 ", "DUCA-0003", "", "DUCA-0001", "DUCA-0002"}, "  Faltan facturas ", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Outcomes) != 3 {
		t.Fatalf("expected 3 distinct outcomes, got %d", len(result.Outcomes))
	}
	wantOrder := []string{"DUCA-0001", "DUCA-0003", "DUCA-0002"}
	for i, o := range result.Outcomes {
		if o.Numero != wantOrder[i] {
			t.Errorf("outcome %d: expected %s, got %s", i, wantOrder[i], o.Numero)
		}
	}
	if result.Succeeded != 2 || result.Failed != 1 {
		t.Errorf("expected 2 ok / 1 failed, got %d / %d", result.Succeeded, result.Failed)
	}
	if httpclient.StatusCode(result.FirstError()) != 409 {
		t.Errorf("expected the 409 as first error, got %v", result.FirstError())
	}
	if result.Outcomes[1].Error != "La DUCA ya fue procesada" {
		t.Errorf("unexpected error text %q", result.Outcomes[1].Error)
	}
	for numero, comentario := range sent {
		if comentario != "Faltan facturas" {
			t.Errorf("%s sent with comment %q", numero, comentario)
		}
	}
}

func TestService_DecideAllGuards(t *testing.T) {
	tests := []struct {
		name       string
		numeros    []string
		comentario string
		reject     bool
	}{
		{name: "reject without reason", numeros: []string{"DUCA-0001"}, reject: true},
		{name: "approve with short comment", numeros: []string{"DUCA-0001"}, comentario: "ok"},
		{name: "no numeros", numeros: []string{" ", ""}, comentario: "Todo en orden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := &testutil.MockDeclarationGateway{
				ApproveFunc: func(ctx context.Context, numero, comentario string) error {
					t.Fatal("nothing should be sent")
					return nil
				},
				RejectFunc: func(ctx context.Context, numero, comentario string) error {
					t.Fatal("nothing should be sent")
					return nil
				},
			}
			svc := NewService(gateway, testutil.NewNullLogger())

			var err error
			if tt.reject {
				_, err = svc.RejectAll(context.Background(), tt.numeros, tt.comentario, 0)
			} else {
				_, err = svc.ApproveAll(context.Background(), tt.numeros, tt.comentario, 0)
			}
			if !httpclient.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestService_ApproveAllBoundsConcurrency(t *testing.T) {
	var active, peak atomic.Int32
	gateway := &testutil.MockDeclarationGateway{
		ApproveFunc: func(ctx context.Context, numero, comentario string) error {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			active.Add(-1)
			return nil
		},
	}
	svc := NewService(gateway, testutil.NewNullLogger())

	numeros := []string{"A-1", "A-2", "A-3", "A-4", "A-5", "A-6", "A-7", "A-8"}
	result, err := svc.ApproveAll(context.Background(), numeros, "", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Succeeded != len(numeros) || result.FirstError() != nil {
		t.Errorf("expected every approval to succeed: %+v", result)
	}
	if got := peak.Load(); got > 3 {
		t.Errorf("expected at most 3 concurrent approvals, saw %d", got)
	}
}

func TestService_ApproveAllKeepsGoingAfterFailure(t *testing.T) {
	var calls atomic.Int32
	gateway := &testutil.MockDeclarationGateway{
		ApproveFunc: func(ctx context.Context, numero, comentario string) error {
			calls.Add(1)
			if numero == "DUCA-0001" {
				return errors.New("boom")
			}
			return nil
		},
		ListPendingFunc: func(ctx context.Context) ([]declaration.Summary, error) { return nil, nil },
	}
	svc := NewService(gateway, testutil.NewNullLogger())

	result, err := svc.ApproveAll(context.Background(), []string{"DUCA-0001", "DUCA-0002", "DUCA-0003"}, "", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected every approval to be attempted, got %d", calls.Load())
	}
	if result.Failed != 1 || result.Succeeded != 2 {
		t.Errorf("unexpected counts: %+v", result)
	}
}
