package declaration

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestStatus_Normalize(t *testing.T) {
	tests := []struct {
		in    Status
		want  Status
		label string
		final bool
	}{
		{"PENDIENTE", StatusPending, "Pendiente", false},
		{"pending", StatusPending, "Pendiente", false},
		{"EN-REVISION", StatusInReview, "En revisión", false},
		{"en revision", StatusInReview, "En revisión", false},
		{"IN_REVIEW", StatusInReview, "En revisión", false},
		{" validada ", StatusValidated, "Validada", true},
		{"REJECTED", StatusRejected, "Rechazada", true},
		{"ANNULLED", StatusAnnulled, "Anulada", true},
		{"EN_TRANSITO", "EN_TRANSITO", "EN_TRANSITO", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			if got := tt.in.Normalize(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
			if got := tt.in.Label(); got != tt.label {
				t.Errorf("expected label %q, got %q", tt.label, got)
			}
			if got := tt.in.Final(); got != tt.final {
				t.Errorf("expected final=%v, got %v", tt.final, got)
			}
		})
	}

	if Status("").Label() != "-" {
		t.Error("expected placeholder label for empty status")
	}
	if Status("EN_TRANSITO").Known() {
		t.Error("unknown status reported as known")
	}
}

func TestAmount_JSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"number", `1500.25`, "1500.25"},
		{"quoted", `"1000"`, "1000"},
		{"integer keeps no decimals", `1000`, "1000"},
		{"null leaves zero", `null`, "0"},
		{"empty string leaves zero", `""`, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Amount
			if err := json.Unmarshal([]byte(tt.in), &a); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if a.String() != tt.want {
				t.Errorf("expected %s, got %s", tt.want, a.String())
			}
		})
	}

	var bad Amount
	if err := json.Unmarshal([]byte(`"mil"`), &bad); err == nil {
		t.Error("expected error for non-numeric amount")
	}

	out, err := json.Marshal(struct {
		V Amount `json:"valor_aduana_total"`
	}{V: AmountFromFloat(1000.5)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"valor_aduana_total":1000.5}` {
		t.Errorf("expected unquoted number, got %s", out)
	}
}

func TestDeclaration_MarshalsSnakeCase(t *testing.T) {
	valor, _ := NewAmount("1000")
	d := Declaration{
		NumeroDocumento:  "DUCA-0001",
		FechaEmision:     "2024-01-01",
		PaisEmisor:       "GT",
		Moneda:           "USD",
		ValorAduanaTotal: valor,
		Importador:       Party{Nombre: "Import SA", Documento: "IMP-1", Pais: "GT"},
		Exportador:       Party{Nombre: "Export LLC", Documento: "EXP-1", Pais: "SV"},
		Transporte:       Transport{Medio: "TERRESTRE", Placa: "C123BCD"},
		Mercancias:       []GoodsItem{{ItemNo: 1, Descripcion: "Producto demo", Cantidad: 10, Unidad: "UND", Valor: valor}},
	}

	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, want := range []string{
		`"numero_documento":"DUCA-0001"`,
		`"valor_aduana_total":1000`,
		`"importador":{"nombre":"Import SA","documento":"IMP-1","pais":"GT"}`,
		`"mercancias":[{"itemNo":1,"descripcion":"Producto demo","cantidad":10,"unidad":"UND","valor":1000}]`,
	} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("expected %s in %s", want, raw)
		}
	}

	d.Mercancias = nil
	raw, _ = json.Marshal(d)
	if strings.Contains(string(raw), "mercancias") {
		t.Errorf("expected goods to be omitted when empty, got %s", raw)
	}
}

func TestSummary_Unmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Summary
	}{
		{
			name: "canonical fields unchanged",
			in:   `{"numero":"DUCA-0007","estado":"PENDIENTE","creado":"2024-01-01"}`,
			want: Summary{Numero: "DUCA-0007", Estado: "PENDIENTE", Creado: "2024-01-01"},
		},
		{
			name: "createdAt spelling",
			in:   `{"numero":"DUCA-0008","estado":"EN-REVISION","createdAt":"2024-02-01T10:00:00Z"}`,
			want: Summary{Numero: "DUCA-0008", Estado: "EN-REVISION", Creado: "2024-02-01T10:00:00Z"},
		},
		{
			name: "created_at spelling",
			in:   `{"numero":"DUCA-0009","estado":"VALIDADA","created_at":"2024-03-01"}`,
			want: Summary{Numero: "DUCA-0009", Estado: "VALIDADA", Creado: "2024-03-01"},
		},
		{
			name: "registration fields",
			in:   `{"numero_documento":"DUCA-0010","estado":"PENDIENTE","fecha_emision":"2024-04-01"}`,
			want: Summary{Numero: "DUCA-0010", Estado: "PENDIENTE", Creado: "2024-04-01"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Summary
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}

	var s Summary
	if err := json.Unmarshal([]byte(`{"estado":"PENDIENTE"}`), &s); err == nil {
		t.Error("expected error for summary without numero")
	}
}

func TestDetail_Unmarshal(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		check func(t *testing.T, d Detail)
	}{
		{
			name: "envelope",
			in: `{"duca":{"numero":"DUCA-0001","estado":"RECHAZADA","pais_emisor":"GT","moneda":"USD","valor_aduana_total":"1000.00",
				"importador":{"nombre":"Import SA","documento":"IMP-1","pais":"GT"}},
				"historial":[{"fecha":"2024-01-01","estado":"PENDIENTE","usuario":"t@demo.com"},{"fecha":"2024-01-02","estado":"RECHAZADA","motivo":"Faltan documentos de respaldo"}]}`,
			check: func(t *testing.T, d Detail) {
				if d.Numero != "DUCA-0001" || d.Estado != StatusRejected {
					t.Errorf("unexpected header %+v", d)
				}
				if d.ValorAduanaTotal == nil || d.ValorAduanaTotal.String() != "1000" {
					t.Errorf("unexpected amount %v", d.ValorAduanaTotal)
				}
				if d.Importador == nil || d.Importador.Nombre != "Import SA" {
					t.Errorf("unexpected importer %+v", d.Importador)
				}
				if len(d.Historial) != 2 {
					t.Fatalf("expected 2 history entries, got %d", len(d.Historial))
				}
				last, _ := d.LatestEntry()
				if last.Motivo != "Faltan documentos de respaldo" {
					t.Errorf("unexpected latest entry %+v", last)
				}
			},
		},
		{
			name: "flat with flattened parties",
			in: `{"numero":"DUCA-0002","estado":"PENDIENTE","fecha_emision":"2024-05-01","importador_nombre":"Import SA","importador_documento":"IMP-1",
				"exportador_nombre":"Export LLC","transporte_medio":"TERRESTRE","transporte_placa":"C123BCD","valor_aduana_total":250.5}`,
			check: func(t *testing.T, d Detail) {
				if d.Importador == nil || d.Importador.Documento != "IMP-1" {
					t.Errorf("unexpected importer %+v", d.Importador)
				}
				if d.Exportador == nil || d.Exportador.Nombre != "Export LLC" {
					t.Errorf("unexpected exporter %+v", d.Exportador)
				}
				if d.Transporte == nil || d.Transporte.Placa != "C123BCD" {
					t.Errorf("unexpected transport %+v", d.Transporte)
				}
				if d.Summary() != (Summary{Numero: "DUCA-0002", Estado: "PENDIENTE", Creado: "2024-05-01"}) {
					t.Errorf("unexpected summary %+v", d.Summary())
				}
			},
		},
		{
			name: "sub-records stored as JSON strings",
			in:   `{"numero_documento":"DUCA-0003","estado":"VALIDADA","importador":"{\"nombre\":\"Import SA\"}","transporte":"","transporte_medio":"AEREO"}`,
			check: func(t *testing.T, d Detail) {
				if d.Numero != "DUCA-0003" {
					t.Errorf("expected numero from numero_documento, got %q", d.Numero)
				}
				if d.Importador == nil || d.Importador.Nombre != "Import SA" {
					t.Errorf("unexpected importer %+v", d.Importador)
				}
				if d.Transporte == nil || d.Transporte.Medio != "AEREO" {
					t.Errorf("expected flattened transport fallback, got %+v", d.Transporte)
				}
				if d.Exportador != nil {
					t.Errorf("expected no exporter, got %+v", d.Exportador)
				}
			},
		},
		{
			name: "flat with history",
			in:   `{"numero":"DUCA-0004","estado":"EN_REVISION","historial":[{"fecha":"2024-01-01","estado":"PENDIENTE","comentario":"creada"}]}`,
			check: func(t *testing.T, d Detail) {
				if len(d.Historial) != 1 || d.Historial[0].Motivo != "creada" {
					t.Errorf("unexpected history %+v", d.Historial)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Detail
			if err := json.Unmarshal([]byte(tt.in), &d); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, d)
		})
	}
}

func TestDetail_UnmarshalFailsLoudly(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"array", `[{"numero":"DUCA-1"}]`},
		{"no numero", `{"estado":"PENDIENTE","moneda":"USD"}`},
		{"empty envelope", `{"duca":{},"historial":[]}`},
		{"wrong type", `{"numero":12}`},
		{"party neither object nor string", `{"numero":"DUCA-1","importador":"Import SA"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Detail
			if err := json.Unmarshal([]byte(tt.in), &d); err == nil {
				t.Errorf("expected error, got %+v", d)
			}
		})
	}

	var d Detail
	err := json.Unmarshal([]byte(`{"estado":"PENDIENTE"}`), &d)
	if !errors.Is(err, ErrMissingNumero) {
		t.Errorf("expected ErrMissingNumero, got %v", err)
	}
}
