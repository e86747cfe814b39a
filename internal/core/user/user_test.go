package user

import (
	"encoding/json"
	"testing"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"AGENTE", RoleAgente, false},
		{" admin ", RoleAdmin, false},
		{"Transportista", RoleTransportista, false},
		{"ROOT", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: unexpected error %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("%q: expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestID_JSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want ID
		out  string
	}{
		{"number", `{"id":7}`, "7", `{"id":7}`},
		{"string", `{"id":"u-7"}`, "u-7", `{"id":"u-7"}`},
		{"numeric string becomes number", `{"id":"8"}`, "8", `{"id":8}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v struct {
				ID ID `json:"id"`
			}
			if err := json.Unmarshal([]byte(tt.in), &v); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v.ID != tt.want {
				t.Errorf("expected %q, got %q", tt.want, v.ID)
			}
			out, _ := json.Marshal(v)
			if string(out) != tt.out {
				t.Errorf("expected %s, got %s", tt.out, out)
			}
		})
	}

	var v struct {
		ID ID `json:"id"`
	}
	if err := json.Unmarshal([]byte(`{"id":1.5}`), &v); err == nil {
		t.Error("expected error for fractional id")
	}
}

func TestUser_Decode(t *testing.T) {
	raw := `[{"id":1,"nombre":"Ana","correo":"admin@demo.com","rol":"ADMIN","activo":true},
		{"id":"2","nombre":"Luis","correo":"agente@demo.com","rol":"AGENTE","activo":false}]`

	var users []User
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 2 || users[0].Rol != RoleAdmin || users[1].Activo {
		t.Errorf("unexpected users %+v", users)
	}
}
