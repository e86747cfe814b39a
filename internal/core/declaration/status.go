package declaration

import "strings"

// Status is the lifecycle state of a declaration as reported by the server.
// Values are carried as received; Normalize maps spelling variants onto the canonical set.
type Status string

const (
	StatusPending   Status = "PENDIENTE"
	StatusInReview  Status = "EN_REVISION"
	StatusValidated Status = "VALIDADA"
	StatusRejected  Status = "RECHAZADA"
	StatusAnnulled  Status = "ANULADA"
)

var statusAliases = map[string]Status{
	"PENDIENTE":   StatusPending,
	"PENDING":     StatusPending,
	"EN_REVISION": StatusInReview,
	"IN_REVIEW":   StatusInReview,
	"VALIDADA":    StatusValidated,
	"VALIDATED":   StatusValidated,
	"APROBADA":    StatusValidated,
	"RECHAZADA":   StatusRejected,
	"REJECTED":    StatusRejected,
	"ANULADA":     StatusAnnulled,
	"ANNULLED":    StatusAnnulled,
}

var statusLabels = map[Status]string{
	StatusPending:   "Pendiente",
	StatusInReview:  "En revisión",
	StatusValidated: "Validada",
	StatusRejected:  "Rechazada",
	StatusAnnulled:  "Anulada",
}

// Normalize returns the canonical status. Unknown values pass through trimmed.
func (s Status) Normalize() Status {
	key := strings.ToUpper(strings.TrimSpace(string(s)))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	if canonical, ok := statusAliases[key]; ok {
		return canonical
	}
	return Status(strings.TrimSpace(string(s)))
}

// Known reports whether s normalizes to one of the canonical states.
func (s Status) Known() bool {
	_, ok := statusLabels[s.Normalize()]
	return ok
}

// Label is the human-readable name, or the raw value for unknown states.
func (s Status) Label() string {
	if label, ok := statusLabels[s.Normalize()]; ok {
		return label
	}
	if s == "" {
		return "-"
	}
	return string(s)
}

// Final reports whether no further review action applies.
func (s Status) Final() bool {
	switch s.Normalize() {
	case StatusValidated, StatusRejected, StatusAnnulled:
		return true
	}
	return false
}
