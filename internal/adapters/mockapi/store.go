package mockapi

import (
	"errors"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"3tcapital/ducactl/internal/core/declaration"
	"3tcapital/ducactl/internal/core/user"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "demo123"

var (
	errNotFound      = errors.New("not found")
	errDuplicate     = errors.New("duplicate")
	errNotPending    = errors.New("not pending")
	errInactive      = errors.New("inactive")
	errBadCredential = errors.New("bad credentials")
)

type account struct {
	user     user.User
	password string
}

type record struct {
	decl      declaration.Declaration
	estado    declaration.Status
	creado    string
	historial []declaration.StatusEntry
}

func (r *record) summary() declaration.Summary {
	return declaration.Summary{Numero: r.decl.NumeroDocumento, Estado: r.estado, Creado: r.creado}
}

// store keeps the mock backend's state in memory. Order of insertion is preserved.
type store struct {
	mu       sync.RWMutex
	now      func() time.Time
	accounts []*account
	nextID   int
	order    []string
	records  map[string]*record
}

func newStore(now func() time.Time) *store {
	s := &store{now: now, records: make(map[string]*record), nextID: 1}
	s.seed()
	return s
}

func (s *store) seed() {
	for _, u := range []struct {
		nombre, correo string
		rol            user.Role
	}{
		{"Transportista Demo", "transportista@demo.com", user.RoleTransportista},
		{"Agente Demo", "agente@demo.com", user.RoleAgente},
		{"Admin Demo", "admin@demo.com", user.RoleAdmin},
	} {
		s.addAccount(user.NewUser{Nombre: u.nombre, Correo: u.correo, Password: DemoPassword, Rol: u.rol})
	}

	importador := declaration.Party{Nombre: "Importadora Maya S.A.", Documento: "1234567-8", Pais: "GT"}
	exportador := declaration.Party{Nombre: "Exportadora Cuscatlán", Documento: "0614-010190-101-1", Pais: "SV"}
	transporte := declaration.Transport{Medio: "TERRESTRE", Placa: "C123BCD", Conductor: "Luis Pérez", Ruta: "San Salvador - Guatemala"}

	for i, estado := range []declaration.Status{declaration.StatusPending, declaration.StatusPending, declaration.StatusValidated} {
		numero := "DUCA-000" + strconv.Itoa(i+1)
		fecha := "2024-05-0" + strconv.Itoa(i+1)
		r := &record{
			decl: declaration.Declaration{
				NumeroDocumento:  numero,
				FechaEmision:     fecha,
				PaisEmisor:       "SV",
				Moneda:           "USD",
				ValorAduanaTotal: declaration.AmountFromFloat(1500.25 * float64(i+1)),
				Importador:       importador,
				Exportador:       exportador,
				Transporte:       transporte,
				Mercancias: []declaration.GoodsItem{
					{ItemNo: 1, Descripcion: "Café en grano", Cantidad: 10, Unidad: "SACO", Valor: declaration.AmountFromFloat(1500.25 * float64(i+1))},
				},
			},
			estado:    declaration.StatusPending,
			creado:    fecha,
			historial: []declaration.StatusEntry{{Fecha: fecha, Estado: declaration.StatusPending, Usuario: "transportista@demo.com"}},
		}
		if estado != declaration.StatusPending {
			r.estado = estado
			r.historial = append(r.historial, declaration.StatusEntry{Fecha: fecha, Estado: estado, Motivo: "Documentación conforme", Usuario: "agente@demo.com"})
		}
		s.order = append(s.order, numero)
		s.records[numero] = r
	}
}

func (s *store) addAccount(nu user.NewUser) user.User {
	u := user.User{ID: user.ID(strconv.Itoa(s.nextID)), Nombre: nu.Nombre, Correo: nu.Correo, Rol: nu.Rol, Activo: true}
	s.nextID++
	s.accounts = append(s.accounts, &account{user: u, password: nu.Password})
	return u
}

func (s *store) authenticate(correo, password string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.accounts {
		if strings.EqualFold(a.user.Correo, correo) && a.password == password {
			if !a.user.Activo {
				return user.User{}, errInactive
			}
			return a.user, nil
		}
	}
	return user.User{}, errBadCredential
}

func (s *store) listUsers() []user.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]user.User, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a.user)
	}
	return out
}

func (s *store) createUser(nu user.NewUser) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if strings.EqualFold(a.user.Correo, nu.Correo) {
			return user.User{}, errDuplicate
		}
	}
	return s.addAccount(nu), nil
}

func (s *store) setActive(id user.ID, activo bool) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if a.user.ID == id {
			a.user.Activo = activo
			return a.user, nil
		}
	}
	return user.User{}, errNotFound
}

func (s *store) summaries(filter func(declaration.Status) bool) []declaration.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]declaration.Summary, 0, len(s.order))
	for _, numero := range s.order {
		r := s.records[numero]
		if filter == nil || filter(r.estado) {
			out = append(out, r.summary())
		}
	}
	return out
}

func (s *store) get(numero string) (record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[numero]
	if !ok {
		return record{}, errNotFound
	}
	cp := *r
	cp.historial = slices.Clone(r.historial)
	return cp, nil
}

func (s *store) register(d declaration.Declaration, usuario string) (declaration.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[d.NumeroDocumento]; exists {
		return declaration.Summary{}, errDuplicate
	}

	today := s.now().Format(time.DateOnly)
	r := &record{
		decl:      d,
		estado:    declaration.StatusPending,
		creado:    today,
		historial: []declaration.StatusEntry{{Fecha: today, Estado: declaration.StatusPending, Usuario: usuario}},
	}
	s.order = append(s.order, d.NumeroDocumento)
	s.records[d.NumeroDocumento] = r
	return r.summary(), nil
}

// decide moves a pending declaration to to. Only PENDIENTE and EN_REVISION may be decided.
func (s *store) decide(numero string, to declaration.Status, motivo, usuario string) (declaration.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[numero]
	if !ok {
		return declaration.Summary{}, errNotFound
	}
	if r.estado != declaration.StatusPending && r.estado != declaration.StatusInReview {
		return declaration.Summary{}, errNotPending
	}

	r.estado = to
	r.historial = append(r.historial, declaration.StatusEntry{
		Fecha:   s.now().Format(time.DateTime),
		Estado:  to,
		Motivo:  motivo,
		Usuario: usuario,
	})
	return r.summary(), nil
}
