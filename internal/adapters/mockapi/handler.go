// Package mockapi is an in-memory DUCA backend. It serves every endpoint the client
// calls, with demo accounts for each role, so the CLI can run without the real service.
package mockapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"3tcapital/ducactl/internal/core/declaration"
	"3tcapital/ducactl/internal/core/session"
	"3tcapital/ducactl/internal/core/user"
	httpclient "3tcapital/ducactl/internal/infrastructure/http"
	"3tcapital/ducactl/internal/infrastructure/http/middleware"
	"3tcapital/ducactl/internal/infrastructure/metrics"
	"3tcapital/ducactl/internal/infrastructure/validation"
)

// FailingNumero makes GET /duca/{numero} answer with an HTML 500 page.
const FailingNumero = "DUCA-ERROR"

const maxBodyBytes = 1 << 20

// Options configures the mock backend.
type Options struct {
	JWTSecret string
	TokenTTL  time.Duration
	Logger    *slog.Logger
	Metrics   *metrics.Collectors // optional; enables GET /metrics
	Now       func() time.Time
}

// API serves the mock DUCA endpoints.
type API struct {
	store     *store
	auth      *middleware.BearerAuthenticator
	validator *validation.Validator
	metrics   *metrics.Collectors
	tokenTTL  time.Duration
	log       *slog.Logger
}

// New creates the mock backend with its seeded data.
func New(opts Options) (*API, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 8 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	auth, err := middleware.NewBearerAuthenticator(opts.JWTSecret, []string{"/auth/login", "/metrics"}, opts.Logger)
	if err != nil {
		return nil, err
	}

	v := validation.New()
	v.RegisterCustomType(func(field reflect.Value) any {
		if a, ok := field.Interface().(declaration.Amount); ok {
			return a.Float64()
		}
		return nil
	}, declaration.Amount{})

	return &API{
		store:     newStore(opts.Now),
		auth:      auth,
		validator: v,
		metrics:   opts.Metrics,
		tokenTTL:  opts.TokenTTL,
		log:       opts.Logger,
	}, nil
}

// Routes returns the router with every endpoint mounted.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()
	if a.metrics != nil {
		r.Use(middleware.Metrics(a.metrics))
	}
	r.Use(middleware.Timeout(10 * time.Second))
	r.Use(a.auth.Middleware)

	if a.metrics != nil {
		r.Method(http.MethodGet, "/metrics", a.metrics.Handler())
	}
	r.Post("/auth/login", a.login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(a.log, string(user.RoleAgente), string(user.RoleAdmin)))
		r.Get("/validacion/pendientes", a.listPending)
		r.Post("/validacion/{numero}/aprobar", a.decide(declaration.StatusValidated, 0))
		r.Post("/validacion/{numero}/rechazar", a.decide(declaration.StatusRejected, 5))
	})

	r.Get("/duca/{numero}", a.getDeclaration)
	r.With(middleware.RequireRole(a.log, string(user.RoleTransportista), string(user.RoleAdmin))).
		Post("/duca", a.registerDeclaration)

	r.Get("/estados", a.listStatuses)
	r.Get("/estados/{numero}", a.statusHistory)

	r.Route("/usuarios", func(r chi.Router) {
		r.Use(middleware.RequireRole(a.log, string(user.RoleAdmin)))
		r.Get("/", a.listUsers)
		r.Post("/", a.createUser)
		r.Patch("/{id}/activo", a.setUserActive)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpclient.WriteError(w, http.StatusNotFound, "Ruta no encontrada", nil, a.log)
	})
	return r
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var creds session.Credentials
	if !a.decode(w, r, &creds) {
		return
	}

	u, err := a.store.authenticate(strings.TrimSpace(creds.Email), creds.Password)
	switch {
	case errors.Is(err, errInactive):
		httpclient.WriteError(w, http.StatusForbidden, "Usuario inactivo", nil, a.log)
		return
	case err != nil:
		httpclient.WriteError(w, http.StatusUnauthorized, "Credenciales inválidas", nil, a.log)
		return
	}

	token, err := a.auth.Issue(u.Correo, string(u.Rol), a.tokenTTL)
	if err != nil {
		a.log.Error("failed to sign token", "error", err)
		httpclient.WriteError(w, http.StatusInternalServerError, "No se pudo generar el token", nil, a.log)
		return
	}
	httpclient.WriteJSON(w, http.StatusOK, session.LoginResult{Token: token, Role: string(u.Rol), Email: u.Correo}, a.log)
}

func (a *API) listPending(w http.ResponseWriter, r *http.Request) {
	pending := a.store.summaries(func(s declaration.Status) bool {
		return s == declaration.StatusPending || s == declaration.StatusInReview
	})
	httpclient.WriteJSON(w, http.StatusOK, pending, a.log)
}

func (a *API) decide(to declaration.Status, minComment int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		numero := param(r, "numero")

		var body struct {
			Comentario string `json:"comentario"`
		}
		if !a.decode(w, r, &body) {
			return
		}
		comentario := strings.TrimSpace(body.Comentario)
		if len([]rune(comentario)) < minComment {
			httpclient.WriteError(w, http.StatusBadRequest, "El comentario es obligatorio para rechazar", nil, a.log)
			return
		}

		summary, err := a.store.decide(numero, to, comentario, requester(r))
		switch {
		case errors.Is(err, errNotFound):
			httpclient.WriteError(w, http.StatusNotFound, "DUCA no encontrada", nil, a.log)
		case errors.Is(err, errNotPending):
			httpclient.WriteError(w, http.StatusConflict, "La DUCA ya fue procesada", nil, a.log)
		case err != nil:
			httpclient.WriteError(w, http.StatusInternalServerError, err.Error(), nil, a.log)
		default:
			httpclient.WriteJSON(w, http.StatusOK, summary, a.log)
		}
	}
}

type ducaBody struct {
	Numero string             `json:"numero"`
	Estado declaration.Status `json:"estado"`
	declaration.Declaration
}

type detailResponse struct {
	Duca      ducaBody                  `json:"duca"`
	Historial []declaration.StatusEntry `json:"historial"`
}

func (a *API) getDeclaration(w http.ResponseWriter, r *http.Request) {
	numero := param(r, "numero")
	if numero == FailingNumero {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "<!DOCTYPE html><html><head><style>body{color:red}</style></head><body><h1>Internal Error</h1></body></html>")
		return
	}

	rec, err := a.store.get(numero)
	if err != nil {
		httpclient.WriteError(w, http.StatusNotFound, "DUCA no encontrada", nil, a.log)
		return
	}
	httpclient.WriteJSON(w, http.StatusOK, detailResponse{
		Duca:      ducaBody{Numero: rec.decl.NumeroDocumento, Estado: rec.estado, Declaration: rec.decl},
		Historial: rec.historial,
	}, a.log)
}

func (a *API) registerDeclaration(w http.ResponseWriter, r *http.Request) {
	var d declaration.Declaration
	if !a.decode(w, r, &d) {
		return
	}
	if err := a.validator.Struct(d); err != nil {
		httpclient.WriteError(w, http.StatusBadRequest, err.Error(), nil, a.log)
		return
	}

	summary, err := a.store.register(d, requester(r))
	if errors.Is(err, errDuplicate) {
		httpclient.WriteError(w, http.StatusConflict, "numero duplicado", nil, a.log)
		return
	}
	httpclient.WriteJSON(w, http.StatusCreated, declaration.RegisterResult{
		Numero:  summary.Numero,
		Estado:  summary.Estado,
		Message: "DUCA registrada correctamente",
	}, a.log)
}

func (a *API) listStatuses(w http.ResponseWriter, r *http.Request) {
	httpclient.WriteJSON(w, http.StatusOK, a.store.summaries(nil), a.log)
}

func (a *API) statusHistory(w http.ResponseWriter, r *http.Request) {
	rec, err := a.store.get(param(r, "numero"))
	if err != nil {
		httpclient.WriteError(w, http.StatusNotFound, "DUCA no encontrada", nil, a.log)
		return
	}
	httpclient.WriteJSON(w, http.StatusOK, declaration.History{
		Numero:    rec.decl.NumeroDocumento,
		Estado:    rec.estado,
		Historial: rec.historial,
	}, a.log)
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	httpclient.WriteJSON(w, http.StatusOK, a.store.listUsers(), a.log)
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	var nu user.NewUser
	if !a.decode(w, r, &nu) {
		return
	}
	if err := a.validator.Struct(nu); err != nil {
		httpclient.WriteError(w, http.StatusBadRequest, err.Error(), nil, a.log)
		return
	}

	created, err := a.store.createUser(nu)
	if errors.Is(err, errDuplicate) {
		httpclient.WriteError(w, http.StatusConflict, "El correo ya está registrado", nil, a.log)
		return
	}
	httpclient.WriteJSON(w, http.StatusCreated, created, a.log)
}

func (a *API) setUserActive(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Activo *bool `json:"activo"`
	}
	if !a.decode(w, r, &body) {
		return
	}
	if body.Activo == nil {
		httpclient.WriteError(w, http.StatusBadRequest, "activo es requerido", nil, a.log)
		return
	}

	updated, err := a.store.setActive(user.ID(param(r, "id")), *body.Activo)
	if err != nil {
		httpclient.WriteError(w, http.StatusNotFound, "Usuario no encontrado", nil, a.log)
		return
	}
	httpclient.WriteJSON(w, http.StatusOK, updated, a.log)
}

// decode reads a JSON body into v, answering 400 itself on failure.
func (a *API) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v); err != nil {
		httpclient.WriteError(w, http.StatusBadRequest, "JSON inválido", []string{err.Error()}, a.log)
		return false
	}
	return true
}

// param returns the unescaped URL parameter; chi matches on the raw path when one is set.
func param(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func requester(r *http.Request) string {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	email, _ := claims["email"].(string)
	return email
}
