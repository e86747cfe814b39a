// Package ducaapi exposes one method per DUCA backend operation. Each method fixes
// the HTTP method and path and leaves transport concerns to the executor.
package ducaapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"3tcapital/ducactl/internal/core/declaration"
	"3tcapital/ducactl/internal/core/session"
	"3tcapital/ducactl/internal/core/user"
	httpclient "3tcapital/ducactl/internal/infrastructure/http"
)

// Operation names used in logs, metrics and the audit log.
const (
	OpLogin               = "login"
	OpListPending         = "list_pending"
	OpApprove             = "approve_declaration"
	OpReject              = "reject_declaration"
	OpGetDeclaration      = "get_declaration"
	OpRegisterDeclaration = "register_declaration"
	OpListStatuses        = "list_statuses"
	OpGetStatusHistory    = "get_status_history"
	OpListUsers           = "list_users"
	OpCreateUser          = "create_user"
	OpSetUserActive       = "set_user_active"
)

// Executor sends a request and decodes the JSON response into out.
type Executor interface {
	Do(ctx context.Context, req httpclient.Request, out any) error
}

// Client implements the declaration, user and login gateways against the DUCA API.
type Client struct {
	exec Executor
}

// NewClient creates a client on top of exec.
func NewClient(exec Executor) *Client {
	return &Client{exec: exec}
}

var (
	_ session.Authenticator = (*Client)(nil)
	_ declaration.Gateway   = (*Client)(nil)
	_ user.Gateway          = (*Client)(nil)
)

type commentBody struct {
	Comentario string `json:"comentario"`
}

type activeBody struct {
	Activo bool `json:"activo"`
}

// Login posts the credentials to /auth/login. A response without a token is malformed.
func (c *Client) Login(ctx context.Context, creds session.Credentials) (session.LoginResult, error) {
	var result session.LoginResult
	err := c.exec.Do(ctx, httpclient.Request{
		Operation: OpLogin,
		Method:    http.MethodPost,
		Path:      "/auth/login",
		Body:      creds,
	}, &result)
	if err != nil {
		return session.LoginResult{}, err
	}
	if result.Token == "" {
		return session.LoginResult{}, malformed("login response without token", nil)
	}
	return result, nil
}

// ListPending returns the declarations awaiting review.
func (c *Client) ListPending(ctx context.Context) ([]declaration.Summary, error) {
	return c.listSummaries(ctx, OpListPending, "/validacion/pendientes")
}

// Approve marks a pending declaration as validated.
func (c *Client) Approve(ctx context.Context, numero, comentario string) error {
	return c.exec.Do(ctx, httpclient.Request{
		Operation: OpApprove,
		Method:    http.MethodPost,
		Path:      "/validacion/" + url.PathEscape(numero) + "/aprobar",
		Body:      commentBody{Comentario: comentario},
	}, nil)
}

// Reject marks a pending declaration as rejected.
func (c *Client) Reject(ctx context.Context, numero, comentario string) error {
	return c.exec.Do(ctx, httpclient.Request{
		Operation: OpReject,
		Method:    http.MethodPost,
		Path:      "/validacion/" + url.PathEscape(numero) + "/rechazar",
		Body:      commentBody{Comentario: comentario},
	}, nil)
}

// GetDeclaration returns the full record of one declaration.
func (c *Client) GetDeclaration(ctx context.Context, numero string) (declaration.Detail, error) {
	var detail declaration.Detail
	err := c.exec.Do(ctx, httpclient.Request{
		Operation: OpGetDeclaration,
		Path:      "/duca/" + url.PathEscape(numero),
	}, &detail)
	if err != nil {
		return declaration.Detail{}, err
	}
	if detail.Numero == "" {
		// An empty or non-JSON 2xx body leaves detail untouched.
		return declaration.Detail{}, malformed("declaration detail without numero", declaration.ErrMissingNumero)
	}
	return detail, nil
}

// RegisterDeclaration submits a new declaration.
func (c *Client) RegisterDeclaration(ctx context.Context, d declaration.Declaration) (declaration.RegisterResult, error) {
	var result declaration.RegisterResult
	err := c.exec.Do(ctx, httpclient.Request{
		Operation: OpRegisterDeclaration,
		Method:    http.MethodPost,
		Path:      "/duca",
		Body:      d,
	}, &result)
	if err != nil {
		return declaration.RegisterResult{}, err
	}
	if result.Numero == "" {
		result.Numero = d.NumeroDocumento
	}
	return result, nil
}

// ListStatuses returns every declaration with its current status.
func (c *Client) ListStatuses(ctx context.Context) ([]declaration.Summary, error) {
	return c.listSummaries(ctx, OpListStatuses, "/estados")
}

// GetStatusHistory returns the status timeline of one declaration.
func (c *Client) GetStatusHistory(ctx context.Context, numero string) (declaration.History, error) {
	var history declaration.History
	err := c.exec.Do(ctx, httpclient.Request{
		Operation: OpGetStatusHistory,
		Path:      "/estados/" + url.PathEscape(numero),
	}, &history)
	if err != nil {
		return declaration.History{}, err
	}
	if history.Numero == "" {
		history.Numero = numero
	}
	if history.Historial == nil {
		history.Historial = []declaration.StatusEntry{}
	}
	return history, nil
}

// ListUsers returns every account.
func (c *Client) ListUsers(ctx context.Context) ([]user.User, error) {
	var users []user.User
	if err := c.exec.Do(ctx, httpclient.Request{
		Operation: OpListUsers,
		Path:      "/usuarios",
	}, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []user.User{}
	}
	return users, nil
}

// CreateUser creates an account. When the backend answers without the created user,
// the submitted fields are returned with an empty ID.
func (c *Client) CreateUser(ctx context.Context, u user.NewUser) (user.User, error) {
	var created user.User
	if err := c.exec.Do(ctx, httpclient.Request{
		Operation: OpCreateUser,
		Method:    http.MethodPost,
		Path:      "/usuarios",
		Body:      u,
	}, &created); err != nil {
		return user.User{}, err
	}
	if created.Correo == "" {
		created = user.User{ID: created.ID, Nombre: u.Nombre, Correo: u.Correo, Rol: u.Rol, Activo: true}
	}
	return created, nil
}

// SetUserActive enables or disables an account.
func (c *Client) SetUserActive(ctx context.Context, id user.ID, activo bool) (user.User, error) {
	var updated user.User
	if err := c.exec.Do(ctx, httpclient.Request{
		Operation: OpSetUserActive,
		Method:    http.MethodPatch,
		Path:      "/usuarios/" + url.PathEscape(string(id)) + "/activo",
		Body:      activeBody{Activo: activo},
	}, &updated); err != nil {
		return user.User{}, err
	}
	if updated.ID == "" {
		updated.ID = id
		updated.Activo = activo
	}
	return updated, nil
}

func (c *Client) listSummaries(ctx context.Context, operation, path string) ([]declaration.Summary, error) {
	var items []declaration.Summary
	if err := c.exec.Do(ctx, httpclient.Request{Operation: operation, Path: path}, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []declaration.Summary{}
	}
	return items, nil
}

func malformed(message string, err error) error {
	if err == nil {
		err = errors.New(message)
	}
	return &httpclient.APIError{Kind: httpclient.KindMalformed, Message: message, Err: err}
}
