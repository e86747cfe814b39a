package cli

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"3tcapital/ducactl/internal/core/session"
	"3tcapital/ducactl/internal/core/user"
)

// Role hints, as the web navigation offered each section.
var (
	rolesValidation = []user.Role{user.RoleAgente}
	rolesCarrier    = []user.Role{user.RoleTransportista}
	rolesAdmin      = []user.Role{user.RoleAdmin}
)

// roleWarning describes why the session does not match roles, or returns "".
// The request is sent either way; the server decides.
func roleWarning(current session.Session, roles []user.Role) string {
	if !current.Valid() {
		return "no hay sesión activa; el servidor probablemente rechazará la petición"
	}
	if len(roles) == 0 {
		return ""
	}
	role := user.Role(strings.ToUpper(strings.TrimSpace(current.Role)))
	if slices.Contains(roles, role) {
		return ""
	}

	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	have := string(role)
	if have == "" {
		have = "desconocido"
	}
	return fmt.Sprintf("esta operación corresponde al rol %s y la sesión actual es %s", strings.Join(names, "/"), have)
}

// warnRole prints a role mismatch warning to stderr.
func (c *CLI) warnRole(cmd *cobra.Command, roles ...user.Role) {
	id, err := c.app.Auth.Current(cmd.Context())
	if err != nil && !errors.Is(err, session.ErrNoSession) {
		c.app.Log.Debug("Could not read session for role check", "error", err)
		return
	}
	if id.Expired {
		fmt.Fprintln(c.errOut, "Aviso: el token de la sesión expiró, inicie sesión de nuevo")
	}
	if msg := roleWarning(id.Session, roles); msg != "" {
		fmt.Fprintf(c.errOut, "Aviso: %s\n", msg)
	}
}
