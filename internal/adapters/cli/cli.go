// Package cli is the command-line front end of the DUCA client. Commands only talk to
// the application services; wiring them to the API is left to the Builder.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	appauth "3tcapital/ducactl/internal/application/auth"
	appdeclaration "3tcapital/ducactl/internal/application/declaration"
	"3tcapital/ducactl/internal/application/review"
	"3tcapital/ducactl/internal/core/declaration"
	"3tcapital/ducactl/internal/core/session"
	"3tcapital/ducactl/internal/core/user"
	ctxutil "3tcapital/ducactl/internal/infrastructure/context"
	httpclient "3tcapital/ducactl/internal/infrastructure/http"
)

// AuthService logs in and out. *auth.Service satisfies it.
type AuthService interface {
	Login(ctx context.Context, creds session.Credentials) (session.Session, error)
	Logout(ctx context.Context) error
	Current(ctx context.Context) (appauth.Identity, error)
}

// ReviewService drives the validation queue. *review.Service satisfies it.
type ReviewService interface {
	Pending(ctx context.Context) ([]declaration.Summary, error)
	Approve(ctx context.Context, numero, comentario string) error
	Reject(ctx context.Context, numero, comentario string) error
	ApproveAll(ctx context.Context, numeros []string, comentario string, workers int) (review.BatchResult, error)
	RejectAll(ctx context.Context, numeros []string, comentario string, workers int) (review.BatchResult, error)
}

// DeclarationService registers and looks up declarations. *declaration.Service satisfies it.
type DeclarationService interface {
	Register(ctx context.Context, d declaration.Declaration) (declaration.RegisterResult, error)
	Dossier(ctx context.Context, numero string) (appdeclaration.Dossier, error)
	Statuses(ctx context.Context) ([]declaration.Summary, error)
	History(ctx context.Context, numero string) (declaration.History, error)
}

// UserService administers accounts. *user.Service satisfies it.
type UserService interface {
	List(ctx context.Context) ([]user.User, error)
	Create(ctx context.Context, u user.NewUser) (user.User, error)
	SetActive(ctx context.Context, id user.ID, activo bool) (user.User, error)
	Toggle(ctx context.Context, id user.ID) (user.User, error)
}

// App is everything a command may use.
type App struct {
	Auth         AuthService
	Review       ReviewService
	Declarations DeclarationService
	Users        UserService
	Log          *slog.Logger
	// Close releases what the builder opened. It runs once after the command, even on failure.
	Close func(ctx context.Context)
}

// GlobalFlags are the persistent flags shared by every command.
type GlobalFlags struct {
	Output  string
	BaseURL string
	Timeout time.Duration
}

// Builder wires an App for the given flags.
type Builder func(ctx context.Context, flags GlobalFlags) (*App, error)

// Exit codes returned by Execute.
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitValidation   = 2
	ExitUnauthorized = 3
	ExitHTTP         = 4
	ExitUnreachable  = 5
	ExitMalformed    = 6
)

// CLI holds the command tree and the App built for the running command.
type CLI struct {
	build  Builder
	flags  GlobalFlags
	app    *App
	out    io.Writer
	errOut io.Writer
	root   *cobra.Command
}

// New creates the command tree.
func New(build Builder, out, errOut io.Writer) *CLI {
	c := &CLI{build: build, out: out, errOut: errOut}
	c.root = c.newRootCommand()
	return c
}

// Command returns the root command.
func (c *CLI) Command() *cobra.Command {
	return c.root
}

// Execute runs the command line and returns the process exit code.
// Errors are printed as their normalized message.
func (c *CLI) Execute(ctx context.Context, args []string) int {
	c.root.SetArgs(args)
	err := c.root.ExecuteContext(ctx)

	if c.app != nil && c.app.Close != nil {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		c.app.Close(closeCtx)
		cancel()
	}

	if err != nil {
		fmt.Fprintf(c.errOut, "Error: %s\n", Message(err))
		return ExitCode(err)
	}
	return ExitOK
}

func (c *CLI) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "ducactl",
		Short:         "Cliente de línea de comandos para el sistema DUCA",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.prepare(cmd)
		},
	}
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&c.flags.Output, "output", "o", formatTable, "formato de salida: table|json")
	pf.StringVar(&c.flags.BaseURL, "base-url", "", "URL base de la API (sobrescribe DUCA_API_URL)")
	pf.DurationVar(&c.flags.Timeout, "timeout", 0, "tiempo máximo por petición (sobrescribe DUCA_API_TIMEOUT)")

	root.AddCommand(
		c.loginCommand(),
		c.logoutCommand(),
		c.whoamiCommand(),
		c.pendingCommand(),
		c.approveCommand(),
		c.rejectCommand(),
		c.declarationCommand(),
		c.statusCommand(),
		c.usersCommand(),
	)
	return root
}

// prepare validates the global flags, builds the App and tags the context with a
// fresh correlation ID.
func (c *CLI) prepare(cmd *cobra.Command) error {
	if builtin(cmd) {
		return nil
	}

	c.flags.Output = strings.ToLower(strings.TrimSpace(c.flags.Output))
	if c.flags.Output != formatTable && c.flags.Output != formatJSON {
		return httpclient.NewValidationError(fmt.Sprintf("formato de salida %q no soportado (table|json)", c.flags.Output))
	}
	if c.flags.Timeout < 0 {
		return httpclient.NewValidationError("--timeout no puede ser negativo")
	}

	app, err := c.build(cmd.Context(), c.flags)
	if err != nil {
		return err
	}
	if app.Log == nil {
		app.Log = slog.New(slog.DiscardHandler)
	}
	c.app = app

	ctx := ctxutil.WithCorrelationID(cmd.Context(), uuid.NewString())
	cmd.SetContext(ctx)
	app.Log.Debug("Command started", "command", cmd.CommandPath(), "correlation_id", ctxutil.GetCorrelationID(ctx))
	return nil
}

// builtin reports cobra's own help and completion commands, which need no App.
func builtin(cmd *cobra.Command) bool {
	for p := cmd; p != nil; p = p.Parent() {
		switch p.Name() {
		case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return true
		}
	}
	return false
}

// Message renders err for the terminal. An *APIError prints as its normalized message.
func Message(err error) string {
	if errors.Is(err, session.ErrNoSession) {
		return "no hay sesión activa, ejecute 'ducactl login'"
	}
	return err.Error()
}

// ExitCode maps err onto one of the Exit constants.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case httpclient.IsValidation(err):
		return ExitValidation
	case httpclient.IsUnauthorized(err), httpclient.StatusCode(err) == http.StatusForbidden,
		errors.Is(err, session.ErrNoSession):
		return ExitUnauthorized
	case httpclient.IsHTTP(err):
		return ExitHTTP
	case httpclient.IsTimeout(err), httpclient.IsNetwork(err):
		return ExitUnreachable
	case httpclient.IsMalformed(err):
		return ExitMalformed
	default:
		return ExitFailure
	}
}
