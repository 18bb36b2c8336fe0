// Command slidegenie is the command-line client for the SlideGenie
// presentation service.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/joho/godotenv"

	"slidegenie/internal/auth"
	"slidegenie/internal/config"
	"slidegenie/internal/forms"
	"slidegenie/internal/gateway"
	"slidegenie/internal/routes"
	"slidegenie/internal/session"
)

var errSignInRequired = errors.New("you are not signed in; run `slidegenie login` first")

type command struct {
	usage string
	help  string
	run   func(ctx context.Context, a *app, args []string) error
}

// commands is set in init; the command functions read it for usage text.
var commands map[string]command

func init() {
	commands = map[string]command{
		"login":           {"login [-email addr] [-remember=false]", "Sign in with an academic email", runLogin},
		"logout":          {"logout", "Sign out and forget stored credentials", runLogout},
		"whoami":          {"whoami", "Show the signed-in account", runWhoami},
		"register":        {"register -name n -email addr -institution i -role r -accept-terms", "Create an account", runRegister},
		"forgot-password": {"forgot-password -email addr", "Request a password reset link", runForgotPassword},
		"reset-password":  {"reset-password -token t", "Set a new password with a reset token", runResetPassword},
		"oauth-url":       {"oauth-url [-provider google|microsoft]", "Sign in through Google or Microsoft", runOAuth},
		"list":            {"list [-search q] [-template t] [-status s] [-range r] [-sort s] [-page n]", "List presentations", runList},
		"show":            {"show <id> [-notes] [-slide n]", "Print a presentation as text", runShow},
		"templates":       {"templates [-category c] [id]", "Browse the template gallery", runTemplates},
		"create":          {"create -title t (-content text | -file path) [-template id]", "Create a presentation without AI generation", runCreate},
		"delete":          {"delete <id> [-yes]", "Delete a presentation", runDelete},
		"generate":        {"generate (-file path | -content text) [-template t] [-duration m]", "Generate a presentation", runGenerate},
		"watch":           {"watch <generation-id> [-cancel] [-retry]", "Follow a running generation", runWatch},
		"edit":            {"edit <id>", "Edit a presentation interactively", runEdit},
		"export":          {"export <id> -format pdf|pptx|latex [-out file]", "Export a presentation", runExport},
		"exports":         {"exports <id>", "Show export history", runExports},
		"collaborators":   {"collaborators <id> [add email role | role collaborator-id role | remove collaborator-id]", "Manage sharing", runCollaborators},
		"present":         {"present <id> [-addr host:port] [-markup file]", "Serve the presenter view in a browser", runPresent},
	}
}

// app carries what every command needs.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	session *session.Session
	api     *gateway.Client
	out     io.Writer
	in      *bufio.Scanner
	expired atomic.Bool
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg := config.Load()
	logger, closeLog, err := config.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%sFailed to set up logging: %v%s\n", colorRed, err, colorReset)
		os.Exit(1)
	}
	defer closeLog()
	slog.SetDefault(logger)

	if len(os.Args) < 2 || os.Args[1] == "help" || os.Args[1] == "-h" || os.Args[1] == "--help" {
		usage(os.Stdout)
		return
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "%sUnknown command %q%s\n\n", colorRed, os.Args[1], colorReset)
		usage(os.Stderr)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	logger.Debug("running command", "command", os.Args[1], "environment", cfg.Environment)
	if err := cmd.run(ctx, a, os.Args[2:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		a.fail(err)
		closeLog()
		os.Exit(1)
	}
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	var inspector auth.TokenInspector = auth.UnverifiedInspector{}
	if cfg.JWKSURL != "" {
		v, err := auth.NewJWKSInspector(ctx, cfg.JWKSURL, logger)
		if err != nil {
			return nil, fmt.Errorf("create token verifier: %w", err)
		}
		inspector = v
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		out:    os.Stdout,
		in:     bufio.NewScanner(os.Stdin),
	}
	a.session = session.New(session.NewFileStore(cfg.HomeDir), inspector, logger)
	if _, err := a.session.Hydrate(); err != nil {
		logger.Warn("could not restore session", "error", err)
	}
	a.api = gateway.New(cfg.APIURL, gateway.Options{
		Tokens: a.session,
		OnUnauthorized: func() {
			a.expired.Store(true)
		},
		Logger: logger,
	})
	return a, nil
}

// guard applies the route rules to the screen a command stands for.
func (a *app) guard(route string) error {
	d := routes.Guard(route, a.session.IsAuthenticated())
	if d.Allowed {
		return nil
	}
	if d.Redirect == routes.Dashboard {
		u, _ := a.session.User()
		return fmt.Errorf("already signed in as %s; run `slidegenie logout` first", u.Email)
	}
	a.logger.Debug("route guarded", "route", route, "redirect", d.Redirect)
	return errSignInRequired
}

func (a *app) fail(err error) {
	var fields forms.FieldErrors
	switch {
	case errors.As(err, &fields):
		a.printf(colorRed, "Please fix the following:")
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(a.out, "  %s: %s\n", name, fields[name])
		}
	case a.expired.Load():
		a.printf(colorRed, "Your session has expired; run `slidegenie login` again.")
	case errors.Is(err, context.Canceled):
		a.printf(colorYellow, "Interrupted.")
	default:
		a.printf(colorRed, "Error: %v", err)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: slidegenie <command> [flags]")
	fmt.Fprintln(w)
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-16s %s\n", name, commands[name].help)
	}
	fmt.Fprintln(w, "\nRun `slidegenie <command> -h` for the flags of one command.")
}

// parseArgs parses flags that may appear before, between or after the
// positional arguments, which it returns in order.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: slidegenie %s\n", commands[name].usage)
		fs.PrintDefaults()
	}
	return fs
}

// requireID returns the first positional argument or a usage error.
func requireID(name string, positional []string) (string, error) {
	if len(positional) == 0 || strings.TrimSpace(positional[0]) == "" {
		return "", fmt.Errorf("usage: slidegenie %s", commands[name].usage)
	}
	return positional[0], nil
}
