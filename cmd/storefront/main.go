// Command storefront is a terminal client for the organic food store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-organic-store/internal/admin"
	"github.com/ariefcatur/go-organic-store/internal/api"
	"github.com/ariefcatur/go-organic-store/internal/cart"
	"github.com/ariefcatur/go-organic-store/internal/catalog"
	"github.com/ariefcatur/go-organic-store/internal/config"
	"github.com/ariefcatur/go-organic-store/internal/gate"
	"github.com/ariefcatur/go-organic-store/internal/history"
	"github.com/ariefcatur/go-organic-store/internal/logging"
	"github.com/ariefcatur/go-organic-store/internal/orders"
	"github.com/ariefcatur/go-organic-store/internal/session"
)

func main() {
	_ = godotenv.Load()
	os.Exit(run(context.Background(), config.Load(), os.Args[1:], os.Stdout, os.Stderr))
}

type app struct {
	out     io.Writer
	session *session.Store
	nav     gate.Navigator
	catalog *catalog.Reader
	cart    *cart.Manager
	history *history.Viewer
	admin   *admin.Console
}

func run(ctx context.Context, cfg config.Config, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("storefront", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.APIBaseURL, "api", cfg.APIBaseURL, "API base URL")
	fs.StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "where the session token is kept")
	fs.StringVar(&cfg.LogLevel, "log-level", "warn", "log level")
	fs.Usage = func() { usage(stderr) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		usage(stderr)
		return 2
	}

	log := logging.NewWithOutput("storefront", cfg.LogLevel, stderr)
	client := api.New(cfg.APIBaseURL, cfg.RequestTimeout)
	sess := session.New(client, session.FileTokenStore{Path: cfg.TokenFile}, log)
	a := &app{
		out:     stdout,
		session: sess,
		catalog: catalog.NewReader(client, log),
		cart:    cart.NewManager(client, sess, orders.Cents(cfg.DeliveryFeeCents)),
		history: history.NewViewer(client, sess),
		admin:   admin.NewConsole(client, sess),
	}

	name, rest := fs.Arg(0), fs.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", name)
		usage(stderr)
		return 2
	}

	sess.Restore(ctx)
	if route, d := a.nav.Visit(a.identity(), cmd.route); d != gate.Render {
		switch d {
		case gate.RedirectLogin:
			fmt.Fprintf(stderr, "login required: run `storefront login` first (%s)\n", route)
		default:
			fmt.Fprintf(stderr, "not allowed for this account; try `storefront products`\n")
		}
		return 1
	}

	if err := cmd.run(ctx, a, rest); err != nil {
		var usageErr usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(stderr, "usage: storefront %s %s\n", name, cmd.args)
			return 2
		}
		fmt.Fprintf(stderr, "error: %s\n", message(err))
		return 1
	}
	return 0
}

func (a *app) identity() gate.Identity {
	u, ok := a.session.User()
	if !ok {
		return gate.Anonymous()
	}
	return gate.Signed(u.Role)
}

// message is the text for a blocking error.
func message(err error) string {
	var ae *api.Error
	switch {
	case errors.As(err, &ae):
		return ae.Message()
	case errors.Is(err, cart.ErrOutOfStock):
		return "Out of stock"
	case errors.Is(err, orders.ErrUnknownStatus):
		return err.Error()
	}
	return api.MessageOf(err)
}

type usageError string

func (u usageError) Error() string { return string(u) }

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: storefront [-api URL] [-token-file PATH] <command> [args]")
	fmt.Fprintln(w, "commands:")
	for _, name := range commandOrder {
		c := commands[name]
		fmt.Fprintf(w, "  %-15s %s\n", name, c.args)
	}
}
