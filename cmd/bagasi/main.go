package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/abyuwono/bagasi/internal/client"
	"github.com/abyuwono/bagasi/internal/config"
	"github.com/abyuwono/bagasi/internal/localstore"
	"github.com/abyuwono/bagasi/internal/search"
	"github.com/abyuwono/bagasi/internal/session"
)

func main() {
	os.Exit(run())
}

func run() int {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	// Ctrl-C tears down watches the way leaving a screen does
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadClient()
	store, err := localstore.Open(cfg.StorePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open local store:", err)
		return 1
	}
	defer store.Close()

	a := newApp(cfg, store, os.Stdin, os.Stdout)
	if len(os.Args) < 2 {
		a.usage()
		return 2
	}
	if err := a.dispatch(ctx, os.Args[1], os.Args[2:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 2
		}
		if errors.Is(err, context.Canceled) {
			return 130
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

type command struct {
	usage string
	// auth requires a signed-in, active account
	auth bool
	run  func(ctx context.Context, args []string) error
}

type app struct {
	cfg     config.Client
	api     *client.Client
	sess    *session.Store
	history *search.History
	in      io.Reader
	out     io.Writer

	commands map[string]command
}

func newApp(cfg config.Client, store localstore.Store, in io.Reader, out io.Writer) *app {
	a := &app{cfg: cfg, in: in, out: out}

	a.api = client.New(cfg.APIURL, store, client.WithUnauthorizedHook(func() {
		if a.sess != nil {
			a.sess.Expire()
		}
	}))
	a.sess = session.New(a.api, session.NavigatorFunc(func(route string) {
		fmt.Fprintf(out, "Signed out. Sign in again with: bagasi login <email>  (%s)\n", route)
	}))
	a.history = search.NewHistory(store)

	a.commands = map[string]command{
		"login":         {usage: "login <email>", run: a.login},
		"logout":        {usage: "logout", run: a.logout},
		"whoami":        {usage: "whoami", auth: true, run: a.whoami},
		"home":          {usage: "home [-q city]", run: a.home},
		"suggest":       {usage: "suggest <text>", run: a.suggest},
		"history":       {usage: "history [-clear]", run: a.showHistory},
		"ad":            {usage: "ad <id>", run: a.showAd},
		"book":          {usage: "book <ad-id> <kg>", auth: true, run: a.book},
		"shopper-ad":    {usage: "shopper-ad <id>", run: a.showShopperAd},
		"my-ads":        {usage: "my-ads", auth: true, run: a.myShopperAds},
		"act":           {usage: "act <shopper-ad-id> <request_help|accept_traveler|reject_traveler|cancel|complete|attach_tracking> [tracking-number]", auth: true, run: a.act},
		"chat":          {usage: "chat [-watch] <ad-id> [message]", auth: true, run: a.chat},
		"notifications": {usage: "notifications [-watch] [-read]", auth: true, run: a.notifications},
		"tracking":      {usage: "tracking [-watch] <ad-id>", auth: true, run: a.tracking},
		"reviews":       {usage: "reviews <ad-id> [-rating n -comment text] [-report review-id -reason text]", run: a.reviews},
		"pay":           {usage: "pay <shopper-ad-id>", auth: true, run: a.payShopperAd},
		"post-ad":       {usage: "post-ad -file draft.json [-provider stripe|midtrans]", auth: true, run: a.postAd},
		"membership":    {usage: "membership [-provider stripe|midtrans] [-price]", run: a.membership},
		"avatar":        {usage: "avatar [-size n] <name>", run: a.avatar},
		"admin":         {usage: "admin <users|deactivate|reactivate> [user-id]", auth: true, run: a.admin},
	}
	return a
}

func (a *app) dispatch(ctx context.Context, name string, args []string) error {
	cmd, ok := a.commands[name]
	if !ok {
		a.usage()
		return fmt.Errorf("unknown command %q", name)
	}

	if err := a.sess.Init(ctx); err != nil {
		if cmd.auth {
			return err
		}
		slog.WarnContext(ctx, "session restore failed", "err", err)
	}
	if cmd.auth {
		st := a.sess.State()
		if !st.Authenticated {
			return errors.New("not signed in; run: bagasi login <email>")
		}
		if st.Deactivated {
			fmt.Fprintln(a.out, "Your account is deactivated. Contact support@bagasi.id to reactivate it.")
			return session.ErrAccountDeactivated
		}
	}
	return cmd.run(ctx, args)
}

func (a *app) usage() {
	fmt.Fprintln(a.out, "usage: bagasi <command> [args]")
	names := make([]string, 0, len(a.commands))
	for n := range a.commands {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintln(a.out, "  bagasi", a.commands[n].usage)
	}
}
