package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abyuwono/bagasi/internal/client"
	"github.com/abyuwono/bagasi/internal/config"
	"github.com/abyuwono/bagasi/internal/localstore"
	"github.com/abyuwono/bagasi/internal/sitemap"
)

// Adds every listed ad to the static sitemap that is not in it yet.
func main() {
	os.Exit(run())
}

func run() int {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.LoadClient()
	path := flag.String("out", cfg.SitemapPath, "sitemap file to update")
	site := flag.String("site", cfg.SiteURL, "public site URL")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	// the ads listing is public; no token is needed
	api := client.New(cfg.APIURL, localstore.NewMemory())

	added, err := sitemap.Update(ctx, api, *path, *site, time.Now())
	if err != nil {
		slog.Error("sitemap update failed", "err", err)
		return 1
	}
	for _, loc := range added {
		slog.Info("sitemap entry added", "loc", loc)
	}
	slog.Info("sitemap updated", "path", *path, "added", len(added))
	return 0
}
