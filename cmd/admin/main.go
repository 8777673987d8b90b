package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/geocoder89/recipehub/internal/config"
	"github.com/geocoder89/recipehub/internal/db"
	"github.com/geocoder89/recipehub/internal/observability"
	"github.com/geocoder89/recipehub/internal/repo/postgres"
)

const usage = `usage: admin <command> [flags]

commands:
  migrate            apply pending database migrations
  createsuperuser    create a staff superuser (-email, -password, -name)
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.Load()
	log := observability.NewLogger(cfg.Env, cfg.ServiceName)

	if cfg.UsesMemoryStore() {
		log.Error("admin commands need a postgres DATABASE_URL")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "migrate":
		if err := db.Migrate(ctx, cfg.DBURL); err != nil {
			log.Error("migrations failed", "err", err)
			os.Exit(1)
		}
		log.Info("migrations applied")

	case "createsuperuser":
		fs := flag.NewFlagSet("createsuperuser", flag.ExitOnError)
		email := fs.String("email", cfg.AdminEmail, "superuser email")
		password := fs.String("password", cfg.AdminPassword, "superuser password")
		name := fs.String("name", cfg.AdminName, "display name")
		_ = fs.Parse(os.Args[2:])

		if *email == "" || *password == "" {
			fmt.Fprintln(os.Stderr, "createsuperuser: -email and -password are required")
			os.Exit(2)
		}

		if err := db.Migrate(ctx, cfg.DBURL); err != nil {
			log.Error("migrations failed", "err", err)
			os.Exit(1)
		}

		pool, err := db.NewPool(ctx, cfg.DBURL, cfg.DBMaxConns)
		if err != nil {
			log.Error("db connection failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		created, err := db.EnsureSuperuser(ctx, postgres.NewUsersRepo(pool, nil), *email, *password, *name)
		if err != nil {
			log.Error("create superuser failed", "err", err)
			os.Exit(1)
		}

		if !created {
			log.Info("user already exists", "email", *email)
			return
		}
		log.Info("superuser created", "email", *email)

	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}
