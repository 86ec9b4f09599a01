package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"scanandgo.org/internal/migrate"
)

func main() {
	var (
		dsn           = flag.String("dsn", os.Getenv("SCANANDGO_DATABASE_URL"), "postgres DSN")
		migrationsDir = flag.String("migrations", "ops/migrations/sql", "migrations directory")
		seedsDir      = flag.String("seeds", "ops/migrations/seeds", "seeds directory")
	)
	flag.Parse()

	if *dsn == "" {
		fatal("missing -dsn (or SCANANDGO_DATABASE_URL)")
	}
	cmd := flag.Arg(0)
	if cmd == "" {
		cmd = "up"
	}

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatal("open database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		fatal("ping database: %v", err)
	}

	mgr := migrate.NewManager(db, *migrationsDir, *seedsDir)

	switch cmd {
	case "up":
		err = mgr.Up(ctx)
	case "down":
		err = mgr.Down(ctx)
	case "seed":
		err = mgr.Seed(ctx)
	case "status":
		var applied []string
		applied, err = mgr.Status(ctx)
		if err == nil {
			if len(applied) == 0 {
				fmt.Println("no migrations applied")
			}
			for _, name := range applied {
				fmt.Println(name)
			}
		}
	default:
		fatal("unknown command %q (want up, down, seed or status)", cmd)
	}
	if err != nil {
		fatal("%s: %v", cmd, err)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
