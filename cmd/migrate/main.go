package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/kevin07696/payments-admin/internal/config"
	"github.com/kevin07696/payments-admin/internal/db/migrations"
	"github.com/kevin07696/payments-admin/pkg/resilience"
)

const connectAttempts = 5

func main() {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	dir := fs.String("dir", "", "read migrations from this directory instead of the embedded set")
	fs.Usage = func() { fmt.Fprint(fs.Output(), usage) }
	_ = fs.Parse(os.Args[1:])

	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	if err := migrate(fs.Arg(0), fs.Args()[1:], *dir, logger); err != nil {
		logger.Fatal("migration failed", zap.String("command", fs.Arg(0)), zap.Error(err))
	}
}

func migrate(command string, args []string, dir string, logger *zap.Logger) error {
	if err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	err = resilience.Retry(ctx, connectAttempts, resilience.DatabaseConnectBackoff(), func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			logger.Warn("database not reachable yet", zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if dir == "" {
		goose.SetBaseFS(migrations.FS)
		dir = "."
	}

	logger.Info("running migrations", zap.String("command", command), zap.Strings("args", args))
	return goose.RunContext(ctx, command, db, dir, args...)
}

const usage = `Usage: migrate [-dir DIR] COMMAND [ARGS]

Connection settings come from DATABASE_URL or DB_HOST, DB_PORT, DB_USER,
DB_PASSWORD, DB_NAME and PGSSLMODE. A .env file is read when present.

Commands:
    up | up-by-one | up-to VERSION
    down | down-to VERSION | redo | reset
    status | version
    create NAME [sql|go]   needs -dir

Examples:
    migrate up
    migrate -dir internal/db/migrations create add_refund_index sql
`
