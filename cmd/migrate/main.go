package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/tkd-core/dojo-api/migrations"
	"github.com/tkd-core/dojo-api/pkg/config"
	"github.com/tkd-core/dojo-api/pkg/database"
	"github.com/tkd-core/dojo-api/pkg/logger"
)

const usage = `usage: migrate <command> [args]

commands:
  up         apply all pending migrations
  up-to V    apply migrations up to version V
  down       roll back the latest migration
  down-to V  roll back to version V
  redo       roll back and re-apply the latest migration
  reset      roll back every migration
  status     print migration status
  version    print the current schema version`

func main() {
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	command := flag.Arg(0)
	if err := migrations.Run(context.Background(), command, db.DB, flag.Args()[1:]...); err != nil {
		logr.Fatal("migration failed", zap.String("command", command), zap.Error(err))
	}
	logr.Info("migration finished", zap.String("command", command))
}
