package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"cropcare/cmd/cropctl/commands"
	"cropcare/internal/database"
	"cropcare/pkg/config"
	"cropcare/pkg/logger"

	"github.com/samber/oops"
)

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return oops.In("main").Wrapf(err, "failed to load config")
	}
	if err := logger.Initialize(cfg); err != nil {
		return oops.In("main").Wrapf(err, "failed to initialise the logger")
	}

	if err := database.Initialize(cfg); err != nil {
		return oops.In("main").Wrapf(err, "failed to connect database")
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		return oops.In("main").Wrapf(err, "failed to migrate database")
	}

	factory := commands.NewCommandFactory(database.GetDB(), cfg)
	if err := factory.NewRootCmd(ctx).ExecuteContext(ctx); err != nil {
		return oops.In("main").Wrapf(err, "error executing command")
	}
	return nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		log.Printf("cropctl: %+v", err)
		os.Exit(1)
	}
}
