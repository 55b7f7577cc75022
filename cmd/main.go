package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"emiteNota/internal/cli"
	"emiteNota/internal/config"
	"emiteNota/internal/logger"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Logger.Env, cfg.Logger.Level, cfg.Paths.LogsDir)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(cfg, log.Logger).ExecuteContext(ctx); err != nil {
		log.Error("Команда завершилась с ошибкой", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		stop()
		_ = log.Sync()
		os.Exit(1)
	}
}
