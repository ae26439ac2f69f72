package main

import (
	"context"
	"os"
	"os/signal"
	"sectorrotation/cmd"
	"sectorrotation/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log := logger.New()
	defer log.Sync()
	ctx = logger.WithContext(ctx, log)

	if err := cmd.Execute(ctx); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
