package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/haguru/notedly/config"
	"github.com/haguru/notedly/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(config.CONFIG_PATH)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start notedly: %v\n", err)
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		application.Logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}
