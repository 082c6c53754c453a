package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/p-n-ai/pai-coursework/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
