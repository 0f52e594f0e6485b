// Package main is the entry point of videoctl, the terminal client of the avatar video API.
package main

import (
	"avatar-video-api/cmd/videoctl/cmd"
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		os.Exit(1)
	}
}
