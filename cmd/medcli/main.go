package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/cli"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/client"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	server := flag.String("server", envOr("MEDAI_SERVER", "http://localhost:5000"), "medai API base URL")
	sessionPath := flag.String("session", envOr("MEDAI_SESSION", client.DefaultSessionPath()), "session file path")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := cli.NewApp(*server, *sessionPath, os.Stdin, os.Stdout)
	if err := app.Run(ctx, flag.Args()); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
