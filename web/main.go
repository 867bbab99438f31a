package main

import (
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/df07/go-bdpt/web/server"
)

func main() {
	port := pflag.IntP("port", "p", 8080, "Port to serve on")
	verbose := pflag.BoolP("verbose", "v", false, "Enable debug logging")
	pflag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	webServer := server.NewServer(*port, logger)
	if err := webServer.Start(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
