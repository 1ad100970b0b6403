package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"browser-mcp/internal/artifacts"
	"browser-mcp/internal/browser"
	"browser-mcp/internal/config"
	"browser-mcp/internal/mcpserver"
)

// main starts the MCP server on stdio or HTTP. All logging goes to
// stderr: on the stdio transport, stdout belongs to the protocol.
func main() {
	cfg, err := config.LoadEnv()
	if err != nil {
		log.Fatalf("load configuration: %v", err)
	}

	logger, err := newLogger()
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions := browser.NewManager(cfg, logger)
	store := artifacts.NewStore()
	server := mcpserver.New(cfg, sessions, store, logger)

	logger.Info("starting server",
		zap.String("transport", cfg.Transport),
		zap.Bool("docker", cfg.DockerContainer))

	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger() (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.OutputPaths = []string{"stderr"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}
	return zapCfg.Build()
}
