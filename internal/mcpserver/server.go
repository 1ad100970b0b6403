package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"browser-mcp/internal/artifacts"
	"browser-mcp/internal/browser"
	"browser-mcp/internal/config"
)

const (
	serverName    = "browser-mcp"
	serverVersion = "0.4.0"

	httpShutdownTimeout = 5 * time.Second
)

// Server wires the session manager, artifact store, and tool
// dispatcher into an MCP server and runs it on the configured
// transport.
type Server struct {
	mcp      *mcp.Server
	sessions *browser.Manager
	store    *artifacts.Store
	log      *zap.Logger
	cfg      config.Env
}

func New(cfg config.Env, sessions *browser.Manager, store *artifacts.Store, log *zap.Logger) *Server {
	s := &Server{
		sessions: sessions,
		store:    store,
		log:      log,
		cfg:      cfg,
	}
	s.mcp = mcp.NewServer(
		&mcp.Implementation{Name: serverName, Version: serverVersion},
		&mcp.ServerOptions{
			SubscribeHandler:   resourceSubscribeHandler,
			UnsubscribeHandler: resourceUnsubscribeHandler,
		},
	)

	d := NewDispatcher(sessions, store, s, log)
	mcp.AddTool(s.mcp, NavigateTool(), d.Navigate)
	mcp.AddTool(s.mcp, ScreenshotTool(), d.Screenshot)
	mcp.AddTool(s.mcp, ClickTool(), d.Click)
	mcp.AddTool(s.mcp, FillTool(), d.Fill)
	mcp.AddTool(s.mcp, SelectTool(), d.Select)
	mcp.AddTool(s.mcp, HoverTool(), d.Hover)
	mcp.AddTool(s.mcp, EvaluateTool(), d.Evaluate)

	s.mcp.AddResource(ConsoleLogsResource(), ConsoleLogsHandler(store))

	return s
}

// ResourceUpdated implements Notifier. Notification failures are
// logged and dropped; artifacts stay consistent either way.
func (s *Server) ResourceUpdated(ctx context.Context, uri string) {
	if err := s.mcp.ResourceUpdated(ctx, &mcp.ResourceUpdatedNotificationParams{URI: uri}); err != nil {
		s.log.Warn("resource update notification failed", zap.String("uri", uri), zap.Error(err))
	}
}

// ScreenshotStored implements Notifier. Registering the resource is
// what surfaces the screenshot in listings and signals a list change;
// re-registering a reused name replaces the prior entry.
func (s *Server) ScreenshotStored(_ context.Context, name string) {
	s.mcp.AddResource(ScreenshotResource(name), ScreenshotHandler(s.store))
}

// Run serves MCP until the context ends. The console drain task runs
// for the lifetime of the server so page events keep flowing into the
// artifact store between tool calls.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.drainConsole(ctx)
	defer s.sessions.Close()

	switch s.cfg.Transport {
	case "stdio", "":
		return s.mcp.Run(ctx, &mcp.StdioTransport{})
	case "http":
		return s.runHTTP(ctx)
	default:
		return fmt.Errorf("unsupported transport %q: must be stdio or http", s.cfg.Transport)
	}
}

// drainConsole moves console events from the session's bounded queue
// into the artifact store, preserving arrival order, and notifies
// readers of the console resource.
func (s *Server) drainConsole(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case entry := <-s.sessions.Events():
			s.store.AppendLog(entry)
			s.ResourceUpdated(ctx, consoleLogsURI)
		}
	}
}

func (s *Server) runHTTP(ctx context.Context) error {
	logger := httplog.NewLogger(serverName, httplog.Options{JSON: true, Concise: true})

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))
	r.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.mcp }, nil))

	httpServer := &http.Server{Addr: s.cfg.HTTPAddr, Handler: r}
	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()
	s.log.Info("http transport listening", zap.String("addr", s.cfg.HTTPAddr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Subscriptions are accepted for any addressable URI; delivery is
// handled by the SDK against the notifications emitted above.
func resourceSubscribeHandler(_ context.Context, req *mcp.SubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	return nil
}

func resourceUnsubscribeHandler(_ context.Context, req *mcp.UnsubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	return nil
}
