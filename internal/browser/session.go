package browser

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"browser-mcp/internal/artifacts"
	"browser-mcp/internal/config"
)

// consoleBuffer bounds the console event queue between the page event
// goroutine and the drain task.
const consoleBuffer = 256

type launchFunc func(ctx context.Context, opts config.LaunchOptions) (Session, error)

// Manager holds at most one live session and decides reuse versus
// relaunch per call. The mutex serializes ensure+operation sequences:
// the MCP transport may deliver calls concurrently, and two relaunch
// decisions racing on the disconnected/changed checks could close a
// live session mid-operation.
type Manager struct {
	mu  sync.Mutex
	log *zap.Logger

	envOptions        string
	allowDangerousEnv bool
	docker            bool

	launch launchFunc
	events chan artifacts.ConsoleEntry

	sess        Session
	prevOptions config.LaunchOptions
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithLaunch replaces the browser launcher. Tests use it to drive the
// manager without spawning Chromium.
func WithLaunch(fn func(ctx context.Context, opts config.LaunchOptions) (Session, error)) ManagerOption {
	return func(m *Manager) { m.launch = fn }
}

func NewManager(cfg config.Env, log *zap.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		log:               log,
		envOptions:        cfg.BrowserLaunchOptions,
		allowDangerousEnv: cfg.AllowDangerousArgs,
		docker:            cfg.DockerContainer,
		events:            make(chan artifacts.ConsoleEntry, consoleBuffer),
	}
	m.launch = func(ctx context.Context, opts config.LaunchOptions) (Session, error) {
		return launchRod(ctx, opts, m.events, log)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Events delivers console entries captured from the live page, in
// arrival order. The channel is bounded; when the drain task falls
// behind, events are dropped rather than blocking the page.
func (m *Manager) Events() <-chan artifacts.ConsoleEntry {
	return m.events
}

// EnsurePage returns a live page, launching or relaunching the
// browser as needed. perCall options are merged over the environment
// configuration and the result is danger-checked before any session
// state changes; a rejection fails the call with the session intact.
func (m *Manager) EnsurePage(ctx context.Context, perCall config.LaunchOptions, allowDangerous bool) (Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	envOpts := config.ParseLaunchOptions(m.envOptions, m.log)
	merged := config.Merge(envOpts, perCall)
	if err := config.CheckDangerousArgs(merged, allowDangerous || m.allowDangerousEnv); err != nil {
		return nil, err
	}

	if m.sess != nil && !m.sess.Connected() {
		m.discard("browser disconnected")
	}
	// Relaunch on a change in the raw per-call options, not the merged
	// config: two calls whose different inputs merge identically still
	// force a relaunch.
	if m.sess != nil && perCall != nil && !reflect.DeepEqual(perCall, m.prevOptions) {
		m.discard("launch options changed")
	}
	m.prevOptions = perCall

	if m.sess == nil {
		sess, err := m.launch(ctx, config.Merge(m.launchDefaults(), merged))
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		m.sess = sess
		m.log.Info("browser session started", zap.Bool("docker", m.docker))
	}
	return m.sess.Page(), nil
}

// launchDefaults is the trusted baseline merged under the effective
// config. Container environments need headless mode and sandbox-off
// flags to run at all; these are exempt from the danger filter
// because they are not caller-supplied.
func (m *Manager) launchDefaults() config.LaunchOptions {
	if m.docker {
		return config.LaunchOptions{
			"headless": true,
			"args":     []any{"--no-sandbox", "--single-process", "--no-zygote"},
		}
	}
	return config.LaunchOptions{"headless": false}
}

// discard closes the current session and clears the slot. Close is
// best-effort: a failure means the process is already gone or wedged,
// and the slot must not stay occupied either way.
func (m *Manager) discard(reason string) {
	if err := m.sess.Close(); err != nil {
		m.log.Warn("session close failed", zap.String("reason", reason), zap.Error(err))
	} else {
		m.log.Info("session closed", zap.String("reason", reason))
	}
	m.sess = nil
}

// Close releases the managed session at process shutdown.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess != nil {
		m.discard("shutdown")
	}
}
