package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"browser-mcp/internal/artifacts"
	"browser-mcp/internal/config"
)

// defaultSelectorTimeout bounds how long fill/select/hover wait for a
// selector to appear.
const defaultSelectorTimeout = 10 * time.Second

// rodSession wraps a launched Chromium and its active page. Keeping
// the launcher around matters: it owns the Chrome process and must be
// killed on close, not just the devtools connection.
type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rodPage
	log      *zap.Logger
}

// launchRod starts Chromium with the given effective options, selects
// the first page, and wires console-event forwarding into events.
func launchRod(ctx context.Context, opts config.LaunchOptions, events chan<- artifacts.ConsoleEntry, log *zap.Logger) (Session, error) {
	l := launcher.New()
	applyLaunchOptions(l, opts, log)

	controlURL, err := l.Launch()
	if err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("connect to chromium: %w", err)
	}

	page, err := firstPage(b)
	if err != nil {
		_ = b.Close()
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("open page: %w", err)
	}

	s := &rodSession{
		launcher: l,
		browser:  b,
		page:     &rodPage{page: page, timeout: defaultSelectorTimeout},
		log:      log,
	}
	s.forwardConsole(page, events)
	return s, nil
}

func firstPage(b *rod.Browser) (*rod.Page, error) {
	pages, err := b.Pages()
	if err == nil && len(pages) > 0 {
		return pages[0], nil
	}
	return b.Page(proto.TargetCreateTarget{URL: "about:blank"})
}

// applyLaunchOptions translates the nested configuration into
// launcher flags. Only known top-level keys are interpreted; the rest
// of the map is passthrough state for merge/compare and is skipped.
func applyLaunchOptions(l *launcher.Launcher, opts config.LaunchOptions, log *zap.Logger) {
	for key, value := range opts {
		switch key {
		case "headless":
			if v, ok := value.(bool); ok {
				l.Headless(v)
			}
		case "devtools":
			if v, ok := value.(bool); ok {
				l.Devtools(v)
			}
		case "executablePath":
			if v, ok := value.(string); ok && v != "" {
				l.Bin(v)
			}
		case "userDataDir":
			if v, ok := value.(string); ok && v != "" {
				l.UserDataDir(v)
			}
		case "proxy":
			if v, ok := value.(string); ok && v != "" {
				l.Proxy(v)
			}
		case "args":
			for _, arg := range config.Args(opts) {
				name, val := splitArg(arg)
				if val == "" {
					l.Set(flags.Flag(name))
				} else {
					l.Set(flags.Flag(name), val)
				}
			}
		default:
			if log != nil {
				log.Debug("unhandled launch option", zap.String("key", key))
			}
		}
	}
}

// splitArg turns "--flag=value" into ("flag", "value").
func splitArg(arg string) (string, string) {
	arg = strings.TrimLeft(arg, "-")
	if i := strings.IndexByte(arg, '='); i >= 0 {
		return arg[:i], arg[i+1:]
	}
	return arg, ""
}

func (s *rodSession) Page() Page {
	return s.page
}

// Connected probes the devtools connection. A dead browser process
// fails the version call immediately.
func (s *rodSession) Connected() bool {
	_, err := proto.BrowserGetVersion{}.Call(s.browser)
	return err == nil
}

// Close tears down the connection and kills the Chrome process. The
// launcher kill runs regardless of the close error so the process is
// not leaked behind a wedged connection.
func (s *rodSession) Close() error {
	err := s.browser.Close()
	s.launcher.Kill()
	s.launcher.Cleanup()
	return err
}

// rodPage implements Page on a rod page handle.
type rodPage struct {
	page    *rod.Page
	timeout time.Duration
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	page := p.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait for %s to load: %w", url, err)
	}
	_ = page.WaitIdle(5 * time.Second)
	return nil
}

func (p *rodPage) SetViewport(ctx context.Context, width, height int) error {
	return p.page.Context(ctx).SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
	})
}

func (p *rodPage) Screenshot(ctx context.Context, selector string) ([]byte, error) {
	page := p.page.Context(ctx)
	if selector == "" {
		data, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
			Format: proto.PageCaptureScreenshotFormatPng,
		})
		if err != nil {
			return nil, fmt.Errorf("capture page: %w", err)
		}
		return data, nil
	}

	el, err := page.Timeout(p.timeout).Element(selector)
	if err != nil {
		return nil, fmt.Errorf("element not found: %s: %w", selector, err)
	}
	data, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return nil, fmt.Errorf("capture element %s: %w", selector, err)
	}
	return data, nil
}

// Click acts on the element only if it is already present; unlike the
// other interactions it does not wait for the selector.
func (p *rodPage) Click(ctx context.Context, selector string) error {
	has, el, err := p.page.Context(ctx).Has(selector)
	if err != nil {
		return fmt.Errorf("locate %s: %w", selector, err)
	}
	if !has {
		return fmt.Errorf("element not found: %s", selector)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}

func (p *rodPage) Fill(ctx context.Context, selector, value string) error {
	el, err := p.page.Context(ctx).Timeout(p.timeout).Element(selector)
	if err != nil {
		return fmt.Errorf("element not found: %s: %w", selector, err)
	}
	if err := el.SelectAllText(); err == nil {
		_ = el.Input("")
	}
	if err := el.Input(value); err != nil {
		return fmt.Errorf("type into %s: %w", selector, err)
	}
	return nil
}

func (p *rodPage) Select(ctx context.Context, selector, value string) error {
	el, err := p.page.Context(ctx).Timeout(p.timeout).Element(selector)
	if err != nil {
		return fmt.Errorf("element not found: %s: %w", selector, err)
	}
	option := fmt.Sprintf("[value=%q]", value)
	if err := el.Select([]string{option}, true, rod.SelectorTypeCSSSector); err != nil {
		return fmt.Errorf("select %q in %s: %w", value, selector, err)
	}
	return nil
}

func (p *rodPage) Hover(ctx context.Context, selector string) error {
	el, err := p.page.Context(ctx).Timeout(p.timeout).Element(selector)
	if err != nil {
		return fmt.Errorf("element not found: %s: %w", selector, err)
	}
	if err := el.Hover(); err != nil {
		return fmt.Errorf("hover %s: %w", selector, err)
	}
	return nil
}

func (p *rodPage) Eval(ctx context.Context, script string) (json.RawMessage, error) {
	res, err := proto.RuntimeEvaluate{
		Expression:    script,
		ReturnByValue: true,
		AwaitPromise:  true,
	}.Call(p.page.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("evaluate script: %w", err)
	}
	if res.ExceptionDetails != nil {
		return nil, fmt.Errorf("script threw: %s", exceptionText(res.ExceptionDetails))
	}

	switch res.Result.Type {
	case proto.RuntimeRemoteObjectTypeUndefined:
		return json.RawMessage("null"), nil
	case proto.RuntimeRemoteObjectTypeFunction, proto.RuntimeRemoteObjectTypeSymbol:
		return nil, fmt.Errorf("result is not serializable: %s", res.Result.Description)
	}

	data, err := json.Marshal(res.Result.Value)
	if err != nil {
		return nil, fmt.Errorf("serialize result: %w", err)
	}
	return data, nil
}

func exceptionText(d *proto.RuntimeExceptionDetails) string {
	if d.Exception != nil && d.Exception.Description != "" {
		return d.Exception.Description
	}
	return d.Text
}
