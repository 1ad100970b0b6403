package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"browser-mcp/internal/artifacts"
	"browser-mcp/internal/browser"
	"browser-mcp/internal/config"
)

const (
	defaultViewportWidth  = 800
	defaultViewportHeight = 600

	// maxInlineWidth bounds screenshots returned inline to clients.
	// Wider captures are downscaled before storing and returning.
	maxInlineWidth = 1600
)

// pageProvider is the session manager seam the dispatcher depends on.
type pageProvider interface {
	EnsurePage(ctx context.Context, perCall config.LaunchOptions, allowDangerous bool) (browser.Page, error)
}

// Notifier emits resource change notifications to connected clients.
type Notifier interface {
	// ResourceUpdated signals that the content behind uri changed.
	ResourceUpdated(ctx context.Context, uri string)
	// ScreenshotStored registers the named screenshot as a listed
	// resource, which signals a resource-list change.
	ScreenshotStored(ctx context.Context, name string)
}

// Dispatcher executes tool calls against the managed browser session
// and normalizes outcomes into protocol results. Operation failures
// become isError results; only session-ensure failures (dangerous
// configuration, launch failure) propagate as call errors.
type Dispatcher struct {
	pages  pageProvider
	store  *artifacts.Store
	notify Notifier
	log    *zap.Logger
}

func NewDispatcher(pages pageProvider, store *artifacts.Store, notify Notifier, log *zap.Logger) *Dispatcher {
	return &Dispatcher{pages: pages, store: store, notify: notify, log: log}
}

func (d *Dispatcher) Navigate(ctx context.Context, _ *mcp.CallToolRequest, in NavigateInput) (*mcp.CallToolResult, any, error) {
	page, err := d.pages.EnsurePage(ctx, in.LaunchOptions, in.AllowDangerous)
	if err != nil {
		return nil, nil, err
	}
	if err := page.Navigate(ctx, in.URL); err != nil {
		return errorResult("Navigation failed: %v", err), nil, nil
	}
	return textResult("Navigated to %s", in.URL), nil, nil
}

func (d *Dispatcher) Screenshot(ctx context.Context, _ *mcp.CallToolRequest, in ScreenshotInput) (*mcp.CallToolResult, any, error) {
	width, height := in.Width, in.Height
	if width <= 0 {
		width = defaultViewportWidth
	}
	if height <= 0 {
		height = defaultViewportHeight
	}

	page, err := d.pages.EnsurePage(ctx, nil, false)
	if err != nil {
		return nil, nil, err
	}
	if err := page.SetViewport(ctx, width, height); err != nil {
		return errorResult("Screenshot failed: %v", err), nil, nil
	}
	data, err := page.Screenshot(ctx, in.Selector)
	if err != nil {
		return errorResult("Screenshot failed: %v", err), nil, nil
	}
	data = downscalePNG(data, d.log)

	d.store.PutScreenshot(in.Name, data)
	d.notify.ResourceUpdated(ctx, screenshotURI(in.Name))
	d.notify.ScreenshotStored(ctx, in.Name)

	content := []mcp.Content{
		&mcp.TextContent{Text: fmt.Sprintf("Screenshot '%s' taken at %dx%d", in.Name, width, height)},
	}
	if in.Encoded {
		content = append(content, &mcp.TextContent{
			Text: "data:image/png;base64," + base64.StdEncoding.EncodeToString(data),
		})
	} else {
		content = append(content, &mcp.ImageContent{Data: data, MIMEType: "image/png"})
	}
	return &mcp.CallToolResult{Content: content}, nil, nil
}

func (d *Dispatcher) Click(ctx context.Context, _ *mcp.CallToolRequest, in ClickInput) (*mcp.CallToolResult, any, error) {
	page, err := d.pages.EnsurePage(ctx, nil, false)
	if err != nil {
		return nil, nil, err
	}
	if err := page.Click(ctx, in.Selector); err != nil {
		return errorResult("Click failed: %v", err), nil, nil
	}
	return textResult("Clicked: %s", in.Selector), nil, nil
}

func (d *Dispatcher) Fill(ctx context.Context, _ *mcp.CallToolRequest, in FillInput) (*mcp.CallToolResult, any, error) {
	page, err := d.pages.EnsurePage(ctx, nil, false)
	if err != nil {
		return nil, nil, err
	}
	if err := page.Fill(ctx, in.Selector, in.Value); err != nil {
		return errorResult("Fill failed: %v", err), nil, nil
	}
	return textResult("Filled %s with: %s", in.Selector, in.Value), nil, nil
}

func (d *Dispatcher) Select(ctx context.Context, _ *mcp.CallToolRequest, in SelectInput) (*mcp.CallToolResult, any, error) {
	page, err := d.pages.EnsurePage(ctx, nil, false)
	if err != nil {
		return nil, nil, err
	}
	if err := page.Select(ctx, in.Selector, in.Value); err != nil {
		return errorResult("Select failed: %v", err), nil, nil
	}
	return textResult("Selected %s with: %s", in.Selector, in.Value), nil, nil
}

func (d *Dispatcher) Hover(ctx context.Context, _ *mcp.CallToolRequest, in HoverInput) (*mcp.CallToolResult, any, error) {
	page, err := d.pages.EnsurePage(ctx, nil, false)
	if err != nil {
		return nil, nil, err
	}
	if err := page.Hover(ctx, in.Selector); err != nil {
		return errorResult("Hover failed: %v", err), nil, nil
	}
	return textResult("Hovered %s", in.Selector), nil, nil
}

// consoleShimScript swaps the page's console methods for recording
// wrappers so script-triggered output can be collected separately
// from the page's normal console stream.
const consoleShimScript = `(() => {
  window.__mcpConsole = { logs: [], original: {} };
  for (const level of ['log', 'info', 'warn', 'error', 'debug']) {
    window.__mcpConsole.original[level] = console[level];
    console[level] = (...args) => {
      window.__mcpConsole.logs.push('[' + level + '] ' + args.join(' '));
      window.__mcpConsole.original[level](...args);
    };
  }
})()`

// consoleCollectScript restores the original console, removes the
// shim, and returns whatever it captured.
const consoleCollectScript = `(() => {
  const capture = window.__mcpConsole;
  if (!capture) return [];
  Object.assign(console, capture.original);
  delete window.__mcpConsole;
  return capture.logs;
})()`

func (d *Dispatcher) Evaluate(ctx context.Context, _ *mcp.CallToolRequest, in EvaluateInput) (*mcp.CallToolResult, any, error) {
	page, err := d.pages.EnsurePage(ctx, nil, false)
	if err != nil {
		return nil, nil, err
	}

	if _, err := page.Eval(ctx, consoleShimScript); err != nil {
		return errorResult("Script execution failed: %v", err), nil, nil
	}
	result, evalErr := page.Eval(ctx, in.Script)
	// Collect even after a failed script so the console is restored.
	logs := d.collectShimLogs(ctx, page)
	if evalErr != nil {
		return errorResult("Script execution failed: %v", evalErr), nil, nil
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, result, "", "  "); err != nil {
		return errorResult("Script execution failed: result is not serializable: %v", err), nil, nil
	}
	return textResult("Execution result:\n%s\n\nConsole output:\n%s",
		pretty.String(), strings.Join(logs, "\n")), nil, nil
}

func (d *Dispatcher) collectShimLogs(ctx context.Context, page browser.Page) []string {
	raw, err := page.Eval(ctx, consoleCollectScript)
	if err != nil {
		d.log.Warn("console shim collection failed", zap.Error(err))
		return nil
	}
	var logs []string
	if err := json.Unmarshal(raw, &logs); err != nil {
		return nil
	}
	return logs
}

// downscalePNG re-encodes captures wider than maxInlineWidth. Decode
// or encode problems fall back to the original bytes.
func downscalePNG(data []byte, log *zap.Logger) []byte {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil || img.Bounds().Dx() <= maxInlineWidth {
		return data
	}
	img = imaging.Resize(img, maxInlineWidth, 0, imaging.Lanczos)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		log.Warn("screenshot downscale failed", zap.Error(err))
		return data
	}
	return buf.Bytes()
}

func textResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
	}
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	result := textResult(format, args...)
	result.IsError = true
	return result
}
