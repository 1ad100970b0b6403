package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"browser-mcp/internal/artifacts"
)

const (
	consoleLogsURI      = "console://logs"
	screenshotURIPrefix = "screenshot://"
)

func screenshotURI(name string) string {
	return screenshotURIPrefix + name
}

// ConsoleLogsResource is the fixed resource every listing includes.
func ConsoleLogsResource() *mcp.Resource {
	return &mcp.Resource{
		URI:         consoleLogsURI,
		Name:        "Browser console logs",
		MIMEType:    "text/plain",
		Description: "Console output of the managed browser page, appended in arrival order.",
	}
}

// ConsoleLogsHandler serves the log buffer as one plain-text document.
func ConsoleLogsHandler(store *artifacts.Store) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      consoleLogsURI,
					MIMEType: "text/plain",
					Text:     store.ConsoleText(),
				},
			},
		}, nil
	}
}

// ScreenshotResource describes one stored screenshot. Screenshots are
// registered individually as they are captured so listings stay in
// insertion order.
func ScreenshotResource(name string) *mcp.Resource {
	return &mcp.Resource{
		URI:      screenshotURI(name),
		Name:     name,
		MIMEType: "image/png",
	}
}

// ScreenshotHandler serves stored screenshot bytes. An unknown name
// fails the read request; tool results are unaffected.
func ScreenshotHandler(store *artifacts.Store) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if req == nil || req.Params == nil || req.Params.URI == "" {
			return nil, fmt.Errorf("screenshot URI is required")
		}
		uri := req.Params.URI
		name := strings.TrimPrefix(uri, screenshotURIPrefix)
		data, ok := store.Screenshot(name)
		if !ok {
			return nil, fmt.Errorf("screenshot %q not found", name)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      uri,
					MIMEType: "image/png",
					Blob:     data,
				},
			},
		}, nil
	}
}
