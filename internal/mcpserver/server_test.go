package mcpserver

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"browser-mcp/internal/artifacts"
	"browser-mcp/internal/browser"
	"browser-mcp/internal/config"
)

type fakeBrowserSession struct {
	page *fakePage
}

func (s *fakeBrowserSession) Page() browser.Page { return s.page }
func (s *fakeBrowserSession) Connected() bool    { return true }
func (s *fakeBrowserSession) Close() error       { return nil }

// startTestServer runs a fully wired server over an in-memory
// transport and returns a connected client session.
func startTestServer(t *testing.T, page *fakePage) *mcp.ClientSession {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	manager := browser.NewManager(config.Env{}, zap.NewNop(),
		browser.WithLaunch(func(context.Context, config.LaunchOptions) (browser.Session, error) {
			return &fakeBrowserSession{page: page}, nil
		}))
	server := New(config.Env{}, manager, artifacts.NewStore(), zap.NewNop())

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	go func() {
		_ = server.mcp.Run(ctx, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "dev"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func TestServer_ListsToolCatalogue(t *testing.T) {
	session := startTestServer(t, &fakePage{})

	result, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(result.Tools))
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t,
		[]string{"navigate", "screenshot", "click", "fill", "select", "hover", "evaluate"},
		names)
}

func TestServer_NavigateOverProtocol(t *testing.T) {
	page := &fakePage{}
	session := startTestServer(t, page)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "navigate",
		Arguments: map[string]any{"url": "https://example.com"},
	})
	require.NoError(t, err)

	require.False(t, result.IsError)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Equal(t, "Navigated to https://example.com", text.Text)
	assert.Equal(t, []string{"https://example.com"}, page.navigated)
}

func TestServer_DangerousLaunchOptionsRejected(t *testing.T) {
	session := startTestServer(t, &fakePage{})

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "navigate",
		Arguments: map[string]any{
			"url":           "https://example.com",
			"launchOptions": map[string]any{"args": []any{"--no-sandbox"}},
		},
	})

	// The rejection fails the call; depending on transport policy it
	// surfaces as a protocol error or an error-flagged result.
	if err != nil {
		assert.Contains(t, err.Error(), "--no-sandbox")
		return
	}
	require.True(t, result.IsError)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "--no-sandbox")
}

func TestServer_ScreenshotBecomesReadableResource(t *testing.T) {
	page := &fakePage{shotData: []byte("png-bytes")}
	session := startTestServer(t, page)
	ctx := context.Background()

	_, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "screenshot",
		Arguments: map[string]any{"name": "home"},
	})
	require.NoError(t, err)

	resources, err := session.ListResources(ctx, nil)
	require.NoError(t, err)
	uris := make([]string, 0, len(resources.Resources))
	for _, r := range resources.Resources {
		uris = append(uris, r.URI)
	}
	assert.Contains(t, uris, "console://logs")
	assert.Contains(t, uris, "screenshot://home")

	read, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: "screenshot://home"})
	require.NoError(t, err)
	require.Len(t, read.Contents, 1)
	assert.Equal(t, []byte("png-bytes"), read.Contents[0].Blob)
}

func TestServer_ConsoleLogsResourceReadable(t *testing.T) {
	session := startTestServer(t, &fakePage{})

	read, err := session.ReadResource(context.Background(), &mcp.ReadResourceParams{URI: "console://logs"})
	require.NoError(t, err)
	require.Len(t, read.Contents, 1)
	assert.Equal(t, "text/plain", read.Contents[0].MIMEType)
}

func TestServer_EvaluateOverProtocol(t *testing.T) {
	page := &fakePage{
		evalFn: func(script string) (json.RawMessage, error) {
			switch script {
			case "1+1":
				return json.RawMessage("2"), nil
			case consoleCollectScript:
				return json.RawMessage("[]"), nil
			default:
				return json.RawMessage("null"), nil
			}
		},
	}
	session := startTestServer(t, page)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "evaluate",
		Arguments: map[string]any{"script": "1+1"},
	})
	require.NoError(t, err)

	require.False(t, result.IsError)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "Execution result:\n2")
}
