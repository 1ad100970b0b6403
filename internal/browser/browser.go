// Package browser owns the single managed Chromium session: deciding
// when to launch or relaunch it, applying launch configuration, and
// exposing page operations to the tool layer.
package browser

import (
	"context"
	"encoding/json"
)

// Page is the operation surface tools drive. Implemented by the rod
// adapter; faked in dispatcher tests.
type Page interface {
	Navigate(ctx context.Context, url string) error
	SetViewport(ctx context.Context, width, height int) error
	// Screenshot captures PNG bytes of the element matching selector,
	// or of the viewport when selector is empty.
	Screenshot(ctx context.Context, selector string) ([]byte, error)
	Click(ctx context.Context, selector string) error
	Fill(ctx context.Context, selector, value string) error
	Select(ctx context.Context, selector, value string) error
	Hover(ctx context.Context, selector string) error
	// Eval runs a script in the page and returns its JSON-serialized
	// result. Non-serializable results are an error.
	Eval(ctx context.Context, script string) (json.RawMessage, error)
}

// Session is one live browser process with its active page. A session
// whose handle reports disconnected is equivalent to no session.
type Session interface {
	Page() Page
	Connected() bool
	Close() error
}
