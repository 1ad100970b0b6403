package browser

import (
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
	"go.uber.org/zap"

	"browser-mcp/internal/artifacts"
)

// forwardConsole subscribes to the page's console events and pushes
// them into the bounded queue. The send never blocks: dropping under
// backpressure is preferable to stalling the CDP event loop.
func (s *rodSession) forwardConsole(page *rod.Page, events chan<- artifacts.ConsoleEntry) {
	wait := page.EachEvent(func(e *proto.RuntimeConsoleAPICalled) {
		entry := artifacts.ConsoleEntry{
			Level: string(e.Type),
			Text:  consoleEventText(e.Args),
		}
		select {
		case events <- entry:
		default:
			s.log.Warn("console event dropped, queue full", zap.String("level", entry.Level))
		}
	})
	go wait()
}

func consoleEventText(args []*proto.RuntimeRemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		parts = append(parts, remoteObjectText(arg))
	}
	return strings.Join(parts, " ")
}

// remoteObjectText renders one console argument the way devtools
// would: strings bare, other primitives as JSON, reference types by
// their description.
func remoteObjectText(obj *proto.RuntimeRemoteObject) string {
	if obj == nil {
		return ""
	}
	if val := obj.Value.Val(); val != nil {
		if s, ok := val.(string); ok {
			return s
		}
		return jsonText(obj.Value)
	}
	if obj.Description != "" {
		return obj.Description
	}
	return string(obj.Type)
}

func jsonText(v gson.JSON) string {
	return v.JSON("", "")
}
