package mcpserver

import "github.com/modelcontextprotocol/go-sdk/mcp"

// Tool inputs are decoded and validated by the SDK against schemas
// derived from these structs; fields without omitempty are required.

// NavigateInput is the input for the navigate tool. It is the only
// tool that accepts launch configuration: supplying launchOptions
// that differ from the previous call relaunches the browser.
type NavigateInput struct {
	URL            string         `json:"url" jsonschema:"full URL to navigate to, including the protocol"`
	LaunchOptions  map[string]any `json:"launchOptions,omitempty" jsonschema:"browser launch options merged over the BROWSER_LAUNCH_OPTIONS environment configuration; a changed value forces a browser relaunch"`
	AllowDangerous bool           `json:"allowDangerous,omitempty" jsonschema:"permit launch arguments that weaken browser security for this call"`
}

// ScreenshotInput is the input for the screenshot tool.
type ScreenshotInput struct {
	Name     string `json:"name" jsonschema:"name to store the screenshot under; reusing a name overwrites"`
	Selector string `json:"selector,omitempty" jsonschema:"CSS selector of a single element to capture instead of the full page"`
	Width    int    `json:"width,omitempty" jsonschema:"viewport width in pixels, default 800"`
	Height   int    `json:"height,omitempty" jsonschema:"viewport height in pixels, default 600"`
	Encoded  bool   `json:"encoded,omitempty" jsonschema:"return a base64 data URI text item instead of an inline image"`
}

// ClickInput is the input for the click tool.
type ClickInput struct {
	Selector string `json:"selector" jsonschema:"CSS selector of the element to click"`
}

// FillInput is the input for the fill tool.
type FillInput struct {
	Selector string `json:"selector" jsonschema:"CSS selector of the input field"`
	Value    string `json:"value" jsonschema:"text to type into the field"`
}

// SelectInput is the input for the select tool.
type SelectInput struct {
	Selector string `json:"selector" jsonschema:"CSS selector of the select element"`
	Value    string `json:"value" jsonschema:"value attribute of the option to choose"`
}

// HoverInput is the input for the hover tool.
type HoverInput struct {
	Selector string `json:"selector" jsonschema:"CSS selector of the element to hover"`
}

// EvaluateInput is the input for the evaluate tool.
type EvaluateInput struct {
	Script string `json:"script" jsonschema:"JavaScript to execute in the page; console output is captured and returned alongside the result"`
}

func NavigateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "navigate",
		Description: "Navigates the browser to the given URL and waits until the page has loaded.",
	}
}

func ScreenshotTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "screenshot",
		Description: "Captures a PNG screenshot of the current page or a single element and stores it as a readable resource.",
	}
}

func ClickTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "click",
		Description: "Clicks the element matching a CSS selector. Fails if the element is not currently present.",
	}
}

func FillTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "fill",
		Description: "Waits for an input field to appear, clears it, and types the given value.",
	}
}

func SelectTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "select",
		Description: "Waits for a select element to appear and chooses the option with the given value.",
	}
}

func HoverTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "hover",
		Description: "Waits for an element to appear and moves the mouse over it.",
	}
}

func EvaluateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "evaluate",
		Description: "Executes JavaScript in the page and returns the JSON-serialized result together with any console output the script produced.",
	}
}
