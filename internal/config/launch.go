package config

import (
	"encoding/json"
	"reflect"

	"go.uber.org/zap"
)

// LaunchOptions is a nested launch configuration for the browser
// process as supplied by the environment or a tool call. There is no
// fixed schema beyond the "args" list; unknown keys pass through to
// the launcher untouched.
type LaunchOptions = map[string]any

// ParseLaunchOptions decodes a JSON launch configuration. Malformed
// input is treated as an empty configuration, not an error, so a bad
// environment variable can never block tool calls.
func ParseLaunchOptions(raw string, log *zap.Logger) LaunchOptions {
	if raw == "" {
		return LaunchOptions{}
	}
	var opts LaunchOptions
	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		if log != nil {
			log.Warn("ignoring malformed launch options", zap.Error(err))
		}
		return LaunchOptions{}
	}
	if opts == nil {
		opts = LaunchOptions{}
	}
	return opts
}

// Merge combines two launch configurations, with override taking
// precedence. Maps merge key-by-key, argument lists union as sets,
// anything else is replaced wholesale. Neither input is mutated.
func Merge(base, override LaunchOptions) LaunchOptions {
	merged := make(LaunchOptions, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		if cur, ok := merged[k]; ok {
			merged[k] = mergeValues(cur, v)
		} else {
			merged[k] = v
		}
	}
	return merged
}

// mergeValues resolves a single key collision. Only map-vs-map and
// list-vs-list combine; any type mismatch means the override wins.
func mergeValues(base, override any) any {
	if bm, ok := base.(map[string]any); ok {
		if om, ok := override.(map[string]any); ok {
			return Merge(bm, om)
		}
	}
	if bl, ok := base.([]any); ok {
		if ol, ok := override.([]any); ok {
			return unionLists(bl, ol)
		}
	}
	return override
}

// unionLists treats both lists as sets: base elements first, then
// override elements not already present. Equality is deep value
// equality so JSON-decoded structures compare as expected.
func unionLists(base, override []any) []any {
	out := make([]any, 0, len(base)+len(override))
	for _, v := range base {
		if !containsValue(out, v) {
			out = append(out, v)
		}
	}
	for _, v := range override {
		if !containsValue(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func containsValue(list []any, v any) bool {
	for _, cur := range list {
		if reflect.DeepEqual(cur, v) {
			return true
		}
	}
	return false
}

// Args returns the string elements of the configuration's "args"
// list. Non-string elements and non-list values are ignored.
func Args(opts LaunchOptions) []string {
	raw, ok := opts["args"]
	if !ok {
		return nil
	}
	switch list := raw.(type) {
	case []any:
		out := make([]string, 0, len(list))
		for _, v := range list {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return list
	default:
		return nil
	}
}
