package config

import (
	"fmt"
	"strings"
)

// dangerousArgPrefixes lists browser flags that weaken process
// isolation or transport security. Matching is by prefix so value
// forms like --disable-features=site-per-process,Foo are caught too.
var dangerousArgPrefixes = []string{
	"--no-sandbox",
	"--disable-setuid-sandbox",
	"--single-process",
	"--no-zygote",
	"--disable-web-security",
	"--ignore-certificate-errors",
	"--allow-running-insecure-content",
	"--disable-features=site-per-process",
}

// DangerousArgsError reports launch arguments rejected by the danger
// filter. Every matched argument is carried verbatim.
type DangerousArgsError struct {
	Args []string
}

func (e *DangerousArgsError) Error() string {
	return fmt.Sprintf(
		"dangerous browser arguments detected: %s. Set allowDangerous: true in the tool call or ALLOW_DANGEROUS_ARGS=true in the environment to override",
		strings.Join(e.Args, ", "),
	)
}

// CheckDangerousArgs validates the merged configuration's argument
// list against the deny-list. It must run on the final merged
// configuration, after environment and per-call options combine.
func CheckDangerousArgs(opts LaunchOptions, allow bool) error {
	if allow {
		return nil
	}
	var matched []string
	for _, arg := range Args(opts) {
		for _, prefix := range dangerousArgPrefixes {
			if strings.HasPrefix(arg, prefix) {
				matched = append(matched, arg)
				break
			}
		}
	}
	if len(matched) > 0 {
		return &DangerousArgsError{Args: matched}
	}
	return nil
}
