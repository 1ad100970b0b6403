package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckDangerousArgs_RejectsDenyListedPrefixes(t *testing.T) {
	tests := []struct {
		name    string
		args    []any
		matched []string
	}{
		{
			name:    "sandbox disabled",
			args:    []any{"--no-sandbox"},
			matched: []string{"--no-sandbox"},
		},
		{
			name:    "prefix match with value",
			args:    []any{"--disable-features=site-per-process,Translate"},
			matched: []string{"--disable-features=site-per-process,Translate"},
		},
		{
			name:    "multiple matches reported verbatim",
			args:    []any{"--single-process", "--window-size=800,600", "--disable-web-security"},
			matched: []string{"--single-process", "--disable-web-security"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckDangerousArgs(LaunchOptions{"args": tt.args}, false)
			require.Error(t, err)

			var dangerErr *DangerousArgsError
			require.True(t, errors.As(err, &dangerErr))
			assert.Equal(t, tt.matched, dangerErr.Args)
			for _, arg := range tt.matched {
				assert.Contains(t, err.Error(), arg)
			}
		})
	}
}

func TestCheckDangerousArgs_AllowOverrides(t *testing.T) {
	opts := LaunchOptions{"args": []any{"--no-sandbox"}}

	assert.NoError(t, CheckDangerousArgs(opts, true))
}

func TestCheckDangerousArgs_AcceptsCleanArgs(t *testing.T) {
	opts := LaunchOptions{"args": []any{"--window-size=1280,720", "--lang=en-US"}}

	assert.NoError(t, CheckDangerousArgs(opts, false))
	assert.NoError(t, CheckDangerousArgs(LaunchOptions{}, false))
}
