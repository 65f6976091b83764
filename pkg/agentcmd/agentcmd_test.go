package agentcmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePlatform(t *testing.T) {
	tests := []struct {
		input string
		want  Platform
		ok    bool
	}{
		{"linux", Linux, true},
		{"Ubuntu", Linux, true},
		{"Darwin", MacOS, true},
		{" macOS ", MacOS, true},
		{"WINDOWS", Windows, true},
		{"win32", Windows, true},
		{"freebsd", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParsePlatform(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInstallTemplate_KeepsPlaceholder(t *testing.T) {
	for _, p := range Platforms {
		t.Run(string(p), func(t *testing.T) {
			cmd := InstallTemplate(p, "https://pulse.example.com/", 30)
			assert.Contains(t, cmd, TokenPlaceholder)
			assert.Contains(t, cmd, "https://pulse.example.com/install-host-agent")
			assert.NotContains(t, cmd, URLPlaceholder)
			assert.Contains(t, cmd, "30s")
		})
	}
}

func TestInstallTemplate_DefaultInterval(t *testing.T) {
	cmd := InstallTemplate(Linux, "https://pulse.example.com", 0)
	assert.Contains(t, cmd, "--interval 30s")
}

func TestWithToken(t *testing.T) {
	cmd := WithToken(InstallTemplate(Linux, "https://pulse.example.com", 60), "secret-123")
	assert.Contains(t, cmd, "--token secret-123")
	assert.NotContains(t, cmd, TokenPlaceholder)
}

func TestUninstallFor_DistinctPerPlatform(t *testing.T) {
	seen := map[string]bool{}
	for _, raw := range []string{"linux", "darwin", "windows"} {
		_, cmd := UninstallFor(raw, "https://pulse.example.com")
		assert.False(t, seen[cmd], "duplicate command for %s", raw)
		seen[cmd] = true
	}

	p, cmd := UninstallFor("plan9", "https://pulse.example.com")
	assert.Equal(t, Linux, p)
	assert.True(t, strings.HasSuffix(cmd, "--uninstall"))
}
