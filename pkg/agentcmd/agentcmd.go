// Package agentcmd renders the copy-paste shell commands that install and
// uninstall the host agent on each supported platform.
package agentcmd

import (
	"fmt"
	"strings"
)

// Platform is a host agent target platform.
type Platform string

const (
	Linux   Platform = "linux"
	MacOS   Platform = "macos"
	Windows Platform = "windows"
)

// Platforms lists the platforms in display order.
var Platforms = []Platform{Linux, MacOS, Windows}

const (
	// TokenPlaceholder is substituted with the resolved token at render time.
	TokenPlaceholder = "<api-token>"
	// TokenDisabled is rendered in place of a token when the server accepts
	// unauthenticated agent reports.
	TokenDisabled = "disabled"
	// URLPlaceholder is substituted with the dashboard URL.
	URLPlaceholder = "<pulse-url>"
)

var platformAliases = map[string]Platform{
	"linux":   Linux,
	"debian":  Linux,
	"ubuntu":  Linux,
	"rhel":    Linux,
	"centos":  Linux,
	"fedora":  Linux,
	"alpine":  Linux,
	"macos":   MacOS,
	"mac":     MacOS,
	"darwin":  MacOS,
	"osx":     MacOS,
	"windows": Windows,
	"win":     Windows,
	"win32":   Windows,
	"win64":   Windows,
}

// ParsePlatform matches a reported platform string case-insensitively
// against the known aliases.
func ParsePlatform(raw string) (Platform, bool) {
	p, ok := platformAliases[strings.ToLower(strings.TrimSpace(raw))]
	return p, ok
}

// Label is the human name of a platform.
func (p Platform) Label() string {
	switch p {
	case MacOS:
		return "macOS"
	case Windows:
		return "Windows"
	default:
		return "Linux"
	}
}

var installTemplates = map[Platform]string{
	Linux: "curl -fsSL " + URLPlaceholder + "/install-host-agent.sh | sudo bash -s -- " +
		"--url " + URLPlaceholder + " --token " + TokenPlaceholder + " --interval %ds",
	MacOS: "curl -fsSL " + URLPlaceholder + "/install-host-agent.sh | bash -s -- " +
		"--url " + URLPlaceholder + " --token " + TokenPlaceholder + " --interval %ds --platform darwin",
	Windows: "powershell -ExecutionPolicy Bypass -Command \"& { $env:PULSE_URL='" + URLPlaceholder +
		"'; $env:PULSE_TOKEN='" + TokenPlaceholder + "'; $env:PULSE_INTERVAL='%ds'; " +
		"irm " + URLPlaceholder + "/install-host-agent.ps1 | iex }\"",
}

var uninstallTemplates = map[Platform]string{
	Linux:   "curl -fsSL " + URLPlaceholder + "/install-host-agent.sh | sudo bash -s -- --uninstall",
	MacOS:   "curl -fsSL " + URLPlaceholder + "/install-host-agent.sh | bash -s -- --uninstall --platform darwin",
	Windows: "powershell -ExecutionPolicy Bypass -Command \"& { $env:PULSE_UNINSTALL='true'; irm " + URLPlaceholder + "/install-host-agent.ps1 | iex }\"",
}

// InstallTemplate returns the install command for p with the URL filled in
// and the token left as TokenPlaceholder.
func InstallTemplate(p Platform, baseURL string, intervalSeconds int) string {
	tmpl, ok := installTemplates[p]
	if !ok {
		tmpl = installTemplates[Linux]
	}
	if intervalSeconds <= 0 {
		intervalSeconds = 30
	}
	return strings.ReplaceAll(fmt.Sprintf(tmpl, intervalSeconds), URLPlaceholder, strings.TrimRight(baseURL, "/"))
}

// WithToken substitutes the token placeholder in a rendered template.
func WithToken(command, token string) string {
	return strings.ReplaceAll(command, TokenPlaceholder, token)
}

// Uninstall returns the uninstall command for p.
func Uninstall(p Platform, baseURL string) string {
	tmpl, ok := uninstallTemplates[p]
	if !ok {
		tmpl = uninstallTemplates[Linux]
	}
	return strings.ReplaceAll(tmpl, URLPlaceholder, strings.TrimRight(baseURL, "/"))
}

// UninstallFor picks the uninstall command from a host's reported platform,
// defaulting to Linux when the platform is not recognized.
func UninstallFor(reportedPlatform, baseURL string) (Platform, string) {
	p, ok := ParsePlatform(reportedPlatform)
	if !ok {
		p = Linux
	}
	return p, Uninstall(p, baseURL)
}
