package version

import (
	"fmt"
	"log"
	"runtime"
	"strings"

	"github.com/thushan/warden/theme"
)

var (
	Name        = "warden"
	Authors     = "Thushan Fernando"
	Description = "In-process request guard and health monitor"
	Version     = "v0.0.1"
	Commit      = "none"
	Date        = "nowish"
	User        = "local"
	Runtime     = runtime.Version()

	Capabilities = []string{
		"rate-limiting",
		"threat-scanning",
		"reputation",
		"health-monitoring",
		"event-forwarding",
	}
	SupportedSinks = []string{"redis", "nats", "postgres", "file"}
)

const (
	GithubHomeText  = "github.com/thushan/warden"
	GithubHomeUri   = "https://github.com/thushan/warden"
	GithubLatestUri = "https://github.com/thushan/warden/releases/latest"
)

func PrintVersionInfo(extendedInfo bool, vlog *log.Logger) {
	githubUri := theme.Hyperlink(GithubHomeUri, GithubHomeText)
	latestUri := theme.Hyperlink(GithubLatestUri, Version)
	padLatest := fmt.Sprintf("%*s", max(16-len(Version), 1), "")

	var b strings.Builder

	b.WriteString(theme.ColourSplash(`
╔──────────────────────────────────────────────────────╗
│  ██╗    ██╗ █████╗ ██████╗ ██████╗ ███████╗███╗   ██╗ │
│  ██║    ██║██╔══██╗██╔══██╗██╔══██╗██╔════╝████╗  ██║ │
│  ██║ █╗ ██║███████║██████╔╝██║  ██║█████╗  ██╔██╗ ██║ │
│  ██║███╗██║██╔══██║██╔══██╗██║  ██║██╔══╝  ██║╚██╗██║ │
│  ╚███╔███╔╝██║  ██║██║  ██║██████╔╝███████╗██║ ╚████║ │
│   ╚══╝╚══╝ ╚═╝  ╚═╝╚═╝  ╚═╝╚═════╝ ╚══════╝╚═╝  ╚═══╝ │` + "\n"))

	b.WriteString(theme.ColourSplash("│ "))
	b.WriteString(theme.StyleUrl(githubUri))
	b.WriteString(padLatest)
	b.WriteString(theme.ColourVersion(latestUri))
	b.WriteString(theme.ColourSplash("  │\n"))
	b.WriteString(theme.ColourSplash("╚──────────────────────────────────────────────────────╝"))

	if extendedInfo {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf(" Commit: %s\n", Commit))
		b.WriteString(fmt.Sprintf("  Built: %s\n", Date))
		b.WriteString(fmt.Sprintf("  Using: %s\n", User))
		b.WriteString(fmt.Sprintf("     Go: %s\n", Runtime))
	}

	vlog.Println(b.String())
}
