package handlers

import (
	"net/http"
	"runtime"

	"github.com/thushan/warden/internal/core/constants"
	"github.com/thushan/warden/internal/version"
)

type VersionResponse struct {
	Name           string            `json:"name"`
	Version        string            `json:"version"`
	Description    string            `json:"description"`
	Build          BuildInfo         `json:"build"`
	Capabilities   []string          `json:"capabilities"`
	SupportedSinks []string          `json:"supported_sinks"`
	RulesVersion   string            `json:"rules_version"`
	Links          map[string]string `json:"links"`
}

type BuildInfo struct {
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// versionHandler handles version requests with metadata about the application.
func (a *Application) versionHandler(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, VersionResponse{
		Name:        version.Name,
		Version:     version.Version,
		Description: version.Description,
		Build: BuildInfo{
			Commit:    version.Commit,
			Date:      version.Date,
			GoVersion: version.Runtime,
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		},
		Capabilities:   version.Capabilities,
		SupportedSinks: version.SupportedSinks,
		RulesVersion:   a.security.RulesVersion(),
		Links: map[string]string{
			"homepage": version.GithubHomeUri,
			"latest":   version.GithubLatestUri,
			"health":   constants.DefaultHealthCheckEndpoint,
		},
	})
}
