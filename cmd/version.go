package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-version"
	"github.com/nulzo/studio-relay/internal/httpclient"
)

// AppVersion is overridden at build time with -ldflags "-X".
var AppVersion = "v0.1.0"

const releasesURL = "https://api.github.com/repos/nulzo/studio-relay/releases/latest"

type GitHubRelease struct {
	TagName string `json:"tag_name"`
}

// IsOutdated reports whether latest is newer than current.
func IsOutdated(current, latest string) (bool, error) {
	cur, err := version.NewVersion(current)
	if err != nil {
		return false, fmt.Errorf("current version %q: %w", current, err)
	}
	lat, err := version.NewVersion(latest)
	if err != nil {
		return false, fmt.Errorf("latest version %q: %w", latest, err)
	}
	return cur.LessThan(lat), nil
}

// CheckForUpdates looks up the latest release tag. It returns the tag when it is
// newer than AppVersion and "" otherwise. Failures are silent.
func CheckForUpdates(ctx context.Context, client httpclient.HTTPClient) string {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Second}
	}

	var release GitHubRelease
	headers := map[string]string{"Accept": "application/vnd.github+json"}
	if err := httpclient.SendRequest(ctx, client, http.MethodGet, releasesURL, headers, nil, &release); err != nil {
		return ""
	}

	outdated, err := IsOutdated(AppVersion, release.TagName)
	if err != nil || !outdated {
		return ""
	}
	return release.TagName
}
