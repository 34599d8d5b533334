// Package update checks whether a newer imggen release is available.
package update

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// releasesURL is a var so tests can point it at a local server.
var releasesURL = "https://api.github.com/repos/ilkkanisula/imggen/releases/latest"

var httpClient = &http.Client{Timeout: 10 * time.Second}

// LatestVersion fetches the tag name of the most recent release.
func LatestVersion(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, releasesURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach release API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("release API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	tag := gjson.GetBytes(body, "tag_name").String()
	if tag == "" {
		return "", fmt.Errorf("release API response has no tag_name")
	}
	return tag, nil
}

// Check compares the running version against the latest release and
// returns the latest tag plus whether an update is available.
func Check(ctx context.Context, current string) (latest string, available bool, err error) {
	latest, err = LatestVersion(ctx)
	if err != nil {
		return "", false, err
	}
	available = normalize(latest) != normalize(current)
	return latest, available, nil
}

func normalize(v string) string {
	return strings.TrimPrefix(strings.TrimSpace(v), "v")
}
