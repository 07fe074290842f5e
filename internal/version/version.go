// Package version carries the release version and the startup banner.
package version

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Version is the release version, bumped on tag.
const Version = "1.0.0"

// latestURL serves the raw VERSION file of the main branch.
const latestURL = "https://raw.githubusercontent.com/tabpilot/tabpilot/main/VERSION"

// Banner renders the startup greeting.
func Banner(provider, model, addr string) string {
	return fmt.Sprintf(`tabpilot %s
provider: %s
model:    %s
api:      http://%s/v1
`, Version, provider, model, addr)
}

// CheckLatest fetches the published version and reports it with
// whether an upgrade is available. Network failures surface as errors;
// callers treat the check as best effort.
func CheckLatest() (latest string, outdated bool, err error) {
	return checkLatest(latestURL)
}

func checkLatest(url string) (latest string, outdated bool, err error) {
	client := resty.New().SetTimeout(5 * time.Second)
	resp, err := client.R().Get(url)
	if err != nil {
		return "", false, fmt.Errorf("version check failed: %w", err)
	}
	if resp.IsError() {
		return "", false, fmt.Errorf("version check failed: status %d", resp.StatusCode())
	}
	latest = strings.TrimSpace(resp.String())
	if latest == "" {
		return "", false, fmt.Errorf("version check failed: empty response")
	}
	return latest, latest != Version, nil
}
