package taskdeck

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

func BuildWebsocketURL(serverURL string, projectID int64) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(serverURL))
	if err != nil {
		return "", err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("invalid server url")
	}

	wsScheme := "ws"
	if parsed.Scheme == "https" {
		wsScheme = "wss"
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("server url must start with http:// or https://")
	}

	wsURL := &url.URL{
		Scheme: wsScheme,
		Host:   parsed.Host,
		Path:   "/ws",
	}

	if projectID > 0 {
		q := wsURL.Query()
		q.Set("project", strconv.FormatInt(projectID, 10))
		wsURL.RawQuery = q.Encode()
	}

	return wsURL.String(), nil
}
