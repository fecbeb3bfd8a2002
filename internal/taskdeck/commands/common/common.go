package common

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
)

type Runtime interface {
	ServerURL() string
	Output() string
	UserID() int64
}

type HandleResponseFunc func(output string, stdout io.Writer, resp *http.Response, reqErr error) error

type WrapErrorFunc func(status int, message string) error

// Do issues a JSON request against the backend API. The path is joined onto
// the runtime's server URL; a nil body sends no payload.
func Do(runtime Runtime, method, path string, query url.Values, body any) (*http.Response, error) {
	base := strings.TrimRight(runtime.ServerURL(), "/")
	target := base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, target, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return http.DefaultClient.Do(req)
}
