package browser

import (
	"fmt"
	"net/url"
	"strings"
)

// ProxyURL builds the rendering-proxy URL that fetches target on our
// behalf. The proxy runs the page's scripts before returning it.
func ProxyURL(endpoint, apiKey, target, country string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse proxy endpoint: %w", err)
	}
	q := u.Query()
	q.Set("api_key", apiKey)
	q.Set("url", target)
	q.Set("render", "true")
	if c := strings.ToLower(strings.TrimSpace(country)); c != "" && c != "ww" {
		q.Set("country_code", c)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
