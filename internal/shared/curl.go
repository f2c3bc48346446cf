// Utilities for lifting Slack web-session credentials out of a browser "Copy as cURL" command.
package shared

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
)

var (
	curlHeaderRegex = regexp.MustCompile(`-H\s+\$?'([^']+)'|-H\s+"([^"]+)"`)
	curlCookieRegex = regexp.MustCompile(`(?:-b|--cookie)\s+\$?'([^']+)'|(?:-b|--cookie)\s+"([^"]+)"`)
	curlURLRegex    = regexp.MustCompile(`curl\s+\$?['"]?(https?://[^\s'"]+)`)
	anyURLRegex     = regexp.MustCompile(`\s\$?['"](https?://[^\s'"]+)['"]`)
	sessionToken    = regexp.MustCompile(`xoxc-[A-Za-z0-9-]+`)
)

// CurlRequest is the subset of a cURL command needed to replay a Slack web API call.
type CurlRequest struct {
	URL     string
	Headers map[string]string
	Cookie  string
	Body    string
}

// ParseCurlFile reads a .sh file containing a cURL command and parses it.
func ParseCurlFile(filepath string) (*CurlRequest, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParseCurlCommand(string(content))
}

// ParseCurlCommand extracts the URL, headers, cookie and body of a cURL command string.
//
// A -b/--cookie flag takes precedence over a Cookie header; the cookie is never kept in Headers.
func ParseCurlCommand(curlCmd string) (*CurlRequest, error) {
	curlCmd = strings.ReplaceAll(curlCmd, "\\\n", " ")

	req := &CurlRequest{Headers: make(map[string]string)}

	if m := curlURLRegex.FindStringSubmatch(curlCmd); m != nil {
		req.URL = m[1]
	} else if m := anyURLRegex.FindStringSubmatch(curlCmd); m != nil {
		req.URL = m[1]
	}

	var headerCookie string
	for _, match := range curlHeaderRegex.FindAllStringSubmatch(curlCmd, -1) {
		line := FirstNonEmpty(match[1], match[2])
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if strings.EqualFold(key, "cookie") {
			headerCookie = value
			continue
		}
		req.Headers[key] = value
	}

	if m := curlCookieRegex.FindStringSubmatch(curlCmd); m != nil {
		req.Cookie = FirstNonEmpty(m[1], m[2])
	} else {
		req.Cookie = headerCookie
	}

	for _, flag := range []string{"--data-raw", "--data-binary", "--data", "-d"} {
		if _, rest, ok := strings.Cut(curlCmd, flag+" "); ok {
			req.Body = strings.TrimSpace(rest)
			break
		}
	}

	if len(req.Headers) == 0 && req.Cookie == "" {
		return nil, fmt.Errorf("%w: no headers found in curl command", ErrInvalidArgument)
	}

	return req, nil
}

// Destination derives upload credentials from the request: the full cookie string,
// the xoxc- session token found in the body (or anywhere in the headers/URL) and
// the workspace subdomain from the URL host.
func (c *CurlRequest) Destination() (*DestinationConfig, error) {
	dest := &DestinationConfig{Cookie: c.Cookie}

	haystack := []string{c.Body, c.URL}
	for _, v := range c.Headers {
		haystack = append(haystack, v)
	}
	for _, s := range haystack {
		if tok := sessionToken.FindString(s); tok != "" {
			dest.Token = tok
			break
		}
	}

	if u, err := url.Parse(c.URL); err == nil {
		if sub, ok := strings.CutSuffix(u.Hostname(), ".slack.com"); ok && sub != "app" && sub != "" {
			dest.TeamID = sub
		}
	}

	switch {
	case dest.Cookie == "":
		return dest, fmt.Errorf("%w: cookie not found in curl command", ErrMissingCredentials)
	case dest.Token == "":
		return dest, fmt.Errorf("%w: xoxc token not found in curl command", ErrMissingCredentials)
	}
	return dest, nil
}

// ToTOML renders the destination block for config.toml.
func (d *DestinationConfig) ToTOML() string {
	var b strings.Builder
	b.WriteString("[destination]\n")
	fmt.Fprintf(&b, "team_id = %q\n", d.TeamID)
	fmt.Fprintf(&b, "cookie = %q\n", d.Cookie)
	fmt.Fprintf(&b, "token = %q\n", d.Token)
	return b.String()
}
