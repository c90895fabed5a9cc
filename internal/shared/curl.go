// Utilities for lifting credentials out of a browser "Copy as cURL" command.
package shared

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	curlHeaderRe = regexp.MustCompile(`(?:-H|--header)\s+(?:'([^']+)'|"([^"]+)")`)
	curlCookieRe = regexp.MustCompile(`(?:-b|--cookie)\s+(?:'([^']+)'|"([^"]+)")`)
)

// CurlRequest holds the headers and cookie string found in a cURL command.
type CurlRequest struct {
	Headers map[string]string
	Cookie  string
}

// ParseCurlFile reads a file containing a cURL command and extracts its headers.
func ParseCurlFile(filepath string) (*CurlRequest, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}
	return ParseCurlCommand(content)
}

// ParseCurlCommand parses a cURL command and extracts headers and cookies.
//
// Header names are canonicalized to lower case.
func ParseCurlCommand(data []byte) (*CurlRequest, error) {
	cmd := strings.ReplaceAll(string(data), "\\\n", " ")
	cmd = strings.ReplaceAll(cmd, "\\", "")

	req := &CurlRequest{Headers: make(map[string]string)}
	for _, m := range curlHeaderRe.FindAllStringSubmatch(cmd, -1) {
		key, value, ok := strings.Cut(firstNonEmpty(m[1], m[2]), ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if key == "cookie" {
			req.Cookie = value
			continue
		}
		req.Headers[key] = value
	}

	if m := curlCookieRe.FindStringSubmatch(cmd); m != nil {
		req.Cookie = firstNonEmpty(m[1], m[2])
	}

	if len(req.Headers) == 0 && req.Cookie == "" {
		return nil, fmt.Errorf("%w: no headers found in curl command", ErrInvalidInput)
	}
	return req, nil
}

// AuthToken returns the token from an "Authorization: Token <key>" header.
func (c *CurlRequest) AuthToken() (string, bool) {
	scheme, token, ok := strings.Cut(c.Headers["authorization"], " ")
	if !ok || !strings.EqualFold(scheme, "token") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
