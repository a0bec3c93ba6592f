package service

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"

	"mediavault/config"
)

func hostAllowed(host string, allowlist []string) bool {
	if len(allowlist) == 0 {
		return true
	}
	host = strings.ToLower(strings.TrimSpace(host))
	for _, entry := range allowlist {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry == "" {
			continue
		}
		if strings.HasPrefix(entry, ".") {
			if strings.HasSuffix(host, entry) {
				return true
			}
			continue
		}
		if host == entry {
			return true
		}
	}
	return false
}

func isLocalHostname(host string) bool {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "localhost" || host == "localhost.localdomain" {
		return true
	}
	return strings.HasSuffix(host, ".local")
}

func isBlockedIP(ip net.IP) bool {
	if ip == nil {
		return true
	}
	if ip.IsLoopback() || ip.IsMulticast() || ip.IsLinkLocalMulticast() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
		return true
	}
	return ip.IsPrivate()
}

// validateSourceURL checks scheme, host allow-list and, unless private
// fetches are enabled, refuses local and private destinations.
func validateSourceURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, validationErr(KindInvalidURL, rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, validationErr(KindInvalidURL, rawURL)
	}
	host := u.Hostname()
	if host == "" {
		return nil, validationErr(KindInvalidURL, rawURL)
	}
	if !hostAllowed(host, config.AppConfig.ImportAllowedHosts) {
		return nil, validationErr(KindURLUnreachable)
	}
	if config.AppConfig.ImportAllowPrivate {
		return u, nil
	}
	if isLocalHostname(host) {
		return nil, validationErr(KindURLUnreachable)
	}
	if ip := net.ParseIP(host); ip != nil {
		if isBlockedIP(ip) {
			return nil, validationErr(KindURLUnreachable)
		}
		return u, nil
	}
	ips, err := net.LookupIP(host)
	if err != nil || len(ips) == 0 {
		return nil, validationErr(KindURLUnreachable)
	}
	for _, ip := range ips {
		if isBlockedIP(ip) {
			return nil, validationErr(KindURLUnreachable)
		}
	}
	return u, nil
}

func newFetchClient() *http.Client {
	return &http.Client{
		Timeout: config.AppConfig.ImportHTTPTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			_, err := validateSourceURL(req.URL.String())
			return err
		},
	}
}

// fetchRemote downloads a validated URL into a temp file and returns its
// path along with the response content type. The caller removes the file.
func fetchRemote(ctx context.Context, rawURL string) (string, string, error) {
	parsed, err := validateSourceURL(rawURL)
	if err != nil {
		return "", "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return "", "", err
	}
	resp, err := newFetchClient().Do(req)
	if err != nil {
		return "", "", validationErr(KindURLUnreachable)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", validationErr(KindURLUnreachable)
	}

	var body io.Reader = resp.Body
	if max := config.AppConfig.ImportMaxBytes; max > 0 {
		if resp.ContentLength > max {
			return "", "", fmt.Errorf("content too large")
		}
		body = io.LimitReader(resp.Body, max+1)
	}

	tmp, err := os.CreateTemp("", "cdn-fetch-*")
	if err != nil {
		return "", "", err
	}
	written, err := io.Copy(tmp, body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", "", err
	}
	if max := config.AppConfig.ImportMaxBytes; max > 0 && written > max {
		os.Remove(tmp.Name())
		return "", "", fmt.Errorf("content too large")
	}
	return tmp.Name(), resp.Header.Get("Content-Type"), nil
}

// probeRemote issues the HEAD request used when validating an import
// source. Only a 200 response is accepted.
func probeRemote(ctx context.Context, rawURL string) (string, int64, error) {
	parsed, err := validateSourceURL(rawURL)
	if err != nil {
		return "", 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, parsed.String(), nil)
	if err != nil {
		return "", 0, err
	}
	resp, err := newFetchClient().Do(req)
	if err != nil {
		return "", 0, validationErr(KindURLUnreachable)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", 0, validationErr(KindURLUnreachable)
	}
	return resp.Header.Get("Content-Type"), knownLength(resp.ContentLength), nil
}

// knownLength maps the client's "length unknown" marker (-1) to zero so
// it is never persisted as an expected size.
func knownLength(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
