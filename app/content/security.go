package content

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// SSRFError is returned when a URL is blocked before any outbound fetch is
// attempted. Callers surface it distinctly from generic fetch failures.
type SSRFError struct {
	Reason string
}

func (e *SSRFError) Error() string {
	return "URL blocked: " + e.Reason
}

// ValidateURL checks that a URL is safe to fetch server-side. It blocks
// non-HTTP schemes, localhost and loopback addresses, private network ranges
// (RFC 1918), link-local addresses, unspecified and multicast addresses and
// the cloud metadata endpoint 169.254.169.254.
//
// allowLocal permits localhost and loopback targets; it must come from
// explicit configuration, never from runtime environment sniffing.
//
// DNS resolution failures are not treated as validation failures: the
// subsequent fetch will fail with a proper error on its own.
func ValidateURL(rawURL string, allowLocal bool) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return &SSRFError{Reason: fmt.Sprintf("URL %q is not parseable", rawURL)}
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return &SSRFError{Reason: fmt.Sprintf("URL scheme %q is not allowed, only http and https are permitted", parsed.Scheme)}
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return &SSRFError{Reason: "URL must have a valid hostname"}
	}

	if !allowLocal {
		switch strings.ToLower(hostname) {
		case "localhost", "127.0.0.1", "::1":
			return &SSRFError{Reason: "access to localhost is not allowed"}
		}
	}

	ips, err := net.LookupIP(hostname)
	if err != nil {
		// DNS failure is likely a real domain issue, let it proceed.
		return nil
	}

	for _, ip := range ips {
		if err := validateIP(ip, allowLocal); err != nil {
			return err
		}
	}

	return nil
}

func validateIP(ip net.IP, allowLocal bool) error {
	if !allowLocal && ip.IsLoopback() {
		return &SSRFError{Reason: fmt.Sprintf("access to loopback address %s is not allowed", ip)}
	}

	// RFC 1918 ranges, skipped when already handled as loopback
	if ip.IsPrivate() && !ip.IsLoopback() {
		return &SSRFError{Reason: fmt.Sprintf("access to private address %s is not allowed", ip)}
	}

	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return &SSRFError{Reason: fmt.Sprintf("access to link-local address %s is not allowed", ip)}
	}

	if ip.IsUnspecified() {
		return &SSRFError{Reason: fmt.Sprintf("access to unspecified address %s is not allowed", ip)}
	}

	if ip.IsMulticast() {
		return &SSRFError{Reason: fmt.Sprintf("access to multicast address %s is not allowed", ip)}
	}

	// Cloud metadata service (AWS, GCP, Azure common endpoint)
	if ip.String() == "169.254.169.254" {
		return &SSRFError{Reason: "access to cloud metadata service is not allowed"}
	}

	return nil
}
