package graphqlclient

import (
	"context"
	"fmt"
	"net"
	"strings"
	"syscall"
	"time"
)

// BlockedError reports an endpoint address refused by the client's address
// filter.
type BlockedError struct {
	Host   string
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("graphql endpoint %s blocked: %s", e.Host, e.Reason)
}

// addressFilter decides which endpoints the client may connect to.
//
// Hosts matching allowlist (a hostname, a *.suffix wildcard, an IP or a CIDR)
// skip the address checks. When allowlist is non-empty every other host is
// refused. The remaining hosts are checked after DNS resolution, on the
// address actually dialed, so a name cannot be rebound to an internal address
// between check and connect.
type addressFilter struct {
	allowlist    []string
	allowPrivate bool
}

// checkHost applies the allowlist to the host part of an endpoint. trusted
// reports whether the host bypasses the address checks.
func (f addressFilter) checkHost(host string) (trusted bool, err error) {
	for _, pattern := range f.allowlist {
		if matchesPattern(host, pattern) {
			return true, nil
		}
	}
	if len(f.allowlist) > 0 {
		return false, &BlockedError{Host: host, Reason: "host not in allowlist"}
	}
	return false, nil
}

// checkIP refuses loopback, private, link-local (including cloud metadata at
// 169.254.169.254), multicast and unspecified addresses. allowPrivate lifts
// the loopback and private checks only.
func (f addressFilter) checkIP(host string, ip net.IP) error {
	reason := ""
	switch {
	case ip.IsUnspecified():
		reason = "unspecified address"
	case ip.IsLoopback() && !f.allowPrivate:
		reason = "loopback address"
	case ip.IsPrivate() && !f.allowPrivate:
		reason = "private address"
	case ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast():
		reason = "link-local address"
	case ip.IsMulticast():
		reason = "multicast address"
	}
	if reason != "" {
		return &BlockedError{Host: host, Reason: reason + " " + ip.String()}
	}
	return nil
}

// dialContext dials addr through the filter.
func (f addressFilter) dialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	trusted, err := f.checkHost(host)
	if err != nil {
		return nil, err
	}

	d := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
	if !trusted {
		d.Control = func(_, address string, _ syscall.RawConn) error {
			ipStr, _, err := net.SplitHostPort(address)
			if err != nil {
				return err
			}
			ip := net.ParseIP(ipStr)
			if ip == nil {
				return &BlockedError{Host: host, Reason: "unparseable address " + ipStr}
			}
			return f.checkIP(host, ip)
		}
	}
	return d.DialContext(ctx, network, addr)
}

// matchesPattern checks if a host matches a hostname, *.suffix wildcard, IP
// or CIDR pattern.
func matchesPattern(host, pattern string) bool {
	host = strings.ToLower(host)
	pattern = strings.ToLower(pattern)
	if host == pattern {
		return true
	}
	if strings.HasPrefix(pattern, "*.") && strings.HasSuffix(host, pattern[1:]) {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		if _, cidr, err := net.ParseCIDR(pattern); err == nil && cidr.Contains(ip) {
			return true
		}
	}
	return false
}
