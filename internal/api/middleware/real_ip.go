package middleware

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ProxyTrust holds the proxies allowed to report the client address through
// X-Forwarded-For or X-Real-IP. A nil ProxyTrust trusts nobody.
type ProxyTrust struct {
	prefixes []netip.Prefix
}

// NewProxyTrust parses proxy addresses given as single IPs or CIDR ranges.
func NewProxyTrust(proxies []string) (*ProxyTrust, error) {
	pt := &ProxyTrust{}
	for _, raw := range proxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			prefix, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", raw, err)
			}
			pt.prefixes = append(pt.prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", raw, err)
		}
		pt.prefixes = append(pt.prefixes, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
	}
	return pt, nil
}

func (pt *ProxyTrust) trusted(addr netip.Addr) bool {
	if pt == nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range pt.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// Handle replaces r.RemoteAddr with the forwarded client address when the
// direct peer is trusted. X-Forwarded-For is read right to left, skipping
// trusted hops; the first untrusted entry is the client.
func (pt *ProxyTrust) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client, ok := pt.forwardedClient(r); ok {
			r.RemoteAddr = client
		}
		next(w, r)
	}
}

func (pt *ProxyTrust) forwardedClient(r *http.Request) (string, bool) {
	peer, err := netip.ParseAddr(ClientIP(r))
	if err != nil || !pt.trusted(peer) {
		return "", false
	}

	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		hops := strings.Split(fwd, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				return "", false
			}
			if !pt.trusted(addr) {
				return net.JoinHostPort(addr.Unmap().String(), "0"), true
			}
		}
		return "", false
	}

	if addr, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return net.JoinHostPort(addr.Unmap().String(), "0"), true
	}
	return "", false
}
