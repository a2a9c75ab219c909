package security

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ClientIPExtractor resolves the real client IP. Forwarded headers are
// honored only when the direct peer is a trusted proxy; anything a
// stranger sends in X-Forwarded-For is ignored.
type ClientIPExtractor struct {
	trustedProxies []*net.IPNet
}

func NewClientIPExtractor() *ClientIPExtractor {
	return &ClientIPExtractor{
		trustedProxies: []*net.IPNet{
			mustCIDR("127.0.0.0/8"),
			mustCIDR("10.0.0.0/8"),
			mustCIDR("172.16.0.0/12"),
			mustCIDR("192.168.0.0/16"),
		},
	}
}

func mustCIDR(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(fmt.Sprintf("parse trusted proxy CIDR %s: %v", cidr, err))
	}
	return network
}

// AddTrustedProxy adds a trusted proxy network.
func (e *ClientIPExtractor) AddTrustedProxy(cidr string) error {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	e.trustedProxies = append(e.trustedProxies, network)
	return nil
}

// ExtractClientIP returns the client IP for r.
func (e *ClientIPExtractor) ExtractClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	parsed := net.ParseIP(directIP)
	if parsed == nil {
		return directIP
	}

	if e.isTrustedProxy(parsed) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			// First entry is the originating client.
			first := strings.TrimSpace(strings.Split(xff, ",")[0])
			if net.ParseIP(first) != nil {
				return first
			}
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			if net.ParseIP(xri) != nil {
				return xri
			}
		}
	}

	return directIP
}

func (e *ClientIPExtractor) isTrustedProxy(ip net.IP) bool {
	for _, network := range e.trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
