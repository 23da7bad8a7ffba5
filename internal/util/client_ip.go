package util

import (
	"net"
	"net/http"
	"strings"
)

// TrustedProxies is the set of peers whose X-Forwarded-For header is
// believed. Empty means no proxy is trusted and the socket peer always wins.
type TrustedProxies struct {
	nets []*net.IPNet
}

// NewTrustedProxies parses IP and CIDR entries into an allowlist.
// A nil result with nil error means nothing is trusted.
func NewTrustedProxies(entries []string) (*TrustedProxies, error) {
	var nets []*net.IPNet
	for _, raw := range entries {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				return nil, &net.ParseError{Type: "IP address", Text: entry}
			}
			if ip.To4() != nil {
				entry += "/32"
			} else {
				entry += "/128"
			}
		}
		_, cidr, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, err
		}
		nets = append(nets, cidr)
	}
	if len(nets) == 0 {
		return nil, nil
	}
	return &TrustedProxies{nets: nets}, nil
}

// Contains reports whether ip falls inside the allowlist.
func (t *TrustedProxies) Contains(ip net.IP) bool {
	if t == nil || ip == nil {
		return false
	}
	for _, n := range t.nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientIP returns the address download events record for this request.
// The forwarded chain is consulted only when the socket peer is a trusted
// proxy; the result is then the rightmost hop that is not itself trusted,
// so clients cannot spoof an origin by sending their own header.
func ClientIP(r *http.Request, trusted *TrustedProxies) string {
	peer := remoteIP(r.RemoteAddr)
	if peer == nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	if !trusted.Contains(peer) {
		return peer.String()
	}
	hops := forwardedChain(r.Header.Get("X-Forwarded-For"))
	for i := len(hops) - 1; i >= 0; i-- {
		if !trusted.Contains(hops[i]) {
			return hops[i].String()
		}
	}
	if len(hops) > 0 {
		// every hop trusted; record the origin end of the chain
		return hops[0].String()
	}
	return peer.String()
}

func forwardedChain(header string) []net.IP {
	if strings.TrimSpace(header) == "" {
		return nil
	}
	var hops []net.IP
	for _, part := range strings.Split(header, ",") {
		if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
			hops = append(hops, ip)
		}
	}
	return hops
}

func remoteIP(addr string) net.IP {
	host, _, err := net.SplitHostPort(strings.TrimSpace(addr))
	if err != nil {
		host = strings.TrimSpace(addr)
	}
	return net.ParseIP(host)
}
