package dns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// PublicDNS are servers to be queried if a local lookup fails
// These are well-known, high-availability public DNS providers
var PublicDNS = []string{
	"1.0.0.1",                // Cloudflare
	"1.1.1.1",                // Cloudflare
	"[2606:4700:4700::1111]", // Cloudflare
	"8.8.4.4",                // Google
	"8.8.8.8",                // Google
	"[2001:4860:4860::8888]", // Google
	"9.9.9.9",                // Quad9
	"149.112.112.112",        // Quad9
	"208.67.220.220",         // Cisco OpenDNS
	"208.67.222.222",         // Cisco OpenDNS
}

// Resolver looks a host up locally and falls back to racing public servers.
// Signaling must keep working on networks whose resolver is broken or filtered.
type Resolver struct {
	// Servers to race when the system resolver fails. Nil disables the fallback.
	Servers []string

	LocalTimeout  time.Duration
	RemoteTimeout time.Duration
}

// Default uses PublicDNS as the fallback.
var Default = &Resolver{
	Servers:       PublicDNS,
	LocalTimeout:  time.Second,
	RemoteTimeout: 2 * time.Second,
}

// Lookup resolves a hostname to an IP address, preferring IPv4.
// Literal IPs are returned unchanged.
func (r *Resolver) Lookup(ctx context.Context, address string) (string, error) {
	if ip := net.ParseIP(address); ip != nil {
		return address, nil
	}

	local, cancel := context.WithTimeout(ctx, r.LocalTimeout)
	ip, err := lookupWith(local, &net.Resolver{}, address)
	cancel()
	if err == nil {
		return ip, nil
	}
	if len(r.Servers) == 0 {
		return "", fmt.Errorf("resolve %s: %w", address, err)
	}
	return r.race(ctx, address)
}

// DialContext resolves the host part of addr with r before dialing.
// It fits websocket.Dialer.NetDialContext.
func (r *Resolver) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	ip, err := r.Lookup(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("dns lookup failed: %w", err)
	}
	var d net.Dialer
	return d.DialContext(ctx, network, net.JoinHostPort(ip, port))
}

// race returns the first answer from any public DNS server.
func (r *Resolver) race(ctx context.Context, address string) (string, error) {
	type result struct {
		ip  string
		err error
	}

	ctx, cancel := context.WithTimeout(ctx, r.RemoteTimeout)
	defer cancel()

	results := make(chan result, len(r.Servers))
	for _, server := range r.Servers {
		go func() {
			ip, err := lookupWith(ctx, remoteResolver(server), address)
			results <- result{ip: ip, err: err}
		}()
	}

	failures := 0
	for range r.Servers {
		select {
		case res := <-results:
			if res.err == nil {
				return res.ip, nil
			}
			failures++
		case <-ctx.Done():
			return "", fmt.Errorf("resolve %s: public DNS race timed out", address)
		}
	}
	return "", fmt.Errorf("resolve %s: all %d public DNS servers failed", address, failures)
}

// remoteResolver forces queries to one DNS server on port 53.
func remoteResolver(server string) *net.Resolver {
	return &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, net.JoinHostPort(trimBrackets(server), "53"))
		},
	}
}

func lookupWith(ctx context.Context, r *net.Resolver, address string) (string, error) {
	ips, err := r.LookupHost(ctx, address)
	if err != nil {
		return "", err
	}
	if len(ips) == 0 {
		return "", errors.New("no IP addresses found")
	}
	for _, ip := range ips {
		if net.ParseIP(ip).To4() != nil {
			return ip, nil
		}
	}
	return ips[0], nil
}

func trimBrackets(s string) string {
	if len(s) > 1 && s[0] == '[' && s[len(s)-1] == ']' {
		return s[1 : len(s)-1]
	}
	return s
}
