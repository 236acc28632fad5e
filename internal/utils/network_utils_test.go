package utils

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRestricted(t *testing.T) {
	tests := []struct {
		name  string
		iface string
		ips   []net.IP
		want  bool
	}{
		{"plain ethernet", "eth0", []net.IP{net.ParseIP("192.168.1.20")}, false},
		{"wireguard", "wg0", nil, true},
		{"openvpn", "TUN3", nil, true},
		{"warp", "CloudflareWARP", nil, true},
		{"tailscale address", "en0", []net.IP{net.ParseIP("100.101.1.2")}, true},
		{"just outside cgnat", "en0", []net.IP{net.ParseIP("100.128.0.1")}, false},
		{"ipv6 only", "en0", []net.IP{net.ParseIP("fe80::1")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRestricted(tt.iface, tt.ips))
		})
	}
}
