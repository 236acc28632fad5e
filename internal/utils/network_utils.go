package utils

import (
	"net"
	"strings"
)

// cgnat is 100.64.0.0/10. Cloudflare WARP, Tailscale and carrier grade NATs live here,
// and direct P2P from inside it usually fails.
var cgnat = &net.IPNet{IP: net.IPv4(100, 64, 0, 0), Mask: net.CIDRMask(10, 32)}

// tunnelHints are interface name fragments of VPN and virtual adapters.
var tunnelHints = []string{"tun", "tap", "wg", "ppp", "warp"}

// ShouldForceRelay reports whether this host looks like it sits behind a VPN
// or CGNAT, where game traffic should go through TURN.
func ShouldForceRelay() bool {
	_, restricted := RestrictedInterface()
	return restricted
}

// RestrictedInterface returns the first up, non-loopback interface that looks
// like a tunnel or carries a CGNAT address.
func RestrictedInterface() (string, bool) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return "", false
	}

	for _, iface := range interfaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		var ips []net.IP
		if addrs, err := iface.Addrs(); err == nil {
			for _, addr := range addrs {
				switch v := addr.(type) {
				case *net.IPNet:
					ips = append(ips, v.IP)
				case *net.IPAddr:
					ips = append(ips, v.IP)
				}
			}
		}

		if isRestricted(iface.Name, ips) {
			return iface.Name, true
		}
	}
	return "", false
}

func isRestricted(name string, ips []net.IP) bool {
	name = strings.ToLower(name)
	for _, hint := range tunnelHints {
		if strings.Contains(name, hint) {
			return true
		}
	}
	for _, ip := range ips {
		if cgnat.Contains(ip) {
			return true
		}
	}
	return false
}
