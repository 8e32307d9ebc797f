package rpc

import (
	"fmt"
	"net"
	"strings"

	ma "github.com/multiformats/go-multiaddr"
)

const (
	DefaultListenMultiaddr = "/ip4/127.0.0.1/tcp/8787"
	defaultListenAddr      = "127.0.0.1:8787"
)

// ListenAddress turns a multiaddr such as /ip4/127.0.0.1/tcp/8787 into the
// host:port form net.Listen takes. Plain host:port values pass through.
func ListenAddress(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultListenAddr, nil
	}
	if !strings.HasPrefix(raw, "/") {
		if _, _, err := net.SplitHostPort(raw); err != nil {
			return "", fmt.Errorf("listen address %q: %w", raw, err)
		}
		return raw, nil
	}
	maddr, err := ma.NewMultiaddr(raw)
	if err != nil {
		return "", fmt.Errorf("listen multiaddr %q: %w", raw, err)
	}
	host := ""
	for _, code := range []int{ma.P_IP4, ma.P_IP6, ma.P_DNS4, ma.P_DNS6, ma.P_DNS} {
		if v, err := maddr.ValueForProtocol(code); err == nil {
			host = v
			break
		}
	}
	if host == "" {
		return "", fmt.Errorf("listen multiaddr %q has no ip or dns component", raw)
	}
	port, err := maddr.ValueForProtocol(ma.P_TCP)
	if err != nil {
		return "", fmt.Errorf("listen multiaddr %q has no tcp port", raw)
	}
	return net.JoinHostPort(host, port), nil
}
