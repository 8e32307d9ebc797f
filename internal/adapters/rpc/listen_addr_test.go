package rpc

import (
	"net"
	"testing"
)

func TestListenAddress(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"", "127.0.0.1:8787"},
		{"/ip4/127.0.0.1/tcp/9000", "127.0.0.1:9000"},
		{"/ip6/::1/tcp/9000", "[::1]:9000"},
		{"/dns4/localhost/tcp/8080", "localhost:8080"},
		{"0.0.0.0:7000", "0.0.0.0:7000"},
	}
	for _, tc := range cases {
		got, err := ListenAddress(tc.raw)
		if err != nil {
			t.Fatalf("%q: %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("%q: got %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestListenAddress_Rejects(t *testing.T) {
	for _, raw := range []string{"/ip4/127.0.0.1", "/tcp/9000", "/ip4/not-an-ip/tcp/1", "localhost"} {
		if _, err := ListenAddress(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func netListen() (net.Listener, error) {
	addr, err := ListenAddress("/ip4/127.0.0.1/tcp/0")
	if err != nil {
		return nil, err
	}
	return net.Listen("tcp", addr)
}
