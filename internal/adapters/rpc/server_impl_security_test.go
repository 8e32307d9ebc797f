package rpc

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestExtractRPCToken_PrefersCustomHeader(t *testing.T) {
	req := httptest.NewRequest("GET", "/rpc", nil)
	req.Header.Set(rpcTokenHeader, "header-token")
	req.Header.Set("Authorization", "Bearer bearer-token")

	s := &Server{}
	if got := s.extractRPCToken(req); got != "header-token" {
		t.Fatalf("expected header token, got %q", got)
	}
}

func TestExtractRPCToken_UsesBearerHeader(t *testing.T) {
	req := httptest.NewRequest("GET", "/rpc", nil)
	req.Header.Set("Authorization", "Bearer bearer-token")

	s := &Server{}
	if got := s.extractRPCToken(req); got != "bearer-token" {
		t.Fatalf("expected bearer token, got %q", got)
	}
}

func TestIsAllowedOrigin_LocalhostOnly(t *testing.T) {
	cases := []struct {
		origin string
		want   bool
	}{
		{"http://localhost:3000", true},
		{"https://127.0.0.1:8787", true},
		{"http://[::1]:8787", true},
		{"https://example.com", false},
		{"null", false},
		{"not-a-url", false},
	}
	for _, tc := range cases {
		if got := isAllowedOrigin(tc.origin); got != tc.want {
			t.Fatalf("origin %q: got %v, want %v", tc.origin, got, tc.want)
		}
	}
}

func TestResolveRPCToken_AutoGeneratesAndPersistsToFile(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "runtime", "rpc.token")

	token, err := resolveRPCToken("auto", tokenFile)
	if err != nil {
		t.Fatalf("resolve token: %v", err)
	}
	if token == "" || token == "auto" {
		t.Fatalf("expected generated token, got %q", token)
	}
	raw, err := os.ReadFile(tokenFile)
	if err != nil {
		t.Fatalf("read token file: %v", err)
	}
	if string(raw) != token {
		t.Fatalf("unexpected token file content")
	}
}

func TestResolveRPCToken_StaticTokenPassesThrough(t *testing.T) {
	token, err := resolveRPCToken("  static-token ", "")
	if err != nil {
		t.Fatalf("resolve token: %v", err)
	}
	if token != "static-token" {
		t.Fatalf("unexpected token %q", token)
	}
}
