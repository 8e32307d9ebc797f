package botserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"cardsmith/go-backend/internal/bootstrap/botconfig"
)

func testConfig(t *testing.T) botconfig.Config {
	t.Helper()
	cfg := botconfig.DefaultConfig()
	cfg.WorkDir = t.TempDir()
	cfg.OwnerID = 1
	cfg.RPCToken = "token"
	cfg.ListenAddr = "/ip4/127.0.0.1/tcp/0"
	return cfg
}

func TestBuildRejectsMissingOwner(t *testing.T) {
	cfg := testConfig(t)
	cfg.OwnerID = 0
	if _, err := Build(cfg, io.Discard); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestBuildWiresRPCToWorkflow(t *testing.T) {
	d, err := Build(testConfig(t), io.Discard)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(d.Service.Close)
	if d.Config.AdminFile != filepath.Join(d.Config.WorkDir, "admins") {
		t.Fatalf("unexpected admin file %q", d.Config.AdminFile)
	}

	body := `{"jsonrpc":"2.0","id":1,"method":"bot.command","params":{"requester_id":1,"name":"txt_to_vcf"}}`
	req := httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	d.Server.Handler().ServeHTTP(rec, req)

	var resp struct {
		Result struct {
			Status string `json:"status"`
		} `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Result.Status != "ok" {
		t.Fatalf("unexpected response %s", rec.Body.String())
	}
	if d.Service.Sessions().Len() != 1 {
		t.Fatalf("expected one session, got %d", d.Service.Sessions().Len())
	}
	if d.Outbox.Hub().BacklogSize() == 0 {
		t.Fatal("expected the prompt on the outbound stream")
	}

	rec = httptest.NewRecorder()
	d.Server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "cardbot_workflows_started_total") {
		t.Fatalf("metrics missing workflow counter")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	d, err := Build(testConfig(t), io.Discard)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if d.Artifacts.Len() != 0 {
		t.Fatalf("expected wiped artifacts")
	}
}
