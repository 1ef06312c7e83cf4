package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/atlasvoice/atlas-voice-core/internal/health"
	"github.com/atlasvoice/atlas-voice-core/pkg/prosody"
	"github.com/atlasvoice/atlas-voice-core/pkg/provider/tts"
	ttsmock "github.com/atlasvoice/atlas-voice-core/pkg/provider/tts/mock"
)

func TestHealthz_AlwaysOK(t *testing.T) {
	t.Parallel()
	h := health.New(health.Checker{
		Name:  "broken",
		Check: func(context.Context) error { return errors.New("down") },
	})

	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestReadyz_AllChecksPass(t *testing.T) {
	t.Parallel()
	h := health.New(
		health.EngineChecker(&ttsmock.Engine{EngineName: "gemini"}),
		health.EngineChecker(&ttsmock.Engine{EngineName: "higgs"}),
	)

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
	if body.Checks["gemini"] != "ok" || body.Checks["higgs"] != "ok" {
		t.Errorf("checks = %v", body.Checks)
	}
}

func TestReadyz_FailingEngine(t *testing.T) {
	t.Parallel()
	h := health.New(
		health.EngineChecker(&ttsmock.Engine{EngineName: "gemini"}),
		health.EngineChecker(&ttsmock.Engine{EngineName: "higgs", PingErr: errors.New("connection refused")}),
	)

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if body.Status != "fail" {
		t.Errorf("status = %q, want fail", body.Status)
	}
	if body.Checks["gemini"] != "ok" {
		t.Errorf("gemini check = %q, want ok", body.Checks["gemini"])
	}
	if !strings.Contains(body.Checks["higgs"], "connection refused") {
		t.Errorf("higgs check = %q, want the failure reason", body.Checks["higgs"])
	}
}

// nonPinger hides the mock's Ping method so only tts.Engine is satisfied.
type nonPinger struct {
	inner tts.Engine
}

func (n nonPinger) Name() string { return n.inner.Name() }

func (n nonPinger) Render(ctx context.Context, text string, m prosody.Matrix) ([]byte, error) {
	return n.inner.Render(ctx, text, m)
}

func TestEngineChecker_NonPingerAlwaysHealthy(t *testing.T) {
	t.Parallel()
	c := health.EngineChecker(nonPinger{&ttsmock.Engine{EngineName: "wrapped"}})
	if c.Name != "wrapped" {
		t.Errorf("name = %q", c.Name)
	}
	if err := c.Check(context.Background()); err != nil {
		t.Errorf("check = %v, want nil for non-pinger engines", err)
	}
}

func TestRegister_Routes(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	health.New().Register(mux)

	srv := httptest.NewServer(mux)
	defer srv.Close()

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, resp.StatusCode)
		}
	}
}
