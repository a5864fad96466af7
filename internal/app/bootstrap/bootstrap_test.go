package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/cyborg/config"
	"github.com/dalemusser/cyborg/internal/contact"
	"github.com/dalemusser/cyborg/internal/mailer"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func coreConfig() *config.CoreConfig {
	cfg := &config.CoreConfig{Env: "dev", LogLevel: "info", MaxRequestBodyBytes: 64 << 10}
	cfg.HTTP.HTTPPort = 5000
	cfg.Security.EnableSecurityHeaders = true
	cfg.Security.XFrameOptions = "DENY"
	cfg.Security.XContentTypeOptions = "nosniff"
	cfg.Security.ReferrerPolicy = "strict-origin-when-cross-origin"
	cfg.Security.XSSProtection = "1; mode=block"
	cfg.Security.HSTSMaxAge = 31536000
	cfg.Security.HSTSIncludeSubDomains = true
	cfg.CORS.EnableCORS = true
	cfg.CORS.CORSAllowedOrigins = []string{"*"}
	cfg.CORS.CORSAllowedMethods = []string{"GET", "HEAD", "POST", "OPTIONS"}
	cfg.CORS.CORSAllowedHeaders = []string{"Accept", "Content-Type"}
	cfg.EnableMetrics = true
	return cfg
}

func appConfig(t *testing.T) AppConfig {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>CYBORG</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}
	return AppConfig{
		SiteName:     "CYBORG",
		StaticDir:    dir,
		Sender:       "sender@example.com",
		Recipient:    "sales@example.com",
		ReadyTimeout: time.Second,
	}
}

func testDeps(rec *mailer.Recorder, relayErr error) Deps {
	return Deps{
		Sender: rec,
		Contact: contact.NewService(contact.Config{
			SiteName:  "CYBORG",
			Sender:    "sender@example.com",
			Recipient: "sales@example.com",
		}, rec, nil),
		RelayCheck: func(context.Context) error { return relayErr },
	}
}

func newHandler(t *testing.T, rec *mailer.Recorder, relayErr error) http.Handler {
	t.Helper()
	h, err := BuildHandler(coreConfig(), appConfig(t), testDeps(rec, relayErr), zap.NewNop())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}
	return h
}

func TestRoutes(t *testing.T) {
	h := newHandler(t, &mailer.Recorder{}, nil)

	tests := []struct {
		method, path, body string
		wantCode           int
		wantBody           string
	}{
		{http.MethodGet, "/", "", http.StatusOK, "<h1>CYBORG</h1>"},
		{http.MethodGet, "/missing.css", "", http.StatusNotFound, `"success":false`},
		{http.MethodGet, "/healthz", "", http.StatusOK, `"status":"ok"`},
		{http.MethodGet, "/readyz", "", http.StatusOK, `"smtp":"ok"`},
		{http.MethodGet, "/metrics", "", http.StatusOK, "go_goroutines"},
		{http.MethodPost, "/contact", `{"company":"Ac","email":"x@y.com","phone":"","plan":"basic","message":"hi"}`,
			http.StatusOK, `"success":true`},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %q)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want containing %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestRoutes_SecurityHeaders(t *testing.T) {
	h := newHandler(t, &mailer.Recorder{}, nil)

	for _, path := range []string{"/", "/missing"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		want := map[string]string{
			"X-Content-Type-Options":    "nosniff",
			"X-Frame-Options":           "DENY",
			"X-XSS-Protection":          "1; mode=block",
			"Referrer-Policy":           "strict-origin-when-cross-origin",
			"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
		}
		for k, v := range want {
			if got := rec.Header().Get(k); got != v {
				t.Errorf("%s: %s = %q, want %q", path, k, got, v)
			}
		}
		if csp := rec.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "font-src 'self' https://fonts.gstatic.com") {
			t.Errorf("%s: Content-Security-Policy = %q", path, csp)
		}
	}
}

func TestRoutes_CORSPreflight(t *testing.T) {
	h := newHandler(t, &mailer.Recorder{}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/contact", nil)
	req.Header.Set("Origin", "https://partner.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestRoutes_ReadyzRelayDown(t *testing.T) {
	h := newHandler(t, &mailer.Recorder{}, errors.New("connection refused"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "error" || body.Checks["smtp"] != "error" {
		t.Errorf("body = %+v", body)
	}
}

func TestRoutes_BodyLimit(t *testing.T) {
	h := newHandler(t, &mailer.Recorder{}, nil)
	big := `{"company":"Ac","email":"x@y.com","plan":"basic","message":"` + strings.Repeat("x", 70<<10) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(big))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAppConfigFrom(t *testing.T) {
	base := func() config.AppConfigValues {
		return config.AppConfigValues{
			"site_name":         "CYBORG",
			"static_dir":        "public",
			"smtp_host":         "smtp.gmail.com",
			"smtp_port":         587,
			"smtp_username":     "bot@example.com",
			"smtp_password":     "secret",
			"smtp_from":         "",
			"smtp_use_ssl":      false,
			"smtp_timeout":      "20s",
			"contact_recipient": "sales@example.com",
			"ready_timeout":     "2",
		}
	}

	cfg, err := appConfigFrom(base())
	if err != nil {
		t.Fatalf("appConfigFrom: %v", err)
	}
	if cfg.Sender != "bot@example.com" {
		t.Errorf("Sender = %q, want username fallback", cfg.Sender)
	}
	if cfg.Mail.Timeout != 20*time.Second || cfg.ReadyTimeout != 2*time.Second {
		t.Errorf("timeouts = %v / %v", cfg.Mail.Timeout, cfg.ReadyTimeout)
	}
	if len(cfg.missingMailSettings()) != 0 {
		t.Errorf("missing = %v", cfg.missingMailSettings())
	}

	tests := []struct {
		name    string
		mutate  func(config.AppConfigValues)
		wantErr string
	}{
		{"no host", func(v config.AppConfigValues) { v["smtp_host"] = "" }, "smtp_host"},
		{"bad port", func(v config.AppConfigValues) { v["smtp_port"] = 70000 }, "smtp_port"},
		{"bad recipient", func(v config.AppConfigValues) { v["contact_recipient"] = "sales" }, "contact_recipient"},
		{"bad sender", func(v config.AppConfigValues) { v["smtp_from"] = "nobody" }, "smtp_from"},
		{"no static dir", func(v config.AppConfigValues) { v["static_dir"] = "" }, "static_dir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vals := base()
			tt.mutate(vals)
			_, err := appConfigFrom(vals)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestPreflight_WarnsOnMissingCredentials(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)

	appCfg := appConfig(t)
	appCfg.Sender = ""
	appCfg.Recipient = ""
	if err := Preflight(context.Background(), coreConfig(), appCfg, Deps{}, logger); err != nil {
		t.Fatalf("Preflight should not fail: %v", err)
	}

	entries := logs.FilterMessageSnippet("mail settings incomplete").All()
	if len(entries) != 1 {
		t.Fatalf("got %d warnings, want 1", len(entries))
	}
	missing, _ := entries[0].ContextMap()["missing"].([]interface{})
	if len(missing) != 4 {
		t.Errorf("missing = %v, want username, password, from and recipient", entries[0].ContextMap()["missing"])
	}
}

func TestListenURL(t *testing.T) {
	cfg := coreConfig()
	if got := listenURL(&net.TCPAddr{Port: 5000}, cfg); got != "http://localhost:5000" {
		t.Errorf("listenURL = %q", got)
	}
	cfg.HTTP.UseHTTPS = true
	cfg.TLS.Domain = "cyborg.example"
	if got := listenURL(&net.TCPAddr{Port: 443}, cfg); got != "https://cyborg.example" {
		t.Errorf("listenURL = %q", got)
	}
}
