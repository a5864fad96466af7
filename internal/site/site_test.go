package site

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func testRoot(t *testing.T) string {
	return writeFiles(t, map[string]string{
		"index.html":       "<h1>CYBORG</h1>",
		"styles.css":       "body{}",
		"styles.css.br":    "brotli-bytes",
		"script.js":        "console.log(1)",
		"script.js.gz":     "gzip-bytes",
		"img/logo.svg":     "<svg/>",
		".env":             "SMTP_PASSWORD=secret",
		"img/.hidden/x.js": "nope",
	})
}

func get(h http.Handler, path, acceptEncoding string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if acceptEncoding != "" {
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler(t *testing.T) {
	h := Handler(testRoot(t), Options{})

	tests := []struct {
		name       string
		path       string
		accept     string
		wantStatus int
		wantBody   string
		wantEnc    string
		wantType   string
	}{
		{"index", "/", "", http.StatusOK, "<h1>CYBORG</h1>", "", "text/html"},
		{"index by name", "/index.html", "", http.StatusOK, "<h1>CYBORG</h1>", "", "text/html"},
		{"plain asset", "/styles.css", "", http.StatusOK, "body{}", "", "text/css"},
		{"brotli sibling", "/styles.css", "gzip, br", http.StatusOK, "brotli-bytes", "br", "text/css"},
		{"gzip sibling", "/script.js", "gzip", http.StatusOK, "gzip-bytes", "gzip", "javascript"},
		{"gzip refused", "/script.js", "gzip;q=0", http.StatusOK, "console.log(1)", "", "javascript"},
		{"nested", "/img/logo.svg", "", http.StatusOK, "<svg/>", "", "image/svg+xml"},
		{"missing", "/nope.html", "", http.StatusNotFound, "", "", ""},
		{"directory", "/img/", "", http.StatusNotFound, "", "", ""},
		{"dotfile", "/.env", "", http.StatusNotFound, "", "", ""},
		{"dot directory", "/img/.hidden/x.js", "", http.StatusNotFound, "", "", ""},
		{"traversal", "/../../etc/passwd", "", http.StatusNotFound, "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(h, tt.path, tt.accept)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
			if got := rec.Header().Get("Content-Encoding"); got != tt.wantEnc {
				t.Errorf("Content-Encoding = %q, want %q", got, tt.wantEnc)
			}
			if got := rec.Header().Get("Content-Type"); !strings.Contains(got, tt.wantType) {
				t.Errorf("Content-Type = %q, want containing %q", got, tt.wantType)
			}
		})
	}
}

func TestHandler_CustomNotFound(t *testing.T) {
	h := Handler(testRoot(t), Options{
		NotFound: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}),
	})
	if rec := get(h, "/missing", ""); rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want custom not-found", rec.Code)
	}
}

func TestHandler_CacheControlAndMethods(t *testing.T) {
	h := Handler(testRoot(t), Options{CacheControl: "public, max-age=3600"})
	if got := get(h, "/styles.css", "br").Header().Get("Cache-Control"); got != "public, max-age=3600" {
		t.Errorf("Cache-Control = %q", got)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/index.html", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("PUT status = %d, want 405", rec.Code)
	}
}

func TestCheckRoot(t *testing.T) {
	if err := CheckRoot(testRoot(t)); err != nil {
		t.Errorf("CheckRoot: %v", err)
	}
	if err := CheckRoot(t.TempDir()); err == nil {
		t.Error("CheckRoot on empty dir should fail")
	}
}
