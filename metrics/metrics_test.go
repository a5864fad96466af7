package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

func TestObserveContact(t *testing.T) {
	before := testutil.ToFloat64(contactSubmissions.WithLabelValues(OutcomeSent))
	ObserveContact(OutcomeSent)
	if got := testutil.ToFloat64(contactSubmissions.WithLabelValues(OutcomeSent)); got != before+1 {
		t.Errorf("sent counter = %v, want %v", got, before+1)
	}
}

func TestHTTPMetrics_UsesRoutePattern(t *testing.T) {
	RegisterDefault(zap.NewNop())

	r := chi.NewRouter()
	r.Use(HTTPMetrics)
	r.Post("/contact", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/contact", nil))

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, `http_request_duration_seconds_count{method="POST",path="/contact",status="400"}`) {
		t.Errorf("histogram sample for /contact missing from exposition")
	}
}

func TestTruncateUTF8(t *testing.T) {
	if got := truncateUTF8("héllo", 2); got != "h" {
		t.Errorf("truncateUTF8 = %q, want %q", got, "h")
	}
	if got := truncateUTF8("abc", 10); got != "abc" {
		t.Errorf("truncateUTF8 = %q", got)
	}
	if got := truncateUTF8("abc", 0); got != "" {
		t.Errorf("truncateUTF8 = %q", got)
	}
}

func TestStatusLabel(t *testing.T) {
	tests := map[int]string{
		0:   "200",
		204: "204",
		503: "503",
		42:  "500",
		999: "500",
	}
	for in, want := range tests {
		if got := statusLabel(in); got != want {
			t.Errorf("statusLabel(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestPathLabel(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/long", nil)
	req.URL.Path = "/" + strings.Repeat("é", 300)
	got := pathLabel(req)
	if len(got) > maxPathLabelLength || !strings.HasSuffix(got, "...") {
		t.Errorf("pathLabel length %d, suffix %q", len(got), got[len(got)-3:])
	}

	short := httptest.NewRequest(http.MethodGet, "/styles.css", nil)
	if got := pathLabel(short); got != "/styles.css" {
		t.Errorf("pathLabel = %q, want raw path without a route context", got)
	}
}
