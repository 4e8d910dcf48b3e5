package web

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/JonMunkholm/sanctions/internal/config"
	"github.com/JonMunkholm/sanctions/internal/core"
)

func newTestServer(cfg config.ServerConfig) *Server {
	ix := core.NewIndex([]core.Entity{
		{ID: "id-1", Schema: core.SchemaPerson, Name: "John Smith"},
		{ID: "id-2", Schema: core.SchemaOrganization, Name: "Johnson <Holdings>"},
	})
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	if cfg.MaxBatch == 0 {
		cfg.MaxBatch = 10
	}
	return NewServer(ix, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func serve(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestServerLogsToItsLogger(t *testing.T) {
	var buf bytes.Buffer
	ix := core.NewIndex(nil)
	s := NewServer(ix, config.ServerConfig{MaxBatch: 1}, slog.New(slog.NewTextHandler(&buf, nil)))

	serve(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	serve(t, s, httptest.NewRequest(http.MethodPost, "/api/screen", strings.NewReader("{")))

	out := buf.String()
	for _, want := range []string{"msg=request", "path=/healthz", "request_id=", `msg="request error"`, "code=REQ001"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestHealth(t *testing.T) {
	rec := serve(t, newTestServer(config.ServerConfig{}), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" || body["entities"] != float64(2) {
		t.Errorf("body = %v", body)
	}
}

func TestScreenGet(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  ScreenResult
	}{
		{
			name:  "first match in file order",
			query: "/api/screen?name=john",
			want:  ScreenResult{Query: "john", Matched: true, MatchName: "John Smith", MatchSchema: "Person", EntityID: "id-1"},
		},
		{
			name:  "no match",
			query: "/api/screen?name=Doe",
			want:  ScreenResult{Query: "Doe"},
		},
		{
			name:  "missing name never matches",
			query: "/api/screen",
			want:  ScreenResult{},
		},
	}

	s := newTestServer(config.ServerConfig{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, s, httptest.NewRequest(http.MethodGet, tt.query, nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			var got ScreenResult
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("response mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScreenBatch(t *testing.T) {
	s := newTestServer(config.ServerConfig{})

	body := `{"names":["Smith","","holdings","Nobody"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/screen", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(t, s, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var got BatchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Matched != 2 {
		t.Errorf("Matched = %d, want 2", got.Matched)
	}
	var names []string
	for _, r := range got.Results {
		names = append(names, r.MatchName)
	}
	if diff := cmp.Diff([]string{"John Smith", "", "Johnson <Holdings>", ""}, names); diff != "" {
		t.Errorf("match names mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(rec.Body.String(), "Johnson <Holdings>") {
		t.Errorf("response escapes HTML: %s", rec.Body)
	}
}

func TestScreenBatchErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"names":`},
		{"over batch limit", `{"names":["a","b","c"]}`},
	}

	s := newTestServer(config.ServerConfig{MaxBatch: 2})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/screen", strings.NewReader(tt.body))
			rec := serve(t, s, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var got ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("body is not JSON: %s", rec.Body)
			}
			if got.Code != "REQ001" {
				t.Errorf("Code = %q, want REQ001", got.Code)
			}
		})
	}
}

func TestPage(t *testing.T) {
	s := newTestServer(config.ServerConfig{})

	t.Run("form only", func(t *testing.T) {
		rec := serve(t, s, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "<form") || !strings.Contains(body, "2 entities loaded") {
			t.Errorf("page missing form or count: %s", body)
		}
		if strings.Contains(body, `class="hit"`) || strings.Contains(body, `class="clear"`) {
			t.Error("page shows a result without a query")
		}
	})

	t.Run("match is escaped", func(t *testing.T) {
		rec := serve(t, s, httptest.NewRequest(http.MethodGet, "/?name=holdings", nil))
		body := rec.Body.String()
		if !strings.Contains(body, `class="hit"`) {
			t.Errorf("page missing hit: %s", body)
		}
		if !strings.Contains(body, "Johnson &lt;Holdings&gt;") {
			t.Errorf("match name not escaped: %s", body)
		}
	})

	t.Run("no match", func(t *testing.T) {
		rec := serve(t, s, httptest.NewRequest(http.MethodGet, "/?name=%3Cscript%3E", nil))
		body := rec.Body.String()
		if !strings.Contains(body, `class="clear"`) || strings.Contains(body, "<script>") {
			t.Errorf("unexpected page: %s", body)
		}
	})
}

func TestAPIKeyRequired(t *testing.T) {
	s := newTestServer(config.ServerConfig{APIKeys: []string{"k1"}})

	rec := serve(t, s, httptest.NewRequest(http.MethodGet, "/api/screen?name=john", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("without key: status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/screen?name=john", nil)
	req.Header.Set("X-API-Key", "k1")
	if rec := serve(t, s, req); rec.Code != http.StatusOK {
		t.Errorf("with key: status = %d, want 200", rec.Code)
	}

	// Health and the page stay open.
	if rec := serve(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusOK {
		t.Errorf("healthz: status = %d, want 200", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := serve(t, newTestServer(config.ServerConfig{}), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}
