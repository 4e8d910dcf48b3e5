package main

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/sanctions/internal/config"
	"github.com/JonMunkholm/sanctions/internal/core"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Load()
	if err := cfg.Check(); err != nil {
		t.Fatalf("config.Check() error = %v", err)
	}
	cfg.Fetch.Backoff = time.Millisecond
	cfg.Logging.Level = "error"
	return cfg
}

// run executes the CLI with args and returns its stdout.
func run(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	out, _, err := runLogged(t, cfg, args...)
	return out, err
}

// runLogged is run that also returns what was written to stderr.
func runLogged(t *testing.T, cfg *config.Config, args ...string) (string, string, error) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var out, errOut bytes.Buffer
	root := newRootCmd(cfg)
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestHelp(t *testing.T) {
	cfg := testConfig(t)

	out, err := run(t, cfg, "--help")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Sanctions pipeline") {
		t.Errorf("root help missing title: %s", out)
	}
	for _, sub := range []string{"extract", "transform", "screen", "validate", "serve", "sources"} {
		if !strings.Contains(out, sub) {
			t.Errorf("root help missing %q", sub)
		}
	}

	out, err = run(t, cfg, "transform", "--help")
	if err != nil {
		t.Fatal(err)
	}
	for _, flag := range []string{"--input", "--output", "--format", "data/raw/ofac_sdn.csv", "data/ftm/entities.jsonl", "csv or xlsx"} {
		if !strings.Contains(out, flag) {
			t.Errorf("transform help missing %q: %s", flag, out)
		}
	}
}

func TestTransformValidateScreen(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()

	input := filepath.Join(dir, "sdn.csv")
	if err := os.WriteFile(input, []byte("sdnType,name,program,remarks\nIndividual,Jane Doe,SDGT,Test remark\nEntity,,X,\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	entities := filepath.Join(dir, "ftm", "entities.jsonl")

	out, err := run(t, cfg, "transform", "--input", input, "--output", entities)
	if err != nil {
		t.Fatalf("transform error = %v", err)
	}
	if want := "Wrote 1 entities to " + entities; !strings.Contains(out, want) {
		t.Errorf("transform output = %q, want %q", out, want)
	}

	out, err = run(t, cfg, "validate", entities, "--min-rows", "1")
	if err != nil {
		t.Fatalf("validate error = %v", err)
	}
	if !strings.Contains(out, "OK: 1 records") {
		t.Errorf("validate output = %q", out)
	}

	_, err = run(t, cfg, "validate", entities, "--min-rows", "5")
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("validate --min-rows 5 error = %v, want *ValidationError", err)
	}

	queries := filepath.Join(dir, "customers.csv")
	if err := os.WriteFile(queries, []byte("name\njane\nbob\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	screened := filepath.Join(dir, "screened.csv")
	out, err = run(t, cfg, "screen", "--input", queries, "--entities", entities, "--output", screened)
	if err != nil {
		t.Fatalf("screen error = %v", err)
	}
	if !strings.Contains(out, "Screened 2 rows (1 matched)") {
		t.Errorf("screen output = %q", out)
	}
	data, _ := os.ReadFile(screened)
	if want := "name,match_name,match_schema\njane,Jane Doe,Person\nbob,,\n"; string(data) != want {
		t.Errorf("screened = %q, want %q", data, want)
	}
}

func TestPipelineLogsThroughFlagLogger(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "sdn.csv")
	if err := os.WriteFile(input, []byte("name\nJane Doe\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	entities := filepath.Join(dir, "entities.jsonl")
	queries := filepath.Join(dir, "q.csv")
	if err := os.WriteFile(queries, []byte("name\njane\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "name\nJane Doe\n")
	}))
	defer srv.Close()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"transform", []string{"transform", "-i", input, "-o", entities}, `"msg":"transform complete"`},
		{"screen", []string{"screen", "-i", queries, "-e", entities, "-o", filepath.Join(dir, "out.csv")}, `"msg":"screen complete"`},
		{"extract", []string{"extract", srv.URL, "-o", filepath.Join(dir, "raw.csv")}, `"msg":"download complete"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--log-level", "info", "--log-format", "json"}, tt.args...)
			_, stderr, err := runLogged(t, cfg, args...)
			if err != nil {
				t.Fatalf("%s error = %v", tt.name, err)
			}
			if !strings.Contains(stderr, tt.want) {
				t.Errorf("stderr = %q, want %s", stderr, tt.want)
			}
		})
	}
}

func TestConfigProblemsOnlyFailCommandsThatUseThem(t *testing.T) {
	t.Setenv("SERVER_PORT", "http")
	t.Setenv("TRANSFORM_FORMAT", "xml")
	cfg := config.Load()
	cfg.Logging.Level = "error"

	dir := t.TempDir()
	entities := filepath.Join(dir, "entities.jsonl")
	if err := os.WriteFile(entities, []byte(`{"id":"1","schema":"Person","name":"Jane Doe"}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := run(t, cfg, "--help"); err != nil {
		t.Errorf("--help error = %v", err)
	}
	if _, err := run(t, cfg, "sources"); err != nil {
		t.Errorf("sources error = %v", err)
	}
	if _, err := run(t, cfg, "validate", entities); err != nil {
		t.Errorf("validate error = %v", err)
	}

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"serve", "--entities", entities}, "SERVER_PORT"},
		{[]string{"transform", "-i", entities}, "TRANSFORM_FORMAT"},
	}
	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			_, err := run(t, cfg, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("%s error = %v, want one naming %s", tt.args[0], err, tt.want)
			}
			if got := core.MapError(err).Code; got != "CFG001" {
				t.Errorf("MapError code = %q, want CFG001", got)
			}
		})
	}
}

func TestTransformUnknownFormat(t *testing.T) {
	_, err := run(t, testConfig(t), "transform", "--format", "xml")
	if err == nil {
		t.Fatal("transform --format xml error = nil")
	}
	if got := core.MapError(err).Code; got != "VAL003" {
		t.Errorf("MapError code = %q, want VAL003", got)
	}
}

func TestExtract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, "name\nJane Doe\n")
	}))
	defer srv.Close()

	cfg := testConfig(t)
	dir := t.TempDir()

	t.Run("url", func(t *testing.T) {
		dest := filepath.Join(dir, "raw", "list.csv")
		out, err := run(t, cfg, "extract", srv.URL+"/list.csv", "--out", dest)
		if err != nil {
			t.Fatalf("extract error = %v", err)
		}
		if !strings.Contains(out, "Saved "+dest) {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("not found", func(t *testing.T) {
		dest := filepath.Join(dir, "raw", "missing.csv")
		_, err := run(t, cfg, "extract", srv.URL+"/missing", "--out", dest)
		if got := core.MapError(err).Code; got != "NET001" {
			t.Errorf("MapError code = %q, want NET001 (err = %v)", got, err)
		}
		if _, statErr := os.Stat(dest); !errors.Is(statErr, os.ErrNotExist) {
			t.Error("destination created for a failed download")
		}
	})

	t.Run("catalogue source", func(t *testing.T) {
		catalogue := filepath.Join(dir, "sources.yaml")
		dest := filepath.Join(dir, "raw", "test.csv")
		yaml := "sources:\n  - name: test\n    url: " + srv.URL + "/list.csv\n    out: " + dest + "\n    min_bytes: 5000\n"
		if err := os.WriteFile(catalogue, []byte(yaml), 0o644); err != nil {
			t.Fatal(err)
		}
		cfg := testConfig(t)
		cfg.Fetch.SourcesFile = catalogue

		// The body is far below the source's min_bytes.
		_, err := run(t, cfg, "extract", "--source", "test")
		if got := core.MapError(err).Code; got != "NET002" {
			t.Errorf("MapError code = %q, want NET002 (err = %v)", got, err)
		}

		out, err := run(t, cfg, "extract", "--source", "test", "--min-bytes", "1")
		if err != nil {
			t.Fatalf("extract error = %v", err)
		}
		if !strings.Contains(out, "Saved "+dest) {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("unknown source", func(t *testing.T) {
		_, err := run(t, cfg, "extract", "--source", "nope")
		if got := core.MapError(err).Code; got != "SRC001" {
			t.Errorf("MapError code = %q, want SRC001 (err = %v)", got, err)
		}
	})

	t.Run("needs url or source", func(t *testing.T) {
		if _, err := run(t, cfg, "extract"); err == nil {
			t.Error("extract with no arguments error = nil")
		}
	})
}

func TestSources(t *testing.T) {
	out, err := run(t, testConfig(t), "sources")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"NAME", "dfat", "ofac", "data/raw/dfat_consolidated.xlsx", "5000"} {
		if !strings.Contains(out, want) {
			t.Errorf("sources output missing %q: %s", want, out)
		}
	}
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	printError(&buf, &core.ValidationError{Total: 1, MinRows: 5})
	if !strings.Contains(buf.String(), "(Code: VAL002)") || !strings.Contains(buf.String(), "too few records: 1 < 5") {
		t.Errorf("printError = %q", buf.String())
	}

	buf.Reset()
	printError(&buf, errors.New("unknown flag: --bogus"))
	if got := buf.String(); got != "Error: unknown flag: --bogus\n" {
		t.Errorf("printError = %q", got)
	}
}
