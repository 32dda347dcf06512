package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/cveboard/internal/config"
	"github.com/vango-dev/cveboard/internal/routes"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRoutesCommand(t *testing.T) {
	out, err := execute(t, "routes")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"/cve-list", "CVEDetail", "cve_detail.html", "eager", "lazy"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRoutesCommandJSON(t *testing.T) {
	out, err := execute(t, "routes", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var defs []routes.Definition
	if err := json.Unmarshal([]byte(out), &defs); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(defs) != 4 || defs[3].Path != "/cve/:id" {
		t.Errorf("defs = %+v", defs)
	}
}

func TestMatchCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.EnvBaseURL, "")
	t.Setenv(config.EnvPort, "")

	out, err := execute(t, "match", "--config", dir, "/cve/42", "/analysis")
	if err != nil {
		t.Fatalf("match: %v\n%s", err, out)
	}
	if !strings.Contains(out, "/cve/42 → CVEDetail (id=42)") {
		t.Errorf("output:\n%s", out)
	}

	out, err = execute(t, "match", "--config", dir, "--base", "/app/", "/app/cve-list", "/nope")
	if err == nil {
		t.Fatal("expected error for unmatched path")
	}
	if !strings.Contains(out, "/app/cve-list → CVEList") || !strings.Contains(out, "E100") {
		t.Errorf("output:\n%s", out)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != version {
		t.Errorf("version = %q, want %q", out, version)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.EnvBaseURL, "")
	t.Setenv(config.EnvPort, "")
	if err := os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte(`{"views": {"source": "s3"}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(dir); err == nil {
		t.Error("expected validation error for s3 without bucket")
	}
}

func TestResolveConfigDir(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, config.TOMLConfigFileName), []byte("base_path = \"/cves/\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "web", "views")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	want, _ := filepath.Abs(root)
	if got := resolveConfigDir("", nested); got != want {
		t.Errorf("resolveConfigDir(\"\", nested) = %q, want %q", got, want)
	}
	if got := resolveConfigDir(nested, root); got != nested {
		t.Errorf("explicit dir = %q, want %q", got, nested)
	}
}

func TestNewAppServesViews(t *testing.T) {
	dir := t.TempDir()
	views := filepath.Join(dir, "views")
	if err := os.MkdirAll(views, 0755); err != nil {
		t.Fatal(err)
	}
	for _, f := range routes.Files() {
		if err := os.WriteFile(filepath.Join(views, f), []byte("<p>"+f+"</p>"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.New()
	cfg.Views.Source = config.SourceDir
	cfg.Views.Dir = views
	cfg.Metrics.Enabled = true
	cfg.Tracing.Enabled = true

	a, err := newApp(context.Background(), cfg, cfg.Logger(&bytes.Buffer{}))
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	r, err := a.ctrl.NavigateTo(context.Background(), "/analysis")
	if err != nil {
		t.Fatal(err)
	}
	if r.Component.Name() != "analysis.html" {
		t.Errorf("component = %q", r.Component.Name())
	}
}
