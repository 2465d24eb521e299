package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "slidedeck dev" {
		t.Errorf("version output = %q", out)
	}
}

func TestSectionsCmd(t *testing.T) {
	dir := t.TempDir()
	content := filepath.Join(dir, "content")
	if err := os.Mkdir(content, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(content, "intro.md"), []byte("# Intro"), 0644); err != nil {
		t.Fatal(err)
	}

	cfgFile := filepath.Join(dir, "slidedeck.yml")
	yml := `site:
  content_dir: ` + content + `
  default: outro
  sections:
    - name: intro
      id: intro
      file: intro.md
    - name: outro
      id: outro
      file: outro.md
`
	if err := os.WriteFile(cfgFile, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "--config", cfgFile, "sections")
	if err != nil {
		t.Fatalf("sections: %v\n%s", err, out)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if f := strings.Fields(lines[1]); f[0] != "INTRO" || f[len(f)-1] != "ok" {
		t.Errorf("intro line = %q", lines[1])
	}
	if f := strings.Fields(lines[2]); f[0] != "OUTRO" || f[1] != "*" || f[len(f)-1] != "missing" {
		t.Errorf("outro line = %q", lines[2])
	}
}

func TestSectionsCmd_InvalidConfig(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "slidedeck.yml")
	yml := "site:\n  default: nowhere\n"
	if err := os.WriteFile(cfgFile, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := run(t, "--config", cfgFile, "sections"); err == nil {
		t.Error("expected validation error for unknown default")
	}
}

func TestNewLogger(t *testing.T) {
	opts := &options{cfgFile: filepath.Join(t.TempDir(), "absent.yml"), verbose: true}
	cfg, err := opts.load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("verbose should force debug, got %q", cfg.Log.Level)
	}

	var buf bytes.Buffer
	logger, err := newLogger(cfg.Log, &buf)
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("debug line missing")
	}

	cfg.Log.Level = "chatty"
	if _, err := newLogger(cfg.Log, &buf); err == nil {
		t.Error("expected error for unknown level")
	}
}
