package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/robertwhiffin/ai-slide-generator-sub009/internal/config"
	"github.com/robertwhiffin/ai-slide-generator-sub009/internal/db"
	"github.com/robertwhiffin/ai-slide-generator-sub009/internal/models"
	"github.com/robertwhiffin/ai-slide-generator-sub009/internal/request"
)

func writeTestFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}

// writeSqliteConfig writes a minimal config pointing at a temp sqlite file
// and returns the config path plus the database path.
func writeSqliteConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "slidegen.db")
	cfgPath := filepath.Join(dir, "slidegen.yaml")
	cfg := fmt.Sprintf("database:\n  driver: sqlite\n  path: %s\n", dbPath)
	if err := writeTestFile(cfgPath, cfg); err != nil {
		t.Fatal(err)
	}
	return cfgPath, dbPath
}

func TestDBCmd_Help(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"db", "--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("db --help failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Database management") {
		t.Errorf("expected help to mention 'Database management', got: %s", out)
	}
	for _, sub := range []string{"init", "reset"} {
		if !strings.Contains(out, sub) {
			t.Errorf("expected help to list %q subcommand, got: %s", sub, out)
		}
	}
}

func TestDBInitCmd_Help(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"db", "init", "--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("db init --help failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "--config") {
		t.Errorf("expected help to mention '--config' flag, got: %s", out)
	}
	if !strings.Contains(out, "slidegen.yaml") {
		t.Errorf("expected default config path 'slidegen.yaml', got: %s", out)
	}
}

func TestDBInitCmd_MissingConfig(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"db", "init", "--config", "/nonexistent/slidegen.yaml"})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
	if !strings.Contains(err.Error(), "load config") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "load config")
	}
}

func TestDBInit_Sqlite(t *testing.T) {
	cfgPath, dbPath := writeSqliteConfig(t)

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"db", "init", "--config", cfgPath})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("db init failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Migrated 2 tables") {
		t.Errorf("expected 'Migrated 2 tables', got: %s", out)
	}
	if !strings.Contains(out, "initialized successfully") {
		t.Errorf("expected success message, got: %s", out)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestDBReset_RequiresConfirmation(t *testing.T) {
	cfgPath, _ := writeSqliteConfig(t)

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	// Simulate typing "no" on stdin.
	cmd.SetIn(strings.NewReader("no\n"))
	cmd.SetArgs([]string{"db", "reset", "--config", cfgPath})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "WARNING") {
		t.Errorf("expected WARNING prompt, got: %s", out)
	}
	if !strings.Contains(out, "Aborted") {
		t.Errorf("expected 'Aborted' message, got: %s", out)
	}
}

func TestDBReset_ConfirmedWipesRows(t *testing.T) {
	cfgPath, _ := writeSqliteConfig(t)

	// Initialize and seed one request.
	initCmd := newRootCmd()
	initCmd.SetOut(new(bytes.Buffer))
	initCmd.SetArgs([]string{"db", "init", "--config", cfgPath})
	if err := initCmd.Execute(); err != nil {
		t.Fatalf("db init failed: %v", err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := request.Create(gormDB, "req_seed", "sess-1", `{"topic": "x"}`); err != nil {
		t.Fatalf("seed request: %v", err)
	}

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetIn(strings.NewReader("yes\n"))
	cmd.SetArgs([]string{"db", "reset", "--config", cfgPath})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("db reset failed: %v", err)
	}
	if !strings.Contains(buf.String(), "reset successfully") {
		t.Errorf("expected success message, got: %s", buf.String())
	}

	var count int64
	if err := gormDB.Model(&models.ChatRequest{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("requests after reset = %d, want 0", count)
	}
}

func TestDBReset_YesFlagSkipsPrompt(t *testing.T) {
	cfgPath, _ := writeSqliteConfig(t)

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"db", "reset", "--yes", "--config", cfgPath})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("db reset --yes failed: %v", err)
	}
	if strings.Contains(buf.String(), "WARNING") {
		t.Errorf("expected no prompt with --yes, got: %s", buf.String())
	}
}

func TestNewDBResetCmd(t *testing.T) {
	cmd := newDBResetCmd()
	if cmd.Use != "reset" {
		t.Errorf("Use = %q, want %q", cmd.Use, "reset")
	}

	tests := []struct {
		name, defValue, shorthand string
	}{
		{"config", "slidegen.yaml", "c"},
		{"yes", "false", "y"},
	}
	for _, tt := range tests {
		flag := cmd.Flags().Lookup(tt.name)
		if flag == nil {
			t.Fatalf("expected --%s flag", tt.name)
		}
		if flag.DefValue != tt.defValue {
			t.Errorf("--%s default = %q, want %q", tt.name, flag.DefValue, tt.defValue)
		}
		if flag.Shorthand != tt.shorthand {
			t.Errorf("--%s shorthand = %q, want %q", tt.name, flag.Shorthand, tt.shorthand)
		}
	}
}

func TestDescribeDatabase(t *testing.T) {
	sqlite := config.DatabaseConfig{Driver: "sqlite", Path: "/tmp/s.db"}
	if got, want := describeDatabase(sqlite), "sqlite /tmp/s.db"; got != want {
		t.Errorf("describeDatabase(sqlite) = %q, want %q", got, want)
	}
	mysql := config.DatabaseConfig{Driver: "mysql", Host: "db", Port: 3306, Name: "slidegen"}
	if got, want := describeDatabase(mysql), "mysql db:3306/slidegen"; got != want {
		t.Errorf("describeDatabase(mysql) = %q, want %q", got, want)
	}
}
