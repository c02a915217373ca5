package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewManager_WritesDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), DirName)

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, ConfigFile)); err != nil {
		t.Fatalf("config.yaml not written: %v", err)
	}
	cfg := m.GetConfig()
	if cfg.Dropbox.TemplateName != "Debate Metadata" {
		t.Errorf("TemplateName = %q, want %q", cfg.Dropbox.TemplateName, "Debate Metadata")
	}
	if got, want := m.DatabasePath(), filepath.Join(dir, "history.db"); got != want {
		t.Errorf("DatabasePath() = %q, want %q", got, want)
	}
	if got, want := m.CredentialsPath(), filepath.Join(dir, CredentialsFile); got != want {
		t.Errorf("CredentialsPath() = %q, want %q", got, want)
	}
}

func TestNewManager_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	data := []byte("dropbox:\n  folder: Other Folder\n")
	if err := os.WriteFile(filepath.Join(dir, ConfigFile), data, 0644); err != nil {
		t.Fatal(err)
	}

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	cfg := m.GetConfig()
	if cfg.Dropbox.Folder != "Other Folder" {
		t.Errorf("Folder = %q, want %q", cfg.Dropbox.Folder, "Other Folder")
	}
	if cfg.Dropbox.TemplateName != "Debate Metadata" {
		t.Errorf("TemplateName = %q, want default", cfg.Dropbox.TemplateName)
	}
}

func TestLoadSecrets(t *testing.T) {
	t.Setenv(EnvSheetID, "")
	t.Setenv(EnvDropboxKey, "")

	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	if _, err := m.LoadSecrets(); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("LoadSecrets() without .env error = %v, want ErrNotConfigured", err)
	}

	env := []byte("SHEET_ID=sheet-123\nDROPBOXKEY=token-abc\n")
	if err := os.WriteFile(m.EnvPath(), env, 0600); err != nil {
		t.Fatal(err)
	}

	secrets, err := m.LoadSecrets()
	if err != nil {
		t.Fatalf("LoadSecrets() error = %v", err)
	}
	if secrets.SheetID != "sheet-123" || secrets.DropboxToken != "token-abc" {
		t.Errorf("LoadSecrets() = %+v", secrets)
	}

	t.Setenv(EnvSheetID, "from-env")
	secrets, err = m.LoadSecrets()
	if err != nil {
		t.Fatalf("LoadSecrets() error = %v", err)
	}
	if secrets.SheetID != "from-env" {
		t.Errorf("SheetID = %q, want environment override", secrets.SheetID)
	}
}

func TestConfigured(t *testing.T) {
	t.Setenv(EnvSheetID, "")

	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	if m.Configured() {
		t.Fatal("Configured() = true on an empty dir")
	}

	os.WriteFile(m.CredentialsPath(), []byte(`{}`), 0600)
	os.WriteFile(m.EnvPath(), []byte("SHEET_ID=abc\n"), 0600)
	if !m.Configured() {
		t.Error("Configured() = false after both files were written")
	}
}

func TestUpdateWindowSize_Persists(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.UpdateWindowSize(700, 650); err != nil {
		t.Fatalf("UpdateWindowSize() error = %v", err)
	}

	reloaded, err := NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	if w := reloaded.GetConfig().App.WindowWidth; w != 700 {
		t.Errorf("WindowWidth = %d, want 700", w)
	}
}
