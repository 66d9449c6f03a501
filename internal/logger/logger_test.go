package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOptionsDefaultToWorkdirLogs(t *testing.T) {
	tmpDir := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("get wd failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldWD) })
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}

	opts, err := Options{MaxBackups: 2}.withDefaults()
	if err != nil {
		t.Fatalf("resolve defaults failed: %v", err)
	}
	if filepath.Base(opts.Dir) != defaultLogDirName || opts.Filename != defaultLogFilename {
		t.Fatalf("unexpected path: %s", opts.Path())
	}
	if opts.MaxSizeMB != defaultLogMaxSizeMB || opts.MaxBackups != 2 || opts.MaxAgeDays != defaultLogMaxAgeDays {
		t.Fatalf("unexpected rotation: %+v", opts)
	}

	if _, err := openRotatingFile(Options{}); err != nil {
		t.Fatalf("open default log file failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, defaultLogDirName, defaultLogFilename)); err != nil {
		t.Fatalf("expected log file to be created: %v", err)
	}
}

func TestNewReleaseWritesToConfiguredFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := Options{
		Dir:      tmpDir,
		Filename: "release.log",
	}
	log := New("release", cfg)
	log.Info("release-log-test")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "release.log"))
	if err != nil {
		t.Fatalf("read release log failed: %v", err)
	}
	if !strings.Contains(string(content), "release-log-test") {
		t.Fatalf("expected log content to contain message, got=%s", string(content))
	}
}

func TestNewDebugDoesNotWriteFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := Options{
		Dir:      tmpDir,
		Filename: "debug.log",
	}
	log := New("debug", cfg)
	log.Info("debug-log-test")
	_ = log.Sync()

	if _, err := os.Stat(filepath.Join(tmpDir, "debug.log")); !os.IsNotExist(err) {
		t.Fatalf("debug mode should not create log file")
	}
}

func TestTenantLoggerCarriesRestaurantID(t *testing.T) {
	tmpDir := t.TempDir()
	previous := L
	t.Cleanup(func() { L = previous })

	L = New("release", Options{Dir: tmpDir, Filename: "tenant.log"})
	Tenant("rest-42", "card_number", "#0001-9").Infow("sale_registered")
	Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "tenant.log"))
	if err != nil {
		t.Fatalf("read tenant log failed: %v", err)
	}
	text := string(content)
	if !strings.Contains(text, `"restaurant_id":"rest-42"`) {
		t.Fatalf("expected restaurant_id field, got=%s", text)
	}
	if !strings.Contains(text, `"event":"sale_registered"`) {
		t.Fatalf("expected event key, got=%s", text)
	}
}

func TestReleaseLoggerTagsAppAndCard(t *testing.T) {
	tmpDir := t.TempDir()
	previous := L
	t.Cleanup(func() { L = previous })

	L = New("release", Options{Dir: tmpDir, Filename: "card.log"})
	Card("rest-7", "#0002-8").Infow("redemption_registered", "points_spent", 50)
	Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "card.log"))
	if err != nil {
		t.Fatalf("read card log failed: %v", err)
	}
	text := string(content)
	for _, want := range []string{`"app":"revisit-loyalty"`, `"restaurant_id":"rest-7"`, `"card_number":"#0002-8"`, `"points_spent":50`} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %s in log, got=%s", want, text)
		}
	}
}
