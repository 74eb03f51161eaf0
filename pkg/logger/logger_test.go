package logger

import (
	"os"
	"path/filepath"
	"testing"

	"bnb-dashboard/pkg/types"
)

// go test -v --run TestNewWritesFile
func TestNewWritesFile(t *testing.T) {
	dir := t.TempDir()

	l, err := New(types.LogConfig{Level: "debug", Format: "json", FilePath: dir, MaxSize: 1})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	l.Info("hello")
	_ = l.Sync()

	if _, err := os.Stat(filepath.Join(dir, logFileName)); err != nil {
		t.Fatalf("expected log file: %v", err)
	}
}

// go test -v --run TestNewInvalidLevel
func TestNewInvalidLevel(t *testing.T) {
	if _, err := New(types.LogConfig{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
