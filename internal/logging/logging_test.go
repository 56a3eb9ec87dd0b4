package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/claude/kinetic/internal/config"
)

// TestFileOutput verifies log lines reach both stdout and the rotated file.
func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "kinetic.log")
	var stdout bytes.Buffer

	log, closer := newLogger(config.LogConfig{Level: "info", File: path, MaxSizeMB: 1}, &stdout)
	log.Info("program scheduled", "entries", 3)
	log.Debug("hidden")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(stdout.String(), "program scheduled") {
		t.Errorf("stdout = %q", stdout.String())
	}
	if strings.Contains(stdout.String(), "hidden") {
		t.Error("debug line logged at info level")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "entries=3") {
		t.Errorf("file = %q", data)
	}
}

func TestStdoutOnly(t *testing.T) {
	var stdout bytes.Buffer
	log, closer := newLogger(config.LogConfig{Level: "debug"}, &stdout)
	log.Debug("visible")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout.String(), "visible") {
		t.Errorf("stdout = %q", stdout.String())
	}
}
