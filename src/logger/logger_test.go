package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"market-dashboard/src/models"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf, "WARNING", "feed")

	l.Debug("hidden %d", 1)
	l.Info("hidden %d", 2)
	l.Warning("shown %d", 3)
	l.Error("shown %d", 4)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("messages below WARNING leaked: %q", out)
	}
	if !strings.Contains(out, "[feed] WARNING: shown 3") {
		t.Errorf("missing warning line: %q", out)
	}
	if !strings.Contains(out, "[feed] ERROR: shown 4") {
		t.Errorf("missing error line: %q", out)
	}
}

func TestNamedSharesOutput(t *testing.T) {
	var buf bytes.Buffer
	root := NewLoggerTo(&buf, "DEBUG", "root")
	root.Named("engine").Debug("tick")

	if !strings.Contains(buf.String(), "[engine] DEBUG: tick") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]int{
		"debug":    LevelDebug,
		" INFO ":   LevelInfo,
		"warn":     LevelWarning,
		"ERROR":    LevelError,
		"bogus":    LevelInfo,
		"":         LevelInfo,
		"critical": LevelCritical,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.log")
	l := NewLogger(&models.MConfig{LogLevel: "INFO", LogFile: path}, "main")
	l.Info("written to %s", "file")
	CloseFiles()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "[main] INFO: written to file") {
		t.Fatalf("log file content %q", string(data))
	}
}
