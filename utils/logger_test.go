package utils

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerLevels(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewLoggerTo(&out, &errOut, LevelInfo)

	l.Debug("hidden %d", 1)
	l.Info("shown %d", 2)
	l.Error("broken %d", 3)

	if strings.Contains(out.String(), "hidden") {
		t.Errorf("debug line written at info level: %q", out.String())
	}
	if !strings.Contains(out.String(), "shown 2") {
		t.Errorf("info line missing: %q", out.String())
	}
	if !strings.Contains(errOut.String(), "broken 3") {
		t.Errorf("error line missing from error writer: %q", errOut.String())
	}
}

func TestLoggerEventTag(t *testing.T) {
	var out bytes.Buffer
	l := NewLoggerTo(&out, &out, LevelDebug)

	l.Event("input_artifact_received", "path=%s", "/tmp/raw.csv")

	if !strings.Contains(out.String(), "event=input_artifact_received path=/tmp/raw.csv") {
		t.Errorf("event line malformed: %q", out.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{" WARN ", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"chatty", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %d; want %d", tt.in, got, tt.want)
		}
	}
}
