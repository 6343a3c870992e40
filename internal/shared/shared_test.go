package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestIsBlank(t *testing.T) {
	tc := []struct {
		name string
		in   string
		want bool
	}{
		{name: "empty", in: "", want: true},
		{name: "spaces", in: "   ", want: true},
		{name: "tabs and newlines", in: "\t\n", want: true},
		{name: "text", in: "go.dev", want: false},
		{name: "padded text", in: "  x  ", want: false},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBlank(tt.in); got != tt.want {
				t.Errorf("IsBlank(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tc := []struct {
		in   string
		want log.Level
	}{
		{in: "debug", want: log.DebugLevel},
		{in: "WARN", want: log.WarnLevel},
		{in: " error ", want: log.ErrorLevel},
		{in: "nonsense", want: log.InfoLevel},
		{in: "", want: log.InfoLevel},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLogLevel(tt.in); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestGenerators(t *testing.T) {
	t.Run("GenerateID is unique", func(t *testing.T) {
		seen := map[string]bool{}
		for range 100 {
			id := GenerateID()
			if seen[id] {
				t.Fatalf("duplicate id %s", id)
			}
			seen[id] = true
		}
	})

	t.Run("GenerateState is url safe", func(t *testing.T) {
		state, err := GenerateState()
		if err != nil {
			t.Fatalf("GenerateState() error = %v", err)
		}
		if state == "" || strings.ContainsAny(state, "+/=") {
			t.Errorf("GenerateState() = %q, want non-empty url-safe token", state)
		}
	})
}

func TestLoggers(t *testing.T) {
	t.Run("NewLogger writes to writer", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&buf)
		WithLogger(l, "component", "test").Info("hello")
		if !strings.Contains(buf.String(), "hello") || !strings.Contains(buf.String(), "component=test") {
			t.Errorf("unexpected log output %q", buf.String())
		}
	})

	t.Run("NewFileLogger creates directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "linkbox.log")
		l, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("NewFileLogger() error = %v", err)
		}
		l.Info("written")
		if _, err := os.Stat(path); err != nil {
			t.Errorf("log file should exist: %v", err)
		}
	})
}
