package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestCriticalLevelRendered(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelInfo, FormatJSON)

	log.Critical("boom", "key", "value")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected json record, got %q: %v", buf.String(), err)
	}
	if record["level"] != "CRITICAL" {
		t.Fatalf("expected CRITICAL level, got %v", record["level"])
	}
	if record["key"] != "value" {
		t.Fatalf("expected key attr, got %v", record["key"])
	}
}

func TestBusinessErrorSkipsNil(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelDebug, FormatText)

	log.BusinessError("ignored", nil)
	if buf.Len() != 0 {
		t.Fatalf("expected no output for nil error, got %q", buf.String())
	}

	log.BusinessError("groups.join: not found", errors.New("group not found"), "user_id", "u1")
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "user_id=u1") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestParseFormat(t *testing.T) {
	cases := []struct {
		value, env, want string
	}{
		{"", "production", FormatJSON},
		{"", "development", FormatPretty},
		{"TEXT", "production", FormatText},
		{"yaml", "production", FormatJSON},
	}
	for _, tc := range cases {
		if got := parseFormat(tc.value, tc.env); got != tc.want {
			t.Fatalf("parseFormat(%q, %q) = %q, want %q", tc.value, tc.env, got, tc.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	if got := parseLevel("", "development"); got != slog.LevelDebug {
		t.Fatalf("expected debug in development, got %v", got)
	}
	if got := parseLevel("", "production"); got != slog.LevelInfo {
		t.Fatalf("expected info in production, got %v", got)
	}
	if got := parseLevel("fatal", "production"); got != LevelCritical {
		t.Fatalf("expected critical, got %v", got)
	}
}
