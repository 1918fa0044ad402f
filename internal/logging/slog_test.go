package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestAttrHelpers(t *testing.T) {
	tests := []struct {
		name    string
		attr    slog.Attr
		wantKey string
		wantVal string
	}{
		{"source", Source("calendar"), KeySource, "calendar"},
		{"query id", QueryID("q-1"), KeyQueryID, "q-1"},
		{"session", Session("default"), KeySession, "default"},
		{"count", Count(3), KeyCount, "3"},
		{"tool", Tool("assistant_ask"), KeyTool, "assistant_ask"},
		{"provider", Provider("openai"), KeyProvider, "openai"},
		{"status", Status(StatusTimeout), KeyStatus, "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.wantKey {
				t.Errorf("key = %q, want %q", tt.attr.Key, tt.wantKey)
			}
			if got := tt.attr.Value.String(); got != tt.wantVal {
				t.Errorf("value = %q, want %q", got, tt.wantVal)
			}
		})
	}
}

func TestWithHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, FormatText, false)

	WithSource(WithService(WithOperation(logger, "gather"), "gmail"), "mail").Info("done")

	out := buf.String()
	for _, want := range []string{"operation=gather", "service=gmail", "source=mail"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestErr(t *testing.T) {
	t.Run("nil error is omitted", func(t *testing.T) {
		var buf bytes.Buffer
		New(&buf, FormatText, false).Info("msg", Err(nil))
		if strings.Contains(buf.String(), "error=") {
			t.Errorf("nil error should be omitted, got %q", buf.String())
		}
	})

	t.Run("error message is logged", func(t *testing.T) {
		attr := Err(errors.New("boom"))
		if attr.Key != KeyError || attr.Value.String() != "boom" {
			t.Errorf("Err() = %v, want error=boom", attr)
		}
	})
}

func TestNew(t *testing.T) {
	t.Run("debug level", func(t *testing.T) {
		var buf bytes.Buffer
		New(&buf, FormatText, true).Debug("visible")
		if !strings.Contains(buf.String(), "visible") {
			t.Error("debug message should be written when debug is enabled")
		}
	})

	t.Run("info level hides debug", func(t *testing.T) {
		var buf bytes.Buffer
		New(&buf, FormatText, false).Debug("hidden")
		if buf.Len() != 0 {
			t.Errorf("expected no output, got %q", buf.String())
		}
	})

	t.Run("json format", func(t *testing.T) {
		var buf bytes.Buffer
		New(&buf, FormatJSON, false).Info("hello")
		if !strings.HasPrefix(buf.String(), "{") {
			t.Errorf("expected JSON output, got %q", buf.String())
		}
	})
}

func TestOrDefault(t *testing.T) {
	if OrDefault(nil) != slog.Default() {
		t.Error("OrDefault(nil) should return slog.Default()")
	}
	l := Discard()
	if OrDefault(l) != l {
		t.Error("OrDefault should return the given logger")
	}
}

func TestAnonymizeEmail(t *testing.T) {
	if AnonymizeEmail("") != "" {
		t.Error("empty email should stay empty")
	}
	a := AnonymizeEmail("Alice@Example.com")
	b := AnonymizeEmail("alice@example.com ")
	if a != b {
		t.Errorf("hash should ignore case and surrounding space: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "user:") || strings.Contains(a, "alice") {
		t.Errorf("unexpected anonymized value %q", a)
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "<empty>"},
		{"sk-abcdef", "[token:9 chars]"},
	}
	for _, tt := range tests {
		if got := SanitizeToken(tt.in); got != tt.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeQuery(t *testing.T) {
	if SanitizeQuery("") != "<empty>" {
		t.Error("empty query should be <empty>")
	}
	got := SanitizeQuery("what's on my calendar")
	if strings.Contains(got, "calendar") {
		t.Errorf("query content leaked: %q", got)
	}
	if got != SanitizeQuery("what's on my calendar") {
		t.Error("SanitizeQuery should be deterministic")
	}
	if !strings.HasPrefix(got, "[query:21 chars ") {
		t.Errorf("unexpected format %q", got)
	}
}
