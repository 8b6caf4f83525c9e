package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestToZapLevel(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		DebugLevel: "debug",
		InfoLevel:  "info",
		WarnLevel:  "warn",
		ErrorLevel: "error",
		"bogus":    "debug",
	}
	for in, want := range cases {
		if got := toZapLevel(in).String(); got != want {
			t.Errorf("toZapLevel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSetLevel_FiltersAtRuntime(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l := NewWithWriter(&buf, InfoLevel)

	l.Debugw("hidden")
	l.Infow("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output at info level: %q", buf.String())
	}

	l.SetLevel(DebugLevel)
	l.Debugw("now_visible")
	if !strings.Contains(buf.String(), "now_visible") {
		t.Fatalf("debug message missing after SetLevel: %q", buf.String())
	}
	if l.Level() != "debug" {
		t.Fatalf("Level() = %q", l.Level())
	}
}

func TestNamed_SharesLevel(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	parent := NewWithWriter(&buf, ErrorLevel)
	child := parent.Named("child")

	child.Infow("quiet")
	parent.SetLevel(InfoLevel)
	child.Infow("loud")

	out := buf.String()
	if strings.Contains(out, "quiet") || !strings.Contains(out, "loud") {
		t.Fatalf("child did not follow parent level: %q", out)
	}
}

func TestCronAdapter(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l := NewWithWriter(&buf, DebugLevel)
	c := l.Cron()

	c.Info("wake", "now", "x")
	c.Error(errors.New("boom"), "panic", "job", "k")

	out := buf.String()
	for _, want := range []string{"wake", "panic", "boom", "cron"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}
}
