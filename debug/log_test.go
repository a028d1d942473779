package debug

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogDisabledByDefault(t *testing.T) {
	Disable()
	if Enabled() {
		t.Fatal("logging should start disabled")
	}
	Log("test", "dropped") // must not panic
}

func TestEnableWriter(t *testing.T) {
	var buf bytes.Buffer
	EnableWriter(&buf)
	defer Disable()

	if !Enabled() {
		t.Fatal("EnableWriter should turn logging on")
	}
	Log("midi", "opened output", "port", "IAC Bus 1")
	out := buf.String()
	for _, s := range []string{"opened output", "cat=midi", "IAC Bus 1"} {
		if !strings.Contains(out, s) {
			t.Errorf("log %q missing %q", out, s)
		}
	}

	Disable()
	buf.Reset()
	Log("midi", "after disable")
	if buf.Len() != 0 || Enabled() {
		t.Errorf("logged after Disable: %q", buf.String())
	}
}

func TestEnableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "debug.log")
	if err := Enable(path); err != nil {
		t.Fatal(err)
	}
	Log("generate", "wrote", "entries", 3)
	Disable()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "wrote") || !strings.Contains(string(data), "entries=3") {
		t.Errorf("debug file = %q", data)
	}
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithContext(context.Background(), New(&buf, "warn"))
	l := FromContext(ctx)
	l.Info("hidden")
	l.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("level not applied: %q", buf.String())
	}

	buf.Reset()
	New(&buf, "nonsense").Info("falls back to info")
	if !strings.Contains(buf.String(), "falls back to info") {
		t.Errorf("unknown level should mean info: %q", buf.String())
	}
}
