package debug

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)

	if !Enabled() {
		t.Fatal("logging not enabled")
	}
	Log("sched", "start at %.3f", 0.05)
	if !strings.Contains(buf.String(), "sched") || !strings.Contains(buf.String(), "start at 0.050") {
		t.Fatalf("log line %q", buf.String())
	}

	SetOutput(nil)
	buf.Reset()
	Log("sched", "dropped")
	if buf.Len() != 0 || Enabled() {
		t.Fatal("logged after disabling")
	}
}

func TestLogEvery(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)

	for i := 0; i < 7; i++ {
		LogEvery(3, "voice", "sample %s missing", "x.wav")
	}
	if n := strings.Count(buf.String(), "sample x.wav missing"); n != 2 {
		t.Fatalf("%d lines, want 2:\n%s", n, buf.String())
	}
}

func TestEnableWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "debug.log")
	if err := Enable(path); err != nil {
		t.Fatalf("enable: %v", err)
	}
	Log("main", "hello")
	Disable()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Debug logging started") || !strings.Contains(string(data), "hello") {
		t.Fatalf("log file %q", data)
	}
}
