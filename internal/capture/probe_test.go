package capture

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"streamrec/pkg/logx"
)

func TestProbeReportsMissingOutput(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	p, err := NewProbe(dir, 50*time.Millisecond, logx.Nop())
	if err != nil {
		t.Fatalf("NewProbe: %v", err)
	}
	defer p.Close()

	missed := make(chan string, 1)
	p.onMiss = func(stream, _ string) { missed <- stream }

	p.Expect("Cam A", filepath.Join(dir, "never-created.ts"))

	select {
	case stream := <-missed:
		if stream != "Cam A" {
			t.Fatalf("missed stream = %q", stream)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("probe never reported the missing output")
	}
}

func TestProbeSatisfiedByOutputFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	p, err := NewProbe(dir, 200*time.Millisecond, logx.Nop())
	if err != nil {
		t.Fatalf("NewProbe: %v", err)
	}
	defer p.Close()

	missed := make(chan string, 1)
	p.onMiss = func(stream, _ string) { missed <- stream }

	out := filepath.Join(dir, "rec.ts")
	p.Expect("Cam A", out)
	if err := os.WriteFile(out, []byte("ts"), 0o644); err != nil {
		t.Fatalf("writing output: %v", err)
	}

	select {
	case <-missed:
		t.Fatal("probe reported a miss although the file appeared")
	case <-time.After(600 * time.Millisecond):
	}
}

func TestProbeSatisfiedByPreexistingFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	out := filepath.Join(dir, "rec.ts")
	if err := os.WriteFile(out, []byte("ts"), 0o644); err != nil {
		t.Fatalf("writing output: %v", err)
	}

	p, err := NewProbe(dir, 100*time.Millisecond, logx.Nop())
	if err != nil {
		t.Fatalf("NewProbe: %v", err)
	}
	defer p.Close()

	missed := make(chan string, 1)
	p.onMiss = func(stream, _ string) { missed <- stream }

	p.Expect("Cam A", out)

	select {
	case <-missed:
		t.Fatal("probe reported a miss for an existing file")
	case <-time.After(400 * time.Millisecond):
	}
}
