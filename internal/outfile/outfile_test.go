package outfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var testNow = time.Date(2026, 8, 25, 14, 30, 5, 0, time.Local)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("touch %s: %v", path, err)
	}
}

func TestGenerateFormat(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	got, err := Generate("Cam A", dir, testNow)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := filepath.Join(dir, "20260825_143005_Cam_A.ts")
	if got != want {
		t.Fatalf("Generate = %q, want %q", got, want)
	}
}

func TestGenerateSameSecondCollisions(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	first, err := Generate("Cam A", dir, testNow)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	touch(t, first)

	second, err := Generate("Cam A", dir, testNow)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if second == first {
		t.Fatalf("second call returned the same path %q", second)
	}
	if want := filepath.Join(dir, "20260825_143005_Cam_A_0.ts"); second != want {
		t.Fatalf("second = %q, want %q", second, want)
	}
	touch(t, second)

	third, err := Generate("Cam A", dir, testNow)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if want := filepath.Join(dir, "20260825_143005_Cam_A_1.ts"); third != want {
		t.Fatalf("third = %q, want %q", third, want)
	}
}

func TestGenerateIgnoresOtherExtensions(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "20260825_143005_Cam_A.mp4"))
	touch(t, filepath.Join(dir, "20260825_143005_Cam_A.ts.ffmpeg.log"))

	got, err := Generate("Cam A", dir, testNow)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if want := filepath.Join(dir, "20260825_143005_Cam_A.ts"); got != want {
		t.Fatalf("Generate = %q, want %q", got, want)
	}
}

func TestGenerateMissingDir(t *testing.T) {
	t.Parallel()
	if _, err := Generate("Cam A", filepath.Join(t.TempDir(), "absent"), testNow); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
