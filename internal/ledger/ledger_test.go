package ledger

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("jpeg bytes"), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return p
}

func TestRecordAndSweepSession(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer l.Close()

	a := writeFile(t, dir, "thumb_1.jpg")
	b := writeFile(t, dir, "thumb_2.jpg")
	c := writeFile(t, dir, "thumb_3.jpg")

	for _, p := range []string{a, b} {
		if err := l.Record("session-1", p, 10); err != nil {
			t.Fatalf("Record(%s) error: %v", p, err)
		}
	}
	if err := l.Record("session-2", c, 10); err != nil {
		t.Fatalf("Record(%s) error: %v", c, err)
	}

	if n, err := l.Count("session-1"); err != nil || n != 2 {
		t.Fatalf("Count(session-1) = %d, %v; want 2, nil", n, err)
	}

	removed, err := l.SweepSession("session-1")
	if err != nil {
		t.Fatalf("SweepSession error: %v", err)
	}
	if removed != 2 {
		t.Errorf("SweepSession removed %d files, want 2", removed)
	}

	for _, p := range []string{a, b} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s still exists after sweep", p)
		}
	}
	// Other sessions untouched.
	if _, err := os.Stat(c); err != nil {
		t.Errorf("session-2 file was swept: %v", err)
	}
	if n, _ := l.Count("session-1"); n != 0 {
		t.Errorf("Count(session-1) after sweep = %d, want 0", n)
	}
}

func TestSweepSessionMissingFiles(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer l.Close()

	// Record a file that never existed; sweep must not error.
	if err := l.Record("s", filepath.Join(dir, "gone.jpg"), 0); err != nil {
		t.Fatalf("Record error: %v", err)
	}
	removed, err := l.SweepSession("s")
	if err != nil {
		t.Fatalf("SweepSession error: %v", err)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0 for already-missing file", removed)
	}
}

func TestSweepOrphans(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer l.Close()

	old := writeFile(t, dir, "old.jpg")
	fresh := writeFile(t, dir, "fresh.jpg")

	if err := l.Record("dead-session", old, 10); err != nil {
		t.Fatalf("Record error: %v", err)
	}
	if err := l.Record("live-session", fresh, 10); err != nil {
		t.Fatalf("Record error: %v", err)
	}

	// Age the old record past the cutoff.
	if _, err := l.db.Exec(`UPDATE thumbnails SET created_at = ? WHERE path = ?`,
		time.Now().Add(-48*time.Hour).Unix(), old); err != nil {
		t.Fatalf("failed to age record: %v", err)
	}

	removed, err := l.SweepOrphans(time.Now().Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("SweepOrphans error: %v", err)
	}
	if removed != 1 {
		t.Errorf("SweepOrphans removed %d, want 1", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("old file survived orphan sweep")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("fresh file was swept: %v", err)
	}
}

func TestRecordReplace(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer l.Close()

	p := writeFile(t, dir, "thumb.jpg")
	if err := l.Record("s1", p, 5); err != nil {
		t.Fatalf("Record error: %v", err)
	}
	// Re-recording the same path under a new session moves ownership.
	if err := l.Record("s2", p, 5); err != nil {
		t.Fatalf("Record error: %v", err)
	}
	if n, _ := l.Count("s1"); n != 0 {
		t.Errorf("Count(s1) = %d, want 0 after re-record", n)
	}
	if n, _ := l.Count("s2"); n != 1 {
		t.Errorf("Count(s2) = %d, want 1", n)
	}
}
