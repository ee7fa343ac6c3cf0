package storage

import (
	"io"
	"strings"
	"testing"
	"time"
)

func TestSaveAndOpen(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	stored, err := fs.Save("report.pdf", strings.NewReader("content"), time.Unix(1700000000, 0))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if stored != "1700000000_report.pdf" {
		t.Errorf("stored name = %s; want 1700000000_report.pdf", stored)
	}

	f, err := fs.Open(stored)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	data, _ := io.ReadAll(f)
	if string(data) != "content" {
		t.Errorf("read back %q; want %q", data, "content")
	}
}

func TestSave_SanitizesName(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	tests := []struct {
		name   string
		suffix string
	}{
		{"../../etc/passwd", "_passwd"},
		{"my file (1).png", "_my_file__1_.png"},
		{"", "_file"},
		{".", "_file"},
		{"..", "_file"},
		{"/", "_file"},
	}

	for _, tt := range tests {
		stored, err := fs.Save(tt.name, strings.NewReader("x"), time.Unix(42, 0))
		if err != nil {
			t.Fatalf("Save(%q) failed: %v", tt.name, err)
		}
		if !strings.HasSuffix(stored, tt.suffix) {
			t.Errorf("Save(%q) stored as %q; want suffix %q", tt.name, stored, tt.suffix)
		}
		if strings.ContainsAny(stored, "/\\") {
			t.Errorf("stored name %q contains path separators", stored)
		}
	}
}

func TestRemove_AbsentIsNotAnError(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	stored, err := fs.Save("a.txt", strings.NewReader("x"), time.Unix(1, 0))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := fs.Remove(stored); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	// Already gone: the reaper may sweep twice.
	if err := fs.Remove(stored); err != nil {
		t.Errorf("Remove of absent artifact returned error: %v", err)
	}
	if err := fs.Remove("never_existed.bin"); err != nil {
		t.Errorf("Remove of never-stored artifact returned error: %v", err)
	}
}
