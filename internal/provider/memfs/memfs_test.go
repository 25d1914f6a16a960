package memfs

import "testing"

func TestMoveCascadesToDirectoryDescendants(t *testing.T) {
	p := New()
	if err := p.Mkdir("/dir1"); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := p.Mkdir("/dir1/sub"); err != nil {
		t.Fatalf("mkdir sub: %v", err)
	}
	if _, err := p.CreateFile("/dir1/sub/file.txt"); err != nil {
		t.Fatalf("create file: %v", err)
	}

	if err := p.Move("/dir1", "/dir2"); err != nil {
		t.Fatalf("move: %v", err)
	}

	if p.Exists("/dir1") || p.Exists("/dir1/sub") || p.Exists("/dir1/sub/file.txt") {
		t.Fatal("old paths must not exist after move")
	}
	if !p.Exists("/dir2") || !p.Exists("/dir2/sub") || !p.Exists("/dir2/sub/file.txt") {
		t.Fatal("new paths must exist after move")
	}
	if isDir, err := p.IsDirectory("/dir2/sub"); err != nil || !isDir {
		t.Fatalf("expected /dir2/sub to remain a directory, isDir=%v err=%v", isDir, err)
	}
}

func TestMoveLeavesUnrelatedSiblingsAlone(t *testing.T) {
	p := New()
	if err := p.Mkdir("/dir1"); err != nil {
		t.Fatalf("mkdir dir1: %v", err)
	}
	if err := p.Mkdir("/dir1b"); err != nil {
		t.Fatalf("mkdir dir1b: %v", err)
	}
	if _, err := p.CreateFile("/dir1b/keep.txt"); err != nil {
		t.Fatalf("create file: %v", err)
	}

	if err := p.Move("/dir1", "/dir2"); err != nil {
		t.Fatalf("move: %v", err)
	}

	if !p.Exists("/dir1b") || !p.Exists("/dir1b/keep.txt") {
		t.Fatal("sibling with a shared path prefix must not be affected by an unrelated move")
	}
}
