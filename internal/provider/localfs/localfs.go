// Package localfs is an encfs.FileProvider backed by the host filesystem,
// grounded on the teacher's internal/fileops helpers (thin wrappers over os
// with error messages that name the operation and path).
package localfs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"encfs"
)

// Provider roots every raw path passed to it under Root.
type Provider struct {
	Root string
}

// New returns a Provider rooted at root, which must already exist.
func New(root string) *Provider {
	return &Provider{Root: root}
}

func (p *Provider) native(raw string) string {
	rel := strings.TrimPrefix(raw, "/")
	if rel == "" {
		return p.Root
	}
	return filepath.Join(p.Root, filepath.FromSlash(rel))
}

func (p *Provider) RootPath() string { return "/" }

func (p *Provider) Exists(raw string) bool {
	_, err := os.Stat(p.native(raw))
	return err == nil
}

func (p *Provider) IsDirectory(raw string) (bool, error) {
	info, err := os.Stat(p.native(raw))
	if err != nil {
		return false, fmt.Errorf("localfs: stat %s: %w", raw, err)
	}
	return info.IsDir(), nil
}

func (p *Provider) ListFiles(raw string) ([]encfs.FileInfo, error) {
	entries, err := os.ReadDir(p.native(raw))
	if err != nil {
		return nil, fmt.Errorf("localfs: readdir %s: %w", raw, err)
	}
	out := make([]encfs.FileInfo, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("localfs: stat %s/%s: %w", raw, e.Name(), err)
		}
		out = append(out, toFileInfo(e.Name(), info))
	}
	return out, nil
}

func toFileInfo(name string, info os.FileInfo) encfs.FileInfo {
	return encfs.FileInfo{
		Name:         name,
		IsDirectory:  info.IsDir(),
		Length:       info.Size(),
		LastModified: info.ModTime().Unix(),
		Permissions:  uint32(info.Mode().Perm()),
	}
}

func (p *Provider) CreateFile(raw string) (encfs.FileInfo, error) {
	native := p.native(raw)
	f, err := os.Create(native)
	if err != nil {
		return encfs.FileInfo{}, fmt.Errorf("localfs: create %s: %w", raw, err)
	}
	f.Close()
	info, err := os.Stat(native)
	if err != nil {
		return encfs.FileInfo{}, fmt.Errorf("localfs: stat %s: %w", raw, err)
	}
	return toFileInfo(filepath.Base(native), info), nil
}

func (p *Provider) Mkdir(raw string) error {
	if err := os.Mkdir(p.native(raw), 0o755); err != nil {
		return fmt.Errorf("localfs: mkdir %s: %w", raw, err)
	}
	return nil
}

func (p *Provider) Move(src, dst string) error {
	if err := os.Rename(p.native(src), p.native(dst)); err != nil {
		return fmt.Errorf("localfs: rename %s -> %s: %w", src, dst, err)
	}
	return nil
}

func (p *Provider) Delete(raw string) error {
	if err := os.Remove(p.native(raw)); err != nil {
		return fmt.Errorf("localfs: remove %s: %w", raw, err)
	}
	return nil
}

func (p *Provider) Copy(src, dst string) error {
	in, err := os.Open(p.native(src))
	if err != nil {
		return fmt.Errorf("localfs: open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(p.native(dst))
	if err != nil {
		return fmt.Errorf("localfs: create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("localfs: copy %s -> %s: %w", src, dst, err)
	}
	return out.Close()
}

func (p *Provider) OpenInputStream(raw string) (io.ReadCloser, error) {
	f, err := os.Open(p.native(raw))
	if err != nil {
		return nil, fmt.Errorf("localfs: open %s: %w", raw, err)
	}
	return f, nil
}

// OpenOutputStream creates (or truncates) the raw file. length is accepted
// for interface symmetry with providers that preallocate; localfs grows the
// file as it is written.
func (p *Provider) OpenOutputStream(raw string, length int64) (io.WriteCloser, error) {
	f, err := os.Create(p.native(raw))
	if err != nil {
		return nil, fmt.Errorf("localfs: create %s: %w", raw, err)
	}
	return f, nil
}

func (p *Provider) GetFileInfo(raw string) (encfs.FileInfo, error) {
	info, err := os.Stat(p.native(raw))
	if err != nil {
		return encfs.FileInfo{}, fmt.Errorf("localfs: stat %s: %w", raw, err)
	}
	return toFileInfo(filepath.Base(p.native(raw)), info), nil
}
