// Package memfs is an in-memory encfs.FileProvider, used by tests and by
// embedders that want a volume without touching disk.
package memfs

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"

	"encfs"
)

type node struct {
	isDir       bool
	data        []byte
	modified    int64
	permissions uint32
}

// Provider is an in-memory tree of directories and byte-slice files. It
// implements encfs.FileProvider.
type Provider struct {
	mu    sync.Mutex
	nodes map[string]*node
}

// New returns an empty Provider with just the root directory.
func New() *Provider {
	p := &Provider{nodes: map[string]*node{}}
	p.nodes["/"] = &node{isDir: true, permissions: 0o755}
	return p
}

func clean(p string) string {
	if p == "" {
		return "/"
	}
	return path.Clean("/" + p)
}

func parentOf(p string) string { return path.Dir(p) }

func (p *Provider) RootPath() string { return "/" }

func (p *Provider) Exists(raw string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.nodes[clean(raw)]
	return ok
}

func (p *Provider) IsDirectory(raw string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, ok := p.nodes[clean(raw)]
	if !ok {
		return false, fmt.Errorf("memfs: %s not found", raw)
	}
	return n.isDir, nil
}

func (p *Provider) ListFiles(raw string) ([]encfs.FileInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	dir := clean(raw)
	n, ok := p.nodes[dir]
	if !ok || !n.isDir {
		return nil, fmt.Errorf("memfs: %s is not a directory", raw)
	}

	var names []string
	for candidate := range p.nodes {
		if candidate == dir {
			continue
		}
		if parentOf(candidate) == dir {
			names = append(names, candidate)
		}
	}
	sort.Strings(names)

	out := make([]encfs.FileInfo, 0, len(names))
	for _, full := range names {
		child := p.nodes[full]
		out = append(out, encfs.FileInfo{
			Name:         path.Base(full),
			IsDirectory:  child.isDir,
			Length:       int64(len(child.data)),
			LastModified: child.modified,
			Permissions:  child.permissions,
		})
	}
	return out, nil
}

func (p *Provider) CreateFile(raw string) (encfs.FileInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	full := clean(raw)
	n := &node{permissions: 0o644}
	p.nodes[full] = n
	return encfs.FileInfo{Name: path.Base(full), Permissions: n.permissions}, nil
}

func (p *Provider) Mkdir(raw string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	full := clean(raw)
	if _, ok := p.nodes[full]; ok {
		return fmt.Errorf("memfs: %s already exists", raw)
	}
	p.nodes[full] = &node{isDir: true, permissions: 0o755}
	return nil
}

// Move renames a node, and — for a directory — every descendant with it,
// since nodes are keyed by their full path rather than linked into a tree.
func (p *Provider) Move(src, dst string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, d := clean(src), clean(dst)
	n, ok := p.nodes[s]
	if !ok {
		return fmt.Errorf("memfs: %s not found", src)
	}
	prefix := s + "/"
	var descendants []string
	for candidate := range p.nodes {
		if strings.HasPrefix(candidate, prefix) {
			descendants = append(descendants, candidate)
		}
	}
	for _, full := range descendants {
		p.nodes[d+strings.TrimPrefix(full, s)] = p.nodes[full]
		delete(p.nodes, full)
	}
	delete(p.nodes, s)
	p.nodes[d] = n
	return nil
}

func (p *Provider) Delete(raw string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	full := clean(raw)
	if _, ok := p.nodes[full]; !ok {
		return fmt.Errorf("memfs: %s not found", raw)
	}
	delete(p.nodes, full)
	return nil
}

func (p *Provider) Copy(src, dst string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, d := clean(src), clean(dst)
	n, ok := p.nodes[s]
	if !ok {
		return fmt.Errorf("memfs: %s not found", src)
	}
	cp := *n
	cp.data = append([]byte{}, n.data...)
	p.nodes[d] = &cp
	return nil
}

type readCloser struct{ *bytes.Reader }

func (readCloser) Close() error { return nil }

func (p *Provider) OpenInputStream(raw string) (io.ReadCloser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, ok := p.nodes[clean(raw)]
	if !ok {
		return nil, fmt.Errorf("memfs: %s not found", raw)
	}
	return readCloser{bytes.NewReader(n.data)}, nil
}

// writer buffers writes and commits them to the node on Close, mirroring
// how a real file descriptor's content only becomes visible once flushed.
type writer struct {
	p    *Provider
	path string
	buf  bytes.Buffer
}

func (w *writer) Write(b []byte) (int, error) { return w.buf.Write(b) }

func (w *writer) Close() error {
	w.p.mu.Lock()
	defer w.p.mu.Unlock()
	n, ok := w.p.nodes[w.path]
	if !ok {
		n = &node{permissions: 0o644}
		w.p.nodes[w.path] = n
	}
	n.data = w.buf.Bytes()
	return nil
}

// OpenOutputStream ignores length; the in-memory writer grows as written.
func (p *Provider) OpenOutputStream(raw string, length int64) (io.WriteCloser, error) {
	full := clean(raw)
	p.mu.Lock()
	if _, ok := p.nodes[full]; !ok {
		p.nodes[full] = &node{permissions: 0o644}
	}
	p.mu.Unlock()
	return &writer{p: p, path: full}, nil
}

func (p *Provider) GetFileInfo(raw string) (encfs.FileInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	full := clean(raw)
	n, ok := p.nodes[full]
	if !ok {
		return encfs.FileInfo{}, fmt.Errorf("memfs: %s not found", raw)
	}
	return encfs.FileInfo{
		Name:         path.Base(full),
		IsDirectory:  n.isDir,
		Length:       int64(len(n.data)),
		LastModified: n.modified,
		Permissions:  n.permissions,
	}, nil
}

// Dump returns a newline-joined listing of every path in the tree, for
// debugging in tests.
func (p *Provider) Dump() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var names []string
	for k := range p.nodes {
		names = append(names, k)
	}
	sort.Strings(names)
	return strings.Join(names, "\n")
}
