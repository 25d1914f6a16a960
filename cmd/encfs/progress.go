package main

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"encfs"
)

// reporter prints a single overwriting progress line as a tree operation
// (move/copy/delete) walks the volume, one line per file processed.
type reporter struct {
	mu       sync.Mutex
	done     int
	lastLine int
}

func newReporter() *reporter {
	return &reporter{}
}

func (r *reporter) OnProgress(event encfs.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch event.Kind {
	case encfs.FileProcessed:
		r.done++
		r.render(event.Path)
	case encfs.OpComplete:
		if r.lastLine > 0 {
			fmt.Fprintln(os.Stderr)
		}
	}
}

func (r *reporter) render(path string) {
	line := fmt.Sprintf("\r%d processed  %s", r.done, path)
	if len(line) < r.lastLine {
		line += strings.Repeat(" ", r.lastLine-len(line))
	}
	r.lastLine = len(line)
	fmt.Fprint(os.Stderr, line)
}
