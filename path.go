package encfs

import (
	"strings"

	"encfs/errs"
)

// splitPath breaks a logical "/a/b/c" path into its ordered components.
// A leading/trailing separator is tolerated; an embedded empty component
// ("/a//b") is not.
func splitPath(path string) ([]string, error) {
	trimmed := strings.Trim(path, PathSeparator)
	if trimmed == "" {
		return nil, nil
	}
	parts := strings.Split(trimmed, PathSeparator)
	for _, p := range parts {
		if p == "" {
			return nil, errs.ErrEmptyPathComponent
		}
	}
	return parts, nil
}

// joinRaw assembles encoded path components into an absolute raw path.
func joinRaw(components []string) string {
	if len(components) == 0 {
		return RootPath
	}
	return PathSeparator + strings.Join(components, PathSeparator)
}
