package cache

import (
	"strings"

	"github.com/FACorreiaa/go-templui-session/internal/pkg/apiclient"
)

// Key identifies a cached request: ordered path segments joined with "/".
type Key []string

func (k Key) Path() string {
	return apiclient.JoinPath(k...)
}

func (k Key) String() string {
	return k.Path()
}

// matchesPrefix reports whether path equals prefix or lies below it on a
// segment boundary.
func matchesPrefix(path, prefix string) bool {
	if prefix == "" {
		return true
	}
	return path == prefix || strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/")
}
