package internal

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

type Kind string

const (
	Created  Kind = "created"
	Modified Kind = "modified"
	Deleted  Kind = "deleted"
	Moved    Kind = "moved"
	Unknown  Kind = "unknown"
)

// SourceExtensions are never listed nor reported; the server's own sources
// may live next to the browsed folders.
var SourceExtensions = []string{".py", ".go"}

const hiddenMarker = "."

// ChangeEvent
// normalized notification derived from a single raw filesystem event.
type ChangeEvent struct {
	Kind        Kind
	IsDirectory bool
	Path        string
}

func (e ChangeEvent) String() string {
	t := "file"
	if e.IsDirectory {
		t = "dir"
	}
	return fmt.Sprintf("%-9s %-4s %q", e.Kind, t, e.Path)
}

// KindOf maps a raw fsnotify operation to a change kind. A raw event may
// carry several bits; the most destructive one wins.
func KindOf(op fsnotify.Op) Kind {
	switch {
	case op.Has(fsnotify.Remove):
		return Deleted
	case op.Has(fsnotify.Rename):
		return Moved
	case op.Has(fsnotify.Create):
		return Created
	case op.Has(fsnotify.Write), op.Has(fsnotify.Chmod):
		return Modified
	}
	return Unknown
}

// Ignored reports whether a base name must be kept away from listings and
// change notifications.
func Ignored(name string) bool {
	if name == "" || strings.HasPrefix(name, hiddenMarker) {
		return true
	}
	ext := filepath.Ext(name)
	for _, e := range SourceExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
