package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
)

const (
	traversalMarker = ".."
	folderMarker    = "/"
)

var (
	ErrInvalidPath      = errors.New("invalid path")
	ErrAccessDenied     = errors.New("access denied")
	ErrNotFound         = errors.New("folder not found")
	ErrPermissionDenied = errors.New("no permission to read folder")
)

// Entry
// one direct child of a listed folder, folders carry a trailing "/".
type Entry struct {
	Name     string `json:"name"`
	IsFolder bool   `json:"is_folder"`
}

// Ack is the fixed acknowledgement of the write operation placeholders.
type Ack struct {
	Status string `json:"status"`
}

// Root
// a watched folder key and the absolute directory it maps to.
type Root struct {
	Key  string
	Path string
}

type Lister struct {
	// base
	// absolute, symlink free path every folder key is resolved under.
	base   string
	logger *log.Logger
}

func NewLister(base string, logger *log.Logger) (*Lister, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}

	logger.Printf("lister :: serving folders under %s\n", resolved)
	return &Lister{base: resolved, logger: logger}, nil
}

func (l *Lister) Base() string {
	return l.base
}

// Roots maps folder keys onto the base directory. Nothing is created here,
// the watcher does that before installing its watches.
func (l *Lister) Roots(keys []string) []Root {
	roots := make([]Root, 0, len(keys))
	for _, k := range keys {
		roots = append(roots, Root{Key: k, Path: filepath.Join(l.base, filepath.Clean(k))})
	}
	return roots
}

// Resolve validates a folder key and returns the absolute path it designates.
// The path does not have to exist.
func (l *Lister) Resolve(key string) (string, error) {
	if strings.Contains(key, traversalMarker) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, key)
	}
	if filepath.IsAbs(key) {
		return "", fmt.Errorf("%w: %q", ErrAccessDenied, key)
	}

	resolved, err := evalExisting(filepath.Join(l.base, filepath.Clean(key)))
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrPermission):
		return "", fmt.Errorf("%w: %q", ErrPermissionDenied, key)
	default:
		return "", errors.Join(fmt.Errorf("%w: %q", ErrInvalidPath, key), err)
	}

	if !l.contains(resolved) {
		return "", fmt.Errorf("%w: %q", ErrAccessDenied, key)
	}
	return resolved, nil
}

// evalExisting follows symlinks along the longest existing prefix of path and
// appends the missing remainder untouched.
func evalExisting(path string) (string, error) {
	rest := ""
	for cur := path; ; {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			return filepath.Join(resolved, rest), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return path, nil
		}
		rest = filepath.Join(filepath.Base(cur), rest)
		cur = parent
	}
}

func (l *Lister) contains(path string) bool {
	rel, err := filepath.Rel(l.base, path)
	if err != nil {
		return false
	}
	return rel != traversalMarker && !strings.HasPrefix(rel, traversalMarker+string(filepath.Separator))
}

// List returns the visible direct children of the folder designated by key,
// sorted by name. Every call reads the disk again.
func (l *Lister) List(key string) ([]Entry, error) {
	dir, err := l.Resolve(key)
	if err != nil {
		return nil, err
	}

	fi, err := os.Stat(dir)
	if err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}

	// os.ReadDir sorts by file name.
	children, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: %q", ErrPermissionDenied, key)
		}
		return nil, err
	}

	items := make([]Entry, 0, len(children))
	for _, c := range children {
		if Ignored(c.Name()) {
			continue
		}

		isDir := c.IsDir()
		if c.Type()&fs.ModeSymlink != 0 {
			if target, err := os.Stat(filepath.Join(dir, c.Name())); err == nil {
				isDir = target.IsDir()
			}
		}

		name := c.Name()
		if isDir {
			name += folderMarker
		}
		items = append(items, Entry{Name: name, IsFolder: isDir})
	}

	return items, nil
}

// CreateFolder, DeleteItem and RenameItem acknowledge without touching the
// disk, they only log the request.
func (l *Lister) CreateFolder(path, name string) Ack {
	l.logger.Printf("lister :: create folder %q in %q acknowledged (no-op)\n", name, path)
	return Ack{Status: "ok"}
}

func (l *Lister) DeleteItem(path, name string) Ack {
	l.logger.Printf("lister :: delete %q in %q acknowledged (no-op)\n", name, path)
	return Ack{Status: "ok"}
}

func (l *Lister) RenameItem(path, oldName, newName string) Ack {
	l.logger.Printf("lister :: rename %q -> %q in %q acknowledged (no-op)\n", oldName, newName, path)
	return Ack{Status: "ok"}
}
