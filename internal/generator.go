package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var ErrInvalidCount = errors.New("file count must be positive")

// Generate writes count files named <name>_<i><ext> into the folder designated
// by key and returns the absolute folder path. The folder is created when
// missing and must stay under the lister's base directory.
func (l *Lister) Generate(key, name, ext string, count int) (string, error) {
	if count <= 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	if name == "" || filepath.Base(name) != name || Ignored(name+ext) {
		return "", fmt.Errorf("%w: file name %q", ErrInvalidPath, name+ext)
	}

	dir, err := l.Resolve(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	for i := 1; i <= count; i++ {
		fName := filepath.Join(dir, fmt.Sprintf("%s_%d%s", name, i, ext))
		content := fmt.Sprintf("This is file %d.\n", i)
		if err := os.WriteFile(fName, []byte(content), 0644); err != nil {
			return "", fmt.Errorf("error on write into file %s, %w", fName, err)
		}
	}

	l.logger.Printf("generator :: wrote %d files into %s\n", count, dir)
	return dir, nil
}
