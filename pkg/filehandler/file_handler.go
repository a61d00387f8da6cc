package filehandler

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrForbidden     = errors.New("forbidden")
	ErrAssetNotFound = errors.New("static file not found")
)

// Page names, read verbatim from the static directory.
const (
	SinglePage  = "index.html"
	GatewayPage = "gateway.html"
)

// Asset is one file served from the static directory.
type Asset struct {
	Name        string
	ContentType string
	Body        []byte
}

func (a Asset) String() string {
	return fmt.Sprintf("asset :: name: %s, type: %s, size: %d", a.Name, a.ContentType, len(a.Body))
}

// Handler
// serves the html pages and static assets of the browser ui. Nothing is
// cached, edits to the static directory show up on the next request.
type Handler struct {
	path   string
	logger *log.Logger
}

func NewHandler(path string, logger *log.Logger) (*Handler, error) {
	logger.Printf("NEW handler :: static assets on path %s\n", path)

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	// a missing directory is not fatal, pages report it per request.
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	return &Handler{
		path:   abs,
		logger: logger,
	}, nil
}

func (h *Handler) Path() string {
	return h.path
}

// Page returns the named html page unmodified.
func (h *Handler) Page(name string) ([]byte, error) {
	a, err := h.Open(name)
	if err != nil {
		return nil, err
	}
	return a.Body, nil
}

// Open reads rel from the static directory. Paths that leave the directory
// give ErrForbidden, missing files and directories give ErrAssetNotFound.
func (h *Handler) Open(rel string) (*Asset, error) {
	name, err := h.resolve(rel)
	if err != nil {
		return nil, err
	}

	fi, err := os.Stat(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, rel)
		}
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, rel)
	}

	body, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}

	return &Asset{
		Name:        rel,
		ContentType: contentType(name),
		Body:        body,
	}, nil
}

func (h *Handler) resolve(rel string) (string, error) {
	rel = strings.TrimPrefix(filepath.ToSlash(rel), "/")
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		h.logger.Printf("handler error :: rejected static path %q\n", rel)
		return "", fmt.Errorf("%w: %s", ErrForbidden, rel)
	}

	name := filepath.Join(h.path, clean)
	resolved, err := filepath.EvalSymlinks(name)
	if err != nil {
		// missing files are reported by the caller's stat.
		return name, nil
	}

	r, err := filepath.Rel(h.path, resolved)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		h.logger.Printf("handler error :: static path %q escapes %s\n", rel, h.path)
		return "", fmt.Errorf("%w: %s", ErrForbidden, rel)
	}

	return resolved, nil
}

func contentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".css":
		return "text/css; charset=utf-8"
	case ".js":
		return "text/javascript; charset=utf-8"
	case ".html":
		return "text/html; charset=utf-8"
	}
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
