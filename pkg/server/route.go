package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/ManouchehrRasoulli/fsbrowser/internal"
	"github.com/ManouchehrRasoulli/fsbrowser/pkg"
	"github.com/ManouchehrRasoulli/fsbrowser/pkg/filehandler"
	"github.com/ManouchehrRasoulli/fsbrowser/pkg/metrics"
)

const (
	ContentTypeHTML = "text/html; charset=utf-8"
	ContentTypeJSON = "application/json; charset=utf-8"
	ContentTypeText = "text/plain; charset=utf-8"
)

// Response is what Route produces for a request, the transport only copies
// it onto the wire.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

func (r Response) String() string {
	return fmt.Sprintf("response :: status: %d, type: %s, size: %d", r.Status, r.ContentType, len(r.Body))
}

var notFound = Response{
	Status:      http.StatusNotFound,
	ContentType: ContentTypeText,
	Body:        []byte("404 Not Found"),
}

// Router maps method and path onto pages, listings and the write stubs. It
// keeps no state between calls.
type Router struct {
	port          int
	defaultFolder string
	lister        *internal.Lister
	assets        *filehandler.Handler
	logger        *log.Logger
}

func NewRouter(port int, defaultFolder string, lister *internal.Lister, assets *filehandler.Handler, logger *log.Logger) *Router {
	return &Router{
		port:          port,
		defaultFolder: defaultFolder,
		lister:        lister,
		assets:        assets,
		logger:        logger,
	}
}

// Route dispatches one request. A non nil error means the request could not
// be served at all and becomes a 500 at the transport.
func (r *Router) Route(method, path string, query url.Values) (Response, error) {
	switch {
	case method == http.MethodGet && path == "/":
		if r.port == pkg.GatewayPort {
			return r.page(filehandler.GatewayPage)
		}
		return r.page(filehandler.SinglePage)
	case method == http.MethodGet && path == "/single":
		return r.page(filehandler.SinglePage)
	case method == http.MethodGet && path == "/api/list":
		return r.list(query)
	case method == http.MethodPost && path == "/api/create":
		return r.ack(r.lister.CreateFolder(query.Get("path"), query.Get("name")))
	case (method == http.MethodPost || method == http.MethodDelete) && path == "/api/delete":
		return r.ack(r.lister.DeleteItem(query.Get("path"), query.Get("name")))
	case method == http.MethodPost && path == "/api/rename":
		return r.ack(r.lister.RenameItem(query.Get("path"), query.Get("old"), query.Get("new")))
	}

	return notFound, nil
}

func (r *Router) page(name string) (Response, error) {
	body, err := r.assets.Page(name)
	if err != nil {
		return Response{}, err
	}
	return Response{Status: http.StatusOK, ContentType: ContentTypeHTML, Body: body}, nil
}

func (r *Router) list(query url.Values) (Response, error) {
	key := query.Get("path")
	if key == "" {
		key = r.defaultFolder
	}

	start := time.Now()
	entries, err := r.lister.List(key)
	duration := time.Since(start)
	metrics.ObserveList(start, err)

	r.logger.Printf("server :: list report --> {port: %d, path: /api/list?path=%s, items: %d, duration: %.2fms}\n",
		r.port, key, len(entries), float64(duration.Microseconds())/1000.0)

	if err != nil {
		r.logger.Printf("server error :: list %q, %v\n", key, err)
		return r.encode(http.StatusNotFound, map[string]string{"error": listError(key, err)})
	}

	return r.encode(http.StatusOK, entries)
}

func (r *Router) ack(a internal.Ack) (Response, error) {
	return r.encode(http.StatusOK, a)
}

func (r *Router) encode(status int, v any) (Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return Response{}, err
	}
	return Response{Status: status, ContentType: ContentTypeJSON, Body: body}, nil
}

// listError keeps the message shown to clients to the error kind, the wrapped
// os details only go to the log.
func listError(key string, err error) string {
	switch {
	case errors.Is(err, internal.ErrNotFound):
		return fmt.Sprintf("folder %q not found", key)
	case errors.Is(err, internal.ErrAccessDenied):
		return internal.ErrAccessDenied.Error()
	case errors.Is(err, internal.ErrPermissionDenied):
		return internal.ErrPermissionDenied.Error()
	default:
		return internal.ErrInvalidPath.Error()
	}
}
