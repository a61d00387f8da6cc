package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/ManouchehrRasoulli/fsbrowser/pkg/protocol"
)

var (
	ErrUnexpectedStatus    = errors.New("unexpected response status")
	ErrClientReadFrame     = errors.New("failed to read event stream frame")
	ErrClientDecodePayload = errors.New("failed to decode change payload")
)

// Handler receives every change event read from the stream.
type Handler func(p protocol.ChangePayload)

// Client
// follows the /events stream of a running server.
type Client struct {
	address string
	logger  *log.Logger
	http    *http.Client
}

// NewClient takes the server base url, e.g. http://192.168.1.20:8080.
func NewClient(address string, logger *log.Logger) *Client {
	return &Client{
		address: strings.TrimSuffix(address, "/"),
		logger:  logger,
		http:    &http.Client{},
	}
}

// Run reads change events until ctx is cancelled or the server ends the
// stream. A cancelled ctx is not an error.
func (c *Client) Run(ctx context.Context, handle Handler) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.address+"/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", protocol.ContentType)

	res, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return errors.Join(ErrUnexpectedStatus, fmt.Errorf("%s returned %s", req.URL, res.Status))
	}

	c.logger.Printf("client :: connected to host %s ...\n", c.address)

	r := protocol.NewReader(res.Body)
	for {
		f, err := r.Next()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				c.logger.Printf("client :: stream from %s closed\n", c.address)
				return nil
			}
			return errors.Join(ErrClientReadFrame, err)
		}

		if f.IsComment() {
			c.logger.Printf("client :: got comment %q\n", f.Comment)
			continue
		}
		if f.Event != protocol.ChangeEvent {
			c.logger.Printf("client :: skip event %q\n", f.Event)
			continue
		}

		p, err := f.Change()
		if err != nil {
			return errors.Join(ErrClientDecodePayload, err)
		}
		handle(p)
	}
}
