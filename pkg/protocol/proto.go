package protocol

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/ManouchehrRasoulli/fsbrowser/internal"
)

/*
	server-sent event stream, one frame per blank line terminated block.

	            A  con <------------------- GET /events   B
	            A : connected ----------------------------> B
	            A event: fschange, data: {...} ----------> B
	            A : ping (every heartbeat) ---------------> B
*/

const (
	ChangeEvent = "fschange"
	ContentType = "text/event-stream; charset=utf-8"
)

var (
	Connected = []byte(": connected\n\n")
	Heartbeat = []byte(": ping\n\n")
)

var ErrMalformedFrame = errors.New("malformed event stream frame")

// ChangePayload is the JSON body of a fschange event.
type ChangePayload struct {
	EventType   string `json:"event_type"`
	IsDirectory bool   `json:"is_directory"`
	Path        string `json:"path"`
}

// Envelope wraps a payload for transports without native event names.
type Envelope struct {
	Event string        `json:"event"`
	Data  ChangePayload `json:"data"`
}

func NewChangePayload(e internal.ChangeEvent) ChangePayload {
	return ChangePayload{
		EventType:   string(e.Kind),
		IsDirectory: e.IsDirectory,
		Path:        e.Path,
	}
}

// EncodeChange renders a change event as a complete event stream frame.
func EncodeChange(e internal.ChangeEvent) ([]byte, error) {
	data, err := json.Marshal(NewChangePayload(e))
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	b.Grow(len(data) + len(ChangeEvent) + 16)
	b.WriteString("event: ")
	b.WriteString(ChangeEvent)
	b.WriteString("\ndata: ")
	b.Write(data)
	b.WriteString("\n\n")
	return b.Bytes(), nil
}

// Frame
// one dispatched block of the stream. Comment only frames have an empty Event
// and Data.
type Frame struct {
	Event   string
	Data    []byte
	Comment string
}

func (f Frame) IsComment() bool {
	return f.Event == "" && len(f.Data) == 0
}

// Change decodes the frame data as a change payload.
func (f Frame) Change() (ChangePayload, error) {
	p := ChangePayload{}
	if f.Event != ChangeEvent {
		return p, errors.Join(ErrMalformedFrame, errors.New("not a "+ChangeEvent+" frame: "+f.Event))
	}
	err := json.Unmarshal(f.Data, &p)
	if err != nil {
		return p, errors.Join(ErrMalformedFrame, err)
	}
	return p, nil
}

type Reader struct {
	r *bufio.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next blocks until a full frame has been read. Fields other than event,
// data and comments are skipped.
func (r *Reader) Next() (Frame, error) {
	f := Frame{}
	var data [][]byte
	started := false

	for {
		line, err := r.r.ReadString('\n')
		if err != nil {
			if err == io.EOF && started {
				return f, io.ErrUnexpectedEOF
			}
			return f, err
		}
		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			if !started {
				continue
			}
			f.Data = bytes.Join(data, []byte("\n"))
			return f, nil
		}
		started = true

		if strings.HasPrefix(line, ":") {
			f.Comment = strings.TrimSpace(line[1:])
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			f.Event = value
		case "data":
			data = append(data, []byte(value))
		}
	}
}
