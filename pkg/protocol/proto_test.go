package protocol

import (
	"io"
	"strings"
	"testing"

	"github.com/ManouchehrRasoulli/fsbrowser/internal"
	"github.com/stretchr/testify/require"
)

func TestEncodeChange(t *testing.T) {
	frame, err := EncodeChange(internal.ChangeEvent{
		Kind:        internal.Created,
		IsDirectory: false,
		Path:        "/srv/desktop/b.txt",
	})
	require.NoError(t, err)
	require.Equal(t,
		"event: fschange\ndata: {\"event_type\":\"created\",\"is_directory\":false,\"path\":\"/srv/desktop/b.txt\"}\n\n",
		string(frame))
}

func TestReader_Stream(t *testing.T) {
	frame, err := EncodeChange(internal.ChangeEvent{Kind: internal.Deleted, IsDirectory: true, Path: "/srv/pictures/2024"})
	require.NoError(t, err)

	stream := string(Connected) + string(frame) + string(Heartbeat)
	r := NewReader(strings.NewReader(stream))

	f, err := r.Next()
	require.NoError(t, err)
	require.True(t, f.IsComment())
	require.Equal(t, "connected", f.Comment)

	f, err = r.Next()
	require.NoError(t, err)
	require.False(t, f.IsComment())
	p, err := f.Change()
	require.NoError(t, err)
	require.Equal(t, ChangePayload{EventType: "deleted", IsDirectory: true, Path: "/srv/pictures/2024"}, p)

	f, err = r.Next()
	require.NoError(t, err)
	require.Equal(t, "ping", f.Comment)

	_, err = r.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestReader_MultiLineDataAndCRLF(t *testing.T) {
	r := NewReader(strings.NewReader("id: 7\r\nevent: other\r\ndata: a\r\ndata: b\r\n\r\n"))

	f, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, "other", f.Event)
	require.Equal(t, "a\nb", string(f.Data))

	_, err = f.Change()
	require.ErrorIs(t, err, ErrMalformedFrame)
}

func TestReader_TruncatedFrame(t *testing.T) {
	r := NewReader(strings.NewReader("event: fschange\ndata: {"))

	_, err := r.Next()
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
