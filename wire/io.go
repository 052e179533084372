package wire

import "io"

// Conn reads and writes whole Messages over an underlying byte stream,
// pairing the frame codec (frame.go) with the message codec (message.go).
// It is stateless beyond the underlying reader/writer and safe to wrap
// around either end of a socket pair.
type Conn struct {
	r io.Reader
	w io.Writer
}

// NewConn wraps a stream (typically the parent or child end of a
// connected socket pair) for framed message exchange.
func NewConn(rw io.ReadWriter) *Conn {
	return &Conn{r: rw, w: rw}
}

// NewConnRW wraps separate reader and writer halves, for tests that model
// the two directions independently (e.g. io.Pipe pairs).
func NewConnRW(r io.Reader, w io.Writer) *Conn {
	return &Conn{r: r, w: w}
}

// WriteMessage encodes m and writes it as a single frame.
func (c *Conn) WriteMessage(m Message) error {
	f, err := Encode(m)
	if err != nil {
		return err
	}
	return EncodeFrame(c.w, f)
}

// ReadMessage reads the next frame and decodes it to a Message.
func (c *Conn) ReadMessage() (Message, error) {
	f, err := DecodeFrame(c.r)
	if err != nil {
		return nil, err
	}
	return Decode(f)
}
