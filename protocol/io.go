package protocol

import (
	"bufio"
	"io"
	"net"
	"time"
)

// Conn wraps a reliable byte stream with the blocking, length-preserving
// primitives spec §4.3 requires: SendAll/RecvAll guarantee full transfer or
// an error, and SendMessage/RecvMessage frame a header plus payload.
// Modeled on the teacher's rtmp.Protocol, which wraps its net.Conn in a
// bufio.Reader/bufio.Writer pair and never partially consumes a message.
type Conn struct {
	r  *bufio.Reader
	w  *bufio.Writer
	dl deadliner // nil if the wrapped stream doesn't support deadlines
}

// deadliner is the subset of net.Conn that lets Conn bound how long a single
// message exchange may block. bytes.Buffer-backed test fakes don't
// implement it; net.Conn (including net.Pipe's halves) does.
type deadliner interface {
	SetDeadline(t time.Time) error
}

// NewConn wraps rw (typically a *net.TCPConn, or an io.ReadWriter such as
// net.Pipe's halves in tests) for framed message exchange.
func NewConn(rw io.ReadWriter) *Conn {
	c := &Conn{
		r: bufio.NewReader(rw),
		w: bufio.NewWriter(rw),
	}
	if dl, ok := rw.(deadliner); ok {
		c.dl = dl
	}
	return c
}

// setDeadline bounds the next message exchange to FT_TIMEOUT_SECONDS, per
// spec §5. A stream that doesn't support deadlines (plain io.ReadWriter test
// fakes) is left unbounded.
func (c *Conn) setDeadline() error {
	if c.dl == nil {
		return nil
	}
	return c.dl.SetDeadline(time.Now().Add(TimeoutSeconds * time.Second))
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}

// SendAll writes all of b, looping over partial writes, or returns a Send
// error (a Timeout error if the deadline set by the enclosing SendMessage
// expires first).
func (c *Conn) SendAll(b []byte) error {
	total := 0
	for total < len(b) {
		n, err := c.w.Write(b[total:])
		if err != nil {
			if isTimeout(err) {
				return NewError(KindTimeout, "send: %v", err)
			}
			return NewError(KindSend, "%v", err)
		}
		total += n
	}
	return nil
}

// RecvAll reads exactly len(b) bytes into b, or returns a Recv error (a
// Timeout error if the deadline set by the enclosing RecvMessage expires
// first). A zero-length read before b is filled is reported as the peer
// having closed the connection.
func (c *Conn) RecvAll(b []byte) error {
	_, err := io.ReadFull(c.r, b)
	if err == nil {
		return nil
	}
	if isTimeout(err) {
		return NewError(KindTimeout, "recv: %v", err)
	}
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return NewError(KindRecv, "peer closed connection: %v", err)
	}
	return NewError(KindRecv, "%v", err)
}

// SendMessage writes a header for msgType/seq/payload followed by payload
// itself, flushing the underlying writer. The whole exchange is bounded by
// one FT_TIMEOUT_SECONDS deadline, per spec §5/§4.6.
func (c *Conn) SendMessage(msgType MessageType, seq uint64, payload []byte) error {
	if err := c.setDeadline(); err != nil {
		return NewError(KindSend, "set deadline: %v", err)
	}

	h := NewHeader(msgType, seq, uint64(len(payload)))
	hdr := EncodeHeader(h)

	if err := c.SendAll(hdr[:]); err != nil {
		return err
	}
	if len(payload) > 0 {
		if err := c.SendAll(payload); err != nil {
			return err
		}
	}
	if err := c.w.Flush(); err != nil {
		if isTimeout(err) {
			return NewError(KindTimeout, "send: %v", err)
		}
		return NewError(KindSend, "%v", err)
	}
	return nil
}

// RecvMessage reads and validates a header, then reads its payload iff
// payload_size <= maxPayload, per spec §4.3. A header whose payload_size
// exceeds maxPayload fails with a Protocol error without consuming the
// payload bytes (the connection should be treated as unrecoverable from
// that point, since the reader's position within the oversized payload is
// otherwise unknown). The whole exchange is bounded by one
// FT_TIMEOUT_SECONDS deadline, per spec §5/§4.6.
func (c *Conn) RecvMessage(maxPayload int) (MessageHeader, []byte, error) {
	if err := c.setDeadline(); err != nil {
		return MessageHeader{}, nil, NewError(KindRecv, "set deadline: %v", err)
	}

	var hdrBuf [HeaderSize]byte
	if err := c.RecvAll(hdrBuf[:]); err != nil {
		return MessageHeader{}, nil, err
	}

	h, err := ValidateHeader(hdrBuf)
	if err != nil {
		return h, nil, err
	}

	if h.PayloadSize > uint64(maxPayload) {
		return h, nil, NewError(KindProtocol, "payload_size %d exceeds max %d for %v", h.PayloadSize, maxPayload, h.MsgType)
	}

	payload := make([]byte, h.PayloadSize)
	if len(payload) > 0 {
		if err := c.RecvAll(payload); err != nil {
			return h, nil, err
		}
	}

	return h, payload, nil
}
