// Package ipc implements the length-prefixed msgpack framing used to talk
// to a subprocess script executor (§12.2): one frame per Action request,
// one frame per reply.
package ipc

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Frame size constants.
const (
	// MaxFrameSize is the maximum frame size (16 MiB), including length prefix.
	MaxFrameSize = 16 * 1024 * 1024
	// MaxPayloadSize is the maximum payload size (MaxFrameSize - 4 bytes).
	MaxPayloadSize = MaxFrameSize - LengthPrefixSize
	// LengthPrefixSize is the size of the length prefix in bytes.
	LengthPrefixSize = 4
)

// FrameErrorKind classifies frame decoding errors.
type FrameErrorKind int

const (
	// FrameErrorPartial indicates a truncated or incomplete frame.
	FrameErrorPartial FrameErrorKind = iota
	// FrameErrorTooLarge indicates a frame exceeding MaxFrameSize.
	FrameErrorTooLarge
	// FrameErrorDecode indicates a msgpack decoding error.
	FrameErrorDecode
)

// FrameError represents a frame decoding error.
type FrameError struct {
	Kind FrameErrorKind
	Msg  string
	Err  error
}

func (e *FrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *FrameError) Unwrap() error { return e.Err }

// ActionRequest is the frame written to a script executor's stdin.
type ActionRequest struct {
	ActionID    string `msgpack:"action_id"`
	TraceID     string `msgpack:"trace_id,omitempty"`
	PayloadJSON []byte `msgpack:"payload_json"`
}

// ActionReply is the frame read back from a script executor's stdout.
type ActionReply struct {
	OK      bool   `msgpack:"ok"`
	Message string `msgpack:"message"`
	// Retry, when non-nil, sets whether an ok:false reply is retriable
	// (retriable when nil). It is not consulted when the process exits
	// non-zero or the frame does not decode; both are always retriable
	// (§12.2).
	Retry *bool `msgpack:"retry,omitempty"`
}

// FrameDecoder decodes length-prefixed msgpack frames from a stream.
type FrameDecoder struct {
	reader io.Reader
}

// NewFrameDecoder wraps r with bufio.Reader (unless already buffered) to
// reduce syscall overhead on unbuffered sources such as OS pipes.
func NewFrameDecoder(r io.Reader) *FrameDecoder {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &FrameDecoder{reader: br}
}

// ReadFrame reads one frame's raw msgpack payload from the stream.
func (d *FrameDecoder) ReadFrame() ([]byte, error) {
	var lengthBuf [LengthPrefixSize]byte
	if _, err := io.ReadFull(d.reader, lengthBuf[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, &FrameError{Kind: FrameErrorPartial, Msg: "failed to read length prefix", Err: err}
	}

	payloadSize := binary.BigEndian.Uint32(lengthBuf[:])
	if payloadSize > MaxPayloadSize {
		return nil, &FrameError{
			Kind: FrameErrorTooLarge,
			Msg:  fmt.Sprintf("payload size %d exceeds maximum %d", payloadSize, MaxPayloadSize),
		}
	}

	payload := make([]byte, payloadSize)
	if _, err := io.ReadFull(d.reader, payload); err != nil {
		return nil, &FrameError{Kind: FrameErrorPartial, Msg: "failed to read payload", Err: err}
	}
	return payload, nil
}

// ReadActionReply reads and decodes one ActionReply frame.
func (d *FrameDecoder) ReadActionReply() (*ActionReply, error) {
	payload, err := d.ReadFrame()
	if err != nil {
		return nil, err
	}
	var reply ActionReply
	if err := msgpack.Unmarshal(payload, &reply); err != nil {
		return nil, &FrameError{Kind: FrameErrorDecode, Msg: "failed to decode action reply", Err: err}
	}
	return &reply, nil
}

// EncodeFrame prefixes payload with its big-endian length.
func EncodeFrame(payload []byte) []byte {
	buf := make([]byte, LengthPrefixSize+len(payload))
	binary.BigEndian.PutUint32(buf[:LengthPrefixSize], uint32(len(payload)))
	copy(buf[LengthPrefixSize:], payload)
	return buf
}

// EncodeActionRequest encodes req as a length-prefixed msgpack frame.
func EncodeActionRequest(req *ActionRequest) ([]byte, error) {
	payload, err := msgpack.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode action request: %w", err)
	}
	return EncodeFrame(payload), nil
}
