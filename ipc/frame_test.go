package ipc

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func TestEncodeFrame_RoundTrip(t *testing.T) {
	payload := []byte("hello frame")
	framed := EncodeFrame(payload)

	dec := NewFrameDecoder(bytes.NewReader(framed))
	got, err := dec.ReadFrame()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("expected %q, got %q", payload, got)
	}
}

func TestFrameDecoder_ReadFrame_EOF(t *testing.T) {
	dec := NewFrameDecoder(bytes.NewReader(nil))
	if _, err := dec.ReadFrame(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestFrameDecoder_ReadFrame_PartialLengthPrefix(t *testing.T) {
	dec := NewFrameDecoder(bytes.NewReader([]byte{0x00, 0x01}))
	_, err := dec.ReadFrame()
	var frameErr *FrameError
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !errors.As(err, &frameErr) || frameErr.Kind != FrameErrorPartial {
		t.Fatalf("expected FrameErrorPartial, got %v", err)
	}
}

func TestFrameDecoder_ReadFrame_PartialPayload(t *testing.T) {
	buf := EncodeFrame([]byte("0123456789"))
	truncated := buf[:len(buf)-3]
	dec := NewFrameDecoder(bytes.NewReader(truncated))
	_, err := dec.ReadFrame()
	var frameErr *FrameError
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !errors.As(err, &frameErr) || frameErr.Kind != FrameErrorPartial {
		t.Fatalf("expected FrameErrorPartial, got %v", err)
	}
}

func TestFrameDecoder_ReadFrame_TooLarge(t *testing.T) {
	oversized := make([]byte, LengthPrefixSize)
	// Encode a length prefix claiming a payload larger than MaxPayloadSize,
	// without actually allocating that much data.
	oversized[0] = 0xFF
	oversized[1] = 0xFF
	oversized[2] = 0xFF
	oversized[3] = 0xFF
	dec := NewFrameDecoder(bytes.NewReader(oversized))
	_, err := dec.ReadFrame()
	var frameErr *FrameError
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !errors.As(err, &frameErr) || frameErr.Kind != FrameErrorTooLarge {
		t.Fatalf("expected FrameErrorTooLarge, got %v", err)
	}
}

func TestEncodeActionRequest_ReadActionReply(t *testing.T) {
	req := &ActionRequest{ActionID: "notify", TraceID: "trace-1", PayloadJSON: []byte(`{"to":"a@b.c"}`)}
	framed, err := EncodeActionRequest(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dec := NewFrameDecoder(bytes.NewReader(framed))
	payload, err := dec.ReadFrame()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(payload) == 0 {
		t.Fatalf("expected non-empty payload")
	}

	retry := false
	reply := &ActionReply{OK: true, Message: "sent", Retry: &retry}
	replyPayload, err := msgpack.Marshal(reply)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	replDec := NewFrameDecoder(bytes.NewReader(EncodeFrame(replyPayload)))
	got, err := replDec.ReadActionReply()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.OK || got.Message != "sent" || got.Retry == nil || *got.Retry {
		t.Fatalf("unexpected decoded reply: %+v", got)
	}
}
