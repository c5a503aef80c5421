package protocol

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

// TestEncodeDecodeRoundTrip verifies that encoding and decoding are inverse operations
// for all frame kinds with boundary ids and payload sizes.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	testCases := []struct {
		name  string
		frame *Frame
	}{
		{"TEXT short", &Frame{Kind: KindText, ID: 1, Text: "hello"}},
		{"TEXT empty", &Frame{Kind: KindText, ID: 42, Text: ""}},
		{"TEXT multibyte", &Frame{Kind: KindText, ID: 0x0a0b0c, Text: "héllo, 世界"}},
		{"TEXT max length", &Frame{Kind: KindText, ID: MaxID, Text: strings.Repeat("x", MaxBodyLen)}},
		{"COMMAND zero", &Frame{Kind: KindCommand, ID: 7, Command: 0}},
		{"COMMAND positive", &Frame{Kind: KindCommand, ID: 8, Command: 32767}},
		{"COMMAND negative", &Frame{Kind: KindCommand, ID: 9, Command: -32768}},
		{"DATA empty", &Frame{Kind: KindData, ID: 10, Data: []byte{}}},
		{"DATA binary", &Frame{Kind: KindData, ID: 11, Data: []byte{0x00, 0xff, 0x7f, 0x80}}},
		{"DATA max length", &Frame{Kind: KindData, ID: 0x800000, Data: bytes.Repeat([]byte{0xaa}, MaxBodyLen)}},
		{"ACK", NewAck(0x123456)},
		{"ACK zero id", NewAck(NoID)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := Encode(tc.frame)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if len(encoded) > MaxFrameSize {
				t.Fatalf("encoded length %d exceeds %d", len(encoded), MaxFrameSize)
			}

			decoded, err := Decode(encoded)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if !decoded.Equal(tc.frame) {
				t.Errorf("round trip mismatch: got %v, want %v", decoded, tc.frame)
			}
		})
	}
}

// TestEncodeLayout pins the wire layout byte by byte.
func TestEncodeLayout(t *testing.T) {
	testCases := []struct {
		name  string
		frame *Frame
		want  []byte
	}{
		{"TEXT", &Frame{Kind: KindText, ID: 0x010203, Text: "hi"}, []byte{0x01, 0x01, 0x02, 0x03, 0x02, 'h', 'i'}},
		{"COMMAND", &Frame{Kind: KindCommand, ID: 0x000001, Command: -2}, []byte{0x02, 0x00, 0x00, 0x01, 0xff, 0xfe}},
		{"DATA", &Frame{Kind: KindData, ID: 0xffffff, Data: []byte{9}}, []byte{0x03, 0xff, 0xff, 0xff, 0x01, 0x09}},
		{"ACK", NewAck(0x00abcd), []byte{0x04, 0x00, 0xab, 0xcd}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Encode(tc.frame)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if !bytes.Equal(got, tc.want) {
				t.Errorf("got % x, want % x", got, tc.want)
			}
		})
	}
}

func TestEncodeErrors(t *testing.T) {
	testCases := []struct {
		name  string
		frame *Frame
		limit int
	}{
		{"nil frame", nil, MaxFrameSize},
		{"text too long", NewText(strings.Repeat("y", MaxBodyLen+1)), MaxFrameSize},
		{"data too long", NewData(make([]byte, MaxBodyLen+1)), MaxFrameSize},
		{"invalid utf-8", NewText(string([]byte{0xff, 0xfe})), MaxFrameSize},
		{"unknown kind", &Frame{Kind: 0x09}, MaxFrameSize},
		{"id over 24 bits", &Frame{Kind: KindAck, ID: MaxID + 1}, MaxFrameSize},
		{"link limit", NewData(make([]byte, 20)), 24},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := EncodeLimit(tc.frame, tc.limit)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrEncoding) {
				t.Errorf("error %v does not wrap ErrEncoding", err)
			}
			var encErr *EncodingError
			if !errors.As(err, &encErr) {
				t.Errorf("error %T is not *EncodingError", err)
			}
		})
	}
}

func TestEncodeLimitExactFit(t *testing.T) {
	// 4 header + 1 length + 20 body
	if _, err := EncodeLimit(NewData(make([]byte, 20)), 25); err != nil {
		t.Fatalf("frame of exactly the limit rejected: %v", err)
	}
}

// TestDecodeErrors verifies that malformed input is rejected with a DecodingError.
func TestDecodeErrors(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short header", []byte{0x01, 0x00, 0x00}},
		{"unknown kind", []byte{0x07, 0x00, 0x00, 0x01}},
		{"zero kind", []byte{0x00, 0x00, 0x00, 0x01}},
		{"text missing length", []byte{0x01, 0x00, 0x00, 0x01}},
		{"text length past end", []byte{0x01, 0x00, 0x00, 0x01, 0x05, 'a', 'b'}},
		{"text trailing bytes", []byte{0x01, 0x00, 0x00, 0x01, 0x01, 'a', 'b'}},
		{"text invalid utf-8", []byte{0x01, 0x00, 0x00, 0x01, 0x02, 0xc3, 0x28}},
		{"data length past end", []byte{0x03, 0x00, 0x00, 0x01, 0x02, 0x01}},
		{"command truncated", []byte{0x02, 0x00, 0x00, 0x01, 0x01}},
		{"command trailing", []byte{0x02, 0x00, 0x00, 0x01, 0x00, 0x01, 0x02}},
		{"ack trailing", []byte{0x04, 0x00, 0x00, 0x01, 0x00}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := Decode(tc.data)
			if err == nil {
				t.Fatalf("expected error, got frame %v", f)
			}
			if !errors.Is(err, ErrDecoding) {
				t.Errorf("error %v does not wrap ErrDecoding", err)
			}
		})
	}
}

// TestDecodeNeverPanics feeds every prefix of valid frames plus single byte
// corruptions through Decode.
func TestDecodeNeverPanics(t *testing.T) {
	seeds := []*Frame{
		NewText("hello"),
		NewCommand(5),
		NewData([]byte{1, 2, 3}),
		NewAck(3),
	}
	for _, f := range seeds {
		f.ID = 0x00beef
		enc, err := Encode(f)
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		for i := 0; i <= len(enc); i++ {
			_, _ = Decode(enc[:i])
		}
		for i := range enc {
			for _, b := range []byte{0x00, 0x7f, 0xff} {
				mut := append([]byte(nil), enc...)
				mut[i] = b
				_, _ = Decode(mut)
			}
		}
	}
}

func TestDecodeDoesNotAlias(t *testing.T) {
	enc, err := Encode(&Frame{Kind: KindData, ID: 1, Data: []byte{1, 2, 3}})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	f, err := Decode(enc)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	enc[HeaderSize+1] = 0xee
	if f.Data[0] != 1 {
		t.Errorf("decoded payload changed with input buffer: % x", f.Data)
	}
}
