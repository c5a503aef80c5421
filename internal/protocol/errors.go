package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrEncoding = errors.New("frame encoding failed")
	ErrDecoding = errors.New("frame decoding failed")
)

// EncodingError describes why a frame could not be serialized.
type EncodingError struct {
	Kind   Kind
	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode %s: %s", e.Kind, e.Reason)
}

func (e *EncodingError) Unwrap() error { return ErrEncoding }

// DecodingError describes why a byte sequence is not a valid frame.
type DecodingError struct {
	Len    int // length of the rejected input
	Reason string
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("decode %d bytes: %s", e.Len, e.Reason)
}

func (e *DecodingError) Unwrap() error { return ErrDecoding }

func encodingErr(k Kind, format string, args ...any) error {
	return &EncodingError{Kind: k, Reason: fmt.Sprintf(format, args...)}
}

func decodingErr(data []byte, format string, args ...any) error {
	return &DecodingError{Len: len(data), Reason: fmt.Sprintf(format, args...)}
}
