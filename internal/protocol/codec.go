package protocol

import (
	"encoding/binary"
	"unicode/utf8"
)

// Encode serializes f, bounded only by MaxFrameSize.
func Encode(f *Frame) ([]byte, error) {
	return EncodeLimit(f, MaxFrameSize)
}

// EncodeLimit serializes f and fails if the result would exceed limit bytes.
// Links pass their own ceiling so an oversized frame never reaches the radio.
func EncodeLimit(f *Frame, limit int) ([]byte, error) {
	if f == nil {
		return nil, encodingErr(0, "nil frame")
	}
	if f.ID > MaxID {
		return nil, encodingErr(f.Kind, "id %d exceeds 24 bits", uint32(f.ID))
	}

	var body []byte
	switch f.Kind {
	case KindText:
		if !utf8.ValidString(f.Text) {
			return nil, encodingErr(f.Kind, "text is not valid UTF-8")
		}
		body = []byte(f.Text)
	case KindData:
		body = f.Data
	case KindCommand, KindAck:
	default:
		return nil, encodingErr(f.Kind, "unknown kind")
	}
	if len(body) > MaxBodyLen {
		return nil, encodingErr(f.Kind, "payload of %d bytes exceeds %d", len(body), MaxBodyLen)
	}

	size := HeaderSize
	switch f.Kind {
	case KindText, KindData:
		size += 1 + len(body)
	case KindCommand:
		size += 2
	}
	if size > limit {
		return nil, encodingErr(f.Kind, "frame of %d bytes exceeds link limit %d", size, limit)
	}

	buf := make([]byte, size)
	buf[0] = byte(f.Kind)
	putID(buf[1:HeaderSize], f.ID)
	switch f.Kind {
	case KindText, KindData:
		buf[HeaderSize] = byte(len(body))
		copy(buf[HeaderSize+1:], body)
	case KindCommand:
		binary.BigEndian.PutUint16(buf[HeaderSize:], uint16(f.Command))
	}
	return buf, nil
}

// Decode parses one frame. The returned frame never aliases data.
func Decode(data []byte) (*Frame, error) {
	if len(data) < HeaderSize {
		return nil, decodingErr(data, "truncated header (need %d bytes)", HeaderSize)
	}
	f := &Frame{
		Kind: Kind(data[0]),
		ID:   readID(data[1:HeaderSize]),
	}
	rest := data[HeaderSize:]

	switch f.Kind {
	case KindText, KindData:
		if len(rest) < 1 {
			return nil, decodingErr(data, "missing %s length", f.Kind)
		}
		n := int(rest[0])
		if len(rest)-1 < n {
			return nil, decodingErr(data, "%s length %d but %d bytes follow", f.Kind, n, len(rest)-1)
		}
		if len(rest)-1 > n {
			return nil, decodingErr(data, "%d trailing bytes", len(rest)-1-n)
		}
		body := rest[1:]
		if f.Kind == KindText {
			if !utf8.Valid(body) {
				return nil, decodingErr(data, "text is not valid UTF-8")
			}
			f.Text = string(body)
		} else {
			f.Data = make([]byte, n)
			copy(f.Data, body)
		}
	case KindCommand:
		if len(rest) < 2 {
			return nil, decodingErr(data, "truncated command")
		}
		if len(rest) > 2 {
			return nil, decodingErr(data, "%d trailing bytes", len(rest)-2)
		}
		f.Command = int16(binary.BigEndian.Uint16(rest))
	case KindAck:
		if len(rest) > 0 {
			return nil, decodingErr(data, "%d trailing bytes", len(rest))
		}
	default:
		return nil, decodingErr(data, "unknown kind 0x%02x", data[0])
	}
	return f, nil
}

func putID(b []byte, id MessageID) {
	b[0] = byte(id >> 16)
	b[1] = byte(id >> 8)
	b[2] = byte(id)
}

func readID(b []byte) MessageID {
	return MessageID(b[0])<<16 | MessageID(b[1])<<8 | MessageID(b[2])
}
