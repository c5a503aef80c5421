// Package protocol defines the frame format shared by every radio link.
package protocol

import "fmt"

// Kind identifies what a frame carries.
type Kind uint8

// Frame kind tags.
const (
	KindText    Kind = 0x01 // UTF-8 text, length prefixed
	KindCommand Kind = 0x02 // signed 16-bit command code
	KindData    Kind = 0x03 // opaque bytes, length prefixed
	KindAck     Kind = 0x04 // acknowledges the id it carries
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "TEXT"
	case KindCommand:
		return "COMMAND"
	case KindData:
		return "DATA"
	case KindAck:
		return "ACK"
	default:
		return fmt.Sprintf("KIND(0x%02x)", uint8(k))
	}
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k >= KindText && k <= KindAck
}

const (
	// HeaderSize is the fixed header size: Kind(1) + ID(3).
	HeaderSize = 4

	// MaxBodyLen is the largest TEXT or DATA body the one byte length prefix allows.
	MaxBodyLen = 255

	// MaxFrameSize is the largest encoded frame.
	MaxFrameSize = HeaderSize + 1 + MaxBodyLen
)

// MessageID is a 24-bit message identifier allocated by the sender.
type MessageID uint32

const (
	// NoID is never allocated to an outgoing message.
	NoID MessageID = 0

	// MaxID is the largest value that fits the 3 byte id field.
	MaxID MessageID = 1<<24 - 1
)

func (id MessageID) String() string {
	return fmt.Sprintf("#%06x", uint32(id))
}

// Frame is one protocol message. Only the field matching Kind is meaningful.
type Frame struct {
	Kind    Kind
	ID      MessageID
	Text    string // KindText
	Command int16  // KindCommand
	Data    []byte // KindData
}

// NewText returns an unnumbered TEXT frame.
func NewText(text string) *Frame {
	return &Frame{Kind: KindText, Text: text}
}

// NewCommand returns an unnumbered COMMAND frame.
func NewCommand(cmd int16) *Frame {
	return &Frame{Kind: KindCommand, Command: cmd}
}

// NewData returns an unnumbered DATA frame. The payload is not copied.
func NewData(data []byte) *Frame {
	return &Frame{Kind: KindData, Data: data}
}

// NewAck returns an ACK frame for id.
func NewAck(id MessageID) *Frame {
	return &Frame{Kind: KindAck, ID: id}
}

// Equal reports whether two frames encode to the same bytes.
func (f *Frame) Equal(o *Frame) bool {
	if f == nil || o == nil {
		return f == o
	}
	if f.Kind != o.Kind || f.ID != o.ID {
		return false
	}
	switch f.Kind {
	case KindText:
		return f.Text == o.Text
	case KindCommand:
		return f.Command == o.Command
	case KindData:
		return string(f.Data) == string(o.Data)
	default:
		return true
	}
}

func (f *Frame) String() string {
	switch f.Kind {
	case KindText:
		return fmt.Sprintf("%s %s %q", f.Kind, f.ID, f.Text)
	case KindCommand:
		return fmt.Sprintf("%s %s %d", f.Kind, f.ID, f.Command)
	case KindData:
		return fmt.Sprintf("%s %s %d bytes", f.Kind, f.ID, len(f.Data))
	default:
		return fmt.Sprintf("%s %s", f.Kind, f.ID)
	}
}
