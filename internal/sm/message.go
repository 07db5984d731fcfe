// Package sm defines the contract types shared by every state-machine module
// and the host that runs it: the opaque Message a handler consumes or emits,
// and the Result each entry point or input handler returns.
//
// The package has no dependencies on the host. A module can be written and
// unit tested against these types alone.
package sm

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrShortMessage is returned by the framing helpers when a message holds
// fewer bytes than the requested field needs.
var ErrShortMessage = errors.New("message too short")

// Message is an immutable byte sequence of arbitrary length, zero included.
//
// It is backed by a string so one value can be handed to every recipient of
// an emission as a shared read-only view. The zero value is an empty message.
type Message struct {
	data string
}

// Empty is the zero-length message.
var Empty = Message{}

// NewMessage copies b into a new Message. Later writes to b are not visible
// through the message.
func NewMessage(b []byte) Message {
	return Message{data: string(b)}
}

// MessageFromString wraps s without copying.
func MessageFromString(s string) Message {
	return Message{data: s}
}

// Len returns the number of bytes in the message.
func (m Message) Len() int { return len(m.data) }

// IsEmpty reports whether the message has zero length.
func (m Message) IsEmpty() bool { return len(m.data) == 0 }

// Bytes returns a copy of the message contents.
func (m Message) Bytes() []byte { return []byte(m.data) }

// Raw returns the message contents as a string without copying.
func (m Message) Raw() string { return m.data }

// Equal reports whether two messages hold the same bytes.
func (m Message) Equal(other Message) bool { return m.data == other.data }

// String renders the message as hex, which is what log lines want for
// opaque payloads.
func (m Message) String() string { return hex.EncodeToString([]byte(m.data)) }

// need checks that n bytes are available at off.
func (m Message) need(off, n int) error {
	if off < 0 || off+n > len(m.data) {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortMessage, n, off, len(m.data))
	}
	return nil
}

// Uint16LE decodes a little-endian 16-bit integer starting at off.
func (m Message) Uint16LE(off int) (uint16, error) {
	if err := m.need(off, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16([]byte(m.data[off : off+2])), nil
}

// Uint32LE decodes a little-endian 32-bit integer starting at off.
func (m Message) Uint32LE(off int) (uint32, error) {
	if err := m.need(off, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32([]byte(m.data[off : off+4])), nil
}

// EncodeUint16LE returns a two byte message holding v in little-endian order.
func EncodeUint16LE(v uint16) Message {
	return NewMessage(binary.LittleEndian.AppendUint16(nil, v))
}

// EncodeUint32LE returns a four byte message holding v in little-endian order.
func EncodeUint32LE(v uint32) Message {
	return NewMessage(binary.LittleEndian.AppendUint32(nil, v))
}
