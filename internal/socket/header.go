package socket

import (
	"encoding/binary"
	"errors"
	"io"
)

const HeaderSize = 9

var (
	ErrInvalidHeader   = errors.New("invalid packet header")
	ErrPayloadTooLarge = errors.New("payload too large")
)

// The packet header
type Header struct {
	Action Action
	Len    uint64 // Payload size
}

func (h *Header) MarshalBytes() ([]byte, error) {
	buf := make([]byte, HeaderSize)
	h.put(buf)
	return buf, nil
}

func (h *Header) put(buf []byte) {
	buf[0] = byte(h.Action)
	binary.BigEndian.PutUint64(buf[1:HeaderSize], h.Len)
}

func (h *Header) UnmarshalBytes(buf []byte) error {
	if len(buf) < HeaderSize {
		return ErrInvalidHeader
	}

	h.Action = Action(buf[0])
	h.Len = binary.BigEndian.Uint64(buf[1:HeaderSize])
	return nil
}

func UnmarshalHeader(buf []byte) (Header, error) {
	var h Header
	err := h.UnmarshalBytes(buf)
	return h, err
}

// EncodeFrame returns header and payload as one slice so a frame goes out
// in a single write.
func EncodeFrame(action Action, payload []byte) []byte {
	buf := make([]byte, HeaderSize+len(payload))
	h := Header{Action: action, Len: uint64(len(payload))}
	h.put(buf)
	copy(buf[HeaderSize:], payload)
	return buf
}

// ReadFrame reads one frame, refusing payloads larger than max.
func ReadFrame(r io.Reader, max uint64) (Header, []byte, error) {
	var hb [HeaderSize]byte
	if _, err := io.ReadFull(r, hb[:]); err != nil {
		return Header{}, nil, err
	}

	h, err := UnmarshalHeader(hb[:])
	if err != nil {
		return Header{}, nil, err
	}
	if h.Len > max {
		return h, nil, ErrPayloadTooLarge
	}

	payload := make([]byte, h.Len)
	if _, err := io.ReadFull(r, payload); err != nil {
		return h, nil, err
	}
	return h, payload, nil
}
