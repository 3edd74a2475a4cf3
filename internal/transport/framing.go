package transport

import (
	"encoding/binary"
	"fmt"
	"io"
)

// writeFramedMessage encodes msg as: u32 frame-count, then per frame a u32
// length followed by the frame bytes. Used by the tcp backend for Router,
// Dealer, Pub and Sub sockets, which exchange discrete multi-part messages
// rather than raw byte streams (Stream sockets bypass this entirely, since
// their whole point is exposing unframed bytes to the protocol parsers).
func writeFramedMessage(w io.Writer, msg Message) error {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(msg)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	for _, frame := range msg {
		binary.BigEndian.PutUint32(hdr[:], uint32(len(frame)))
		if _, err := w.Write(hdr[:]); err != nil {
			return err
		}
		if len(frame) > 0 {
			if _, err := w.Write(frame); err != nil {
				return err
			}
		}
	}
	return nil
}

const maxFrameSize = 64 << 20 // 64MB sanity cap against corrupt framing

func readFramedMessage(r io.Reader) (Message, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	count := binary.BigEndian.Uint32(hdr[:])
	msg := make(Message, 0, count)
	for i := uint32(0); i < count; i++ {
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return nil, err
		}
		n := binary.BigEndian.Uint32(hdr[:])
		if n > maxFrameSize {
			return nil, fmt.Errorf("transport: frame of %d bytes exceeds sanity cap", n)
		}
		frame := make([]byte, n)
		if n > 0 {
			if _, err := io.ReadFull(r, frame); err != nil {
				return nil, err
			}
		}
		msg = append(msg, frame)
	}
	return msg, nil
}
