package wire

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// Encode produces the raw byte image of f: one kind byte, big-endian seq,
// big-endian ack, then the packet payload, in that order and with no framing
// delimiters. A reader always consumes exactly Size bytes per frame.
func Encode(f Frame) []byte {
	buf := make([]byte, 0, Size)
	buf = append(buf, byte(f.Kind))
	buf = binary.BigEndian.AppendUint32(buf, f.Seq)
	buf = binary.BigEndian.AppendUint32(buf, f.Ack)
	buf = append(buf, f.Info.Data[:]...)
	return buf
}

// Decode parses the raw byte image produced by Encode.
func Decode(b []byte) (Frame, error) {
	if len(b) != Size {
		return Frame{}, errors.Errorf("wire: expected %d bytes, got %d", Size, len(b))
	}
	r := bytes.NewReader(b)
	var f Frame
	kind, _ := r.ReadByte()
	f.Kind = FrameKind(kind)
	if err := binary.Read(r, binary.BigEndian, &f.Seq); err != nil {
		return Frame{}, errors.Wrap(err, "wire: decode seq")
	}
	if err := binary.Read(r, binary.BigEndian, &f.Ack); err != nil {
		return Frame{}, errors.Wrap(err, "wire: decode ack")
	}
	if _, err := r.Read(f.Info.Data[:]); err != nil {
		return Frame{}, errors.Wrap(err, "wire: decode payload")
	}
	return f, nil
}

// PutPacketCounter writes num, big-endian, into p's payload. This is the
// sender network-layer pump's only write: the packet's sole semantic content
// is this counter.
func PutPacketCounter(p *Packet, num uint32) {
	binary.BigEndian.PutUint32(p.Data[:], num)
}

// PacketCounter extracts the big-endian counter from a packet's payload.
func PacketCounter(p Packet) uint32 {
	return binary.BigEndian.Uint32(p.Data[:])
}
