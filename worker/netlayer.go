package worker

import (
	"fmt"

	"github.com/enderdzz/cn3-simulator/simerr"
	"github.com/enderdzz/cn3-simulator/wire"
)

// netLayer simulates the network layer on one side of a worker: an infinite
// source of strictly-incrementing packets to send, and a sink on the other
// side that insists on receiving them in that same order.
type netLayer struct {
	nextPkt      uint32
	lastDelivered uint32 // sentinel ^uint32(0) means "nothing delivered yet"
	accepted     int
}

func newNetLayer() *netLayer {
	return &netLayer{lastDelivered: ^uint32(0)}
}

// fetch hands back the next packet to transmit, tagging it with the
// monotonic counter that deliver checks on the far end.
func (n *netLayer) fetch() wire.Packet {
	var p wire.Packet
	wire.PutPacketCounter(&p, n.nextPkt)
	n.nextPkt++
	return p
}

// deliver hands an inbound packet to the network layer, failing with a
// ProtocolViolation if the protocol above delivered it out of order — the
// one correctness property every protocol must uphold regardless of how it
// gets there.
func (n *netLayer) deliver(p wire.Packet) error {
	num := wire.PacketCounter(p)
	want := n.lastDelivered + 1
	if num != want {
		return simerr.New(simerr.ProtocolViolation, outOfOrderError{want: want, got: num})
	}
	n.lastDelivered = num
	n.accepted++
	return nil
}

type outOfOrderError struct {
	want, got uint32
}

func (e outOfOrderError) Error() string {
	return fmt.Sprintf("worker: packet delivered out of order: expected payload %d but got %d", e.want, e.got)
}
