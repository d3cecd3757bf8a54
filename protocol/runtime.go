// Package protocol implements the six data-link protocols as pure functions
// of a Runtime: each protocol function blocks on Runtime.WaitForEvent and
// reacts to whatever event comes back, exactly as in the textbook
// pseudocode it is ported from. None of the six protocol functions touch a
// channel, a goroutine, or a clock directly — that is the worker's job.
package protocol

import "github.com/enderdzz/cn3-simulator/wire"

// EventType enumerates what WaitForEvent can report.
type EventType int

const (
	// NoEvent is never returned by WaitForEvent; it exists so a zero Event
	// is recognizably invalid.
	NoEvent EventType = iota - 1
	// FrameArrival means a frame arrived from the physical layer intact.
	FrameArrival
	// CksumErr means a frame arrived corrupted.
	CksumErr
	// Timeout means a data-frame timer expired.
	Timeout
	// NetworkLayerReady means a new packet is available from the network
	// layer (only reported when the network layer is enabled).
	NetworkLayerReady
	// AckTimeout means the auxiliary ack timer expired.
	AckTimeout
)

func (e EventType) String() string {
	switch e {
	case FrameArrival:
		return "frame_arrival"
	case CksumErr:
		return "cksum_err"
	case Timeout:
		return "timeout"
	case NetworkLayerReady:
		return "network_layer_ready"
	case AckTimeout:
		return "ack_timeout"
	default:
		return "no_event"
	}
}

// Event is the single value a protocol function's wait loop blocks on.
type Event struct {
	Type EventType
	// Timer is only meaningful when Type == Timeout: the full sequence
	// number that was recorded for the buffer slot whose timer fired (the
	// worker's shadow record of what to_physical_layer last sent there, not
	// the slot index itself).
	Timer uint32
}

// Runtime is the set of primitives a protocol function is written against.
// The worker package provides the concrete implementation; tests provide a
// scripted fake.
type Runtime interface {
	WaitForEvent() Event

	FromNetworkLayer() wire.Packet
	ToNetworkLayer(p wire.Packet)

	FromPhysicalLayer() wire.Frame
	ToPhysicalLayer(f wire.Frame)

	StartTimer(k uint32)
	StopTimer(k uint32)
	StartAckTimer()
	StopAckTimer()

	EnableNetworkLayer()
	DisableNetworkLayer()

	// OldestFrame reports the sequence number carried by the most recent
	// Timeout event (the same value as that Event's Timer field). None of
	// the protocol functions call it; protocol 6 reads Event.Timer instead.
	OldestFrame() uint32
}
