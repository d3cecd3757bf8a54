package protocol

import "github.com/enderdzz/cn3-simulator/wire"

func frameWithInfo(p wire.Packet) wire.Frame {
	return wire.Frame{Kind: wire.Data, Info: p}
}

func dataFrame(seq uint32, p wire.Packet) wire.Frame {
	return wire.Frame{Kind: wire.Data, Seq: seq, Info: p}
}

func ackFrame(ack uint32) wire.Frame {
	return wire.Frame{Kind: wire.Ack, Ack: ack}
}
