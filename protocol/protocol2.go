package protocol

import "github.com/enderdzz/cn3-simulator/wire"

// RunStopAndWait implements protocol 2: unidirectional flow over an
// error-free channel, where the receiver's finite speed forces the sender
// to wait for a go-ahead dummy frame before sending the next one.
func RunStopAndWait(id int, rt Runtime) {
	if id == 0 {
		senderStopAndWait(rt)
		return
	}
	receiverStopAndWait(rt)
}

func senderStopAndWait(rt Runtime) {
	for {
		buffer := rt.FromNetworkLayer()
		rt.ToPhysicalLayer(frameWithInfo(buffer))
		rt.WaitForEvent() // frame_arrival is the only possibility
	}
}

func receiverStopAndWait(rt Runtime) {
	for {
		rt.WaitForEvent() // frame_arrival is the only possibility
		r := rt.FromPhysicalLayer()
		rt.ToNetworkLayer(r.Info)
		rt.ToPhysicalLayer(wire.Frame{Kind: wire.Data}) // dummy frame to awaken the sender
	}
}
