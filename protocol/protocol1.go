package protocol

// runUtopia implements protocol 1: a sender that never stops to look at
// events, pumping packets onto an error-free, infinite-speed channel, and a
// receiver that takes whatever arrives and hands it straight to the network
// layer. The worker's pickEvent offers protocol 1 only events for queued
// frames (frame_arrival, or cksum_err for a garbled one), and the receiver
// skips anything but frame_arrival. It is not reachable from the CLI (the lowest valid
// protocol number is 2) — this function exists so the textbook's full set
// of six protocols is represented, but it is exercised only directly, by
// tests, not through the dispatcher a real run uses.
//
// limit bounds how many packets the sender pumps before returning, since
// unlike the real protocol this one must terminate: a discrete-event
// simulation has no notion of "as fast as it can" without a loop bound.
func runUtopia(id int, rt Runtime, limit int) {
	if id == 0 {
		senderUtopia(rt, limit)
		return
	}
	receiverUtopia(rt, limit)
}

func senderUtopia(rt Runtime, limit int) {
	for i := 0; i < limit; i++ {
		buffer := rt.FromNetworkLayer()
		rt.ToPhysicalLayer(frameWithInfo(buffer))
	}
}

func receiverUtopia(rt Runtime, limit int) {
	for i := 0; i < limit; i++ {
		ev := rt.WaitForEvent()
		if ev.Type != FrameArrival {
			continue
		}
		r := rt.FromPhysicalLayer()
		rt.ToNetworkLayer(r.Info)
	}
}
