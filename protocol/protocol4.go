package protocol

import "github.com/enderdzz/cn3-simulator/wire"

// MaxSeqBit is the largest sequence number for protocol 4's one-bit
// sliding window.
const MaxSeqBit = 1

// RunOneBitSlidingWindow implements protocol 4: full-duplex data transfer
// over an unreliable channel using piggybacked acknowledgements. Both peers
// run this same function; there is no sender/receiver split because each
// side is simultaneously sending its own stream and acking the other's.
func RunOneBitSlidingWindow(rt Runtime) {
	var nextFrameToSend uint32
	var frameExpected uint32

	buffer := rt.FromNetworkLayer()
	rt.ToPhysicalLayer(pbFrame(nextFrameToSend, frameExpected, buffer))
	rt.StartTimer(nextFrameToSend)

	for {
		ev := rt.WaitForEvent()
		// pickEvent groups protocol 4 with protocol 3 (frame_arrival, cksum_err,
		// timeout are all possible); only a genuine frame_arrival carries a frame
		// worth inspecting, exactly as Tanenbaum's protocol4() guards this block.
		if ev.Type == FrameArrival {
			r := rt.FromPhysicalLayer()

			if r.Seq == frameExpected {
				rt.ToNetworkLayer(r.Info)
				frameExpected = Inc(frameExpected, MaxSeqBit)
			}

			if r.Ack == nextFrameToSend {
				rt.StopTimer(r.Ack)
				buffer = rt.FromNetworkLayer()
				nextFrameToSend = Inc(nextFrameToSend, MaxSeqBit)
			}
		}

		rt.ToPhysicalLayer(pbFrame(nextFrameToSend, frameExpected, buffer))
		rt.StartTimer(nextFrameToSend)
	}
}

// pbFrame builds a data frame carrying a piggybacked ack for the frame
// immediately before frameExpected.
func pbFrame(seq, frameExpected uint32, buffer wire.Packet) wire.Frame {
	return wire.Frame{Kind: wire.Data, Seq: seq, Ack: 1 - frameExpected, Info: buffer}
}
