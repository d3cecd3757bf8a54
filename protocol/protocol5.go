package protocol

import "github.com/enderdzz/cn3-simulator/wire"

// RunGoBackN implements protocol 5: pipelined transmission over an
// unreliable channel with a sliding window on both ends, cumulative
// acknowledgement, and go-back-N retransmission on timeout. Both peers run
// this same symmetric function.
func RunGoBackN(rt Runtime) {
	var ackExpected, nextFrameToSend, frameExpected uint32
	var nbuffered uint32
	buffer := make([]wire.Packet, NrBufsSW)

	rt.EnableNetworkLayer()

	sendData := func(frameNr uint32) {
		s := wire.Frame{
			Kind: wire.Data,
			Seq:  frameNr,
			Ack:  (frameExpected + MaxSeqSW) % (MaxSeqSW + 1),
			Info: buffer[frameNr%NrBufsSW],
		}
		rt.ToPhysicalLayer(s)
		rt.StartTimer(frameNr % NrBufsSW)
	}

	for {
		ev := rt.WaitForEvent()
		switch ev.Type {
		case NetworkLayerReady:
			buffer[nextFrameToSend%NrBufsSW] = rt.FromNetworkLayer()
			nbuffered++
			sendData(nextFrameToSend)
			nextFrameToSend = Inc(nextFrameToSend, MaxSeqSW)

		case FrameArrival:
			r := rt.FromPhysicalLayer()
			if r.Seq == frameExpected {
				rt.ToNetworkLayer(r.Info)
				frameExpected = Inc(frameExpected, MaxSeqSW)
			}
			if Between(ackExpected, r.Ack, nextFrameToSend, MaxSeqSW) {
				for ackExpected != r.Ack {
					nbuffered--
					rt.StopTimer(ackExpected % NrBufsSW)
					ackExpected = Inc(ackExpected, MaxSeqSW)
				}
			}

		case CksumErr:
			// damaged frame: ignored, its sender's timer will fire

		case Timeout:
			nextFrameToSend = ackExpected
			for i := uint32(0); i < nbuffered; i++ {
				sendData(nextFrameToSend)
				nextFrameToSend = Inc(nextFrameToSend, MaxSeqSW)
			}
		}

		if nbuffered < NrBufsSW {
			rt.EnableNetworkLayer()
		} else {
			rt.DisableNetworkLayer()
		}
	}
}
