package protocol

import "github.com/enderdzz/cn3-simulator/wire"

// RunSelectiveRepeat implements protocol 6: the receiver accepts frames out
// of order within its window but only ever hands the network layer packets
// in order, and only the single frame that actually timed out is
// retransmitted, not the whole window as in protocol 5.
func RunSelectiveRepeat(rt Runtime) {
	var ackExpected, nextFrameToSend uint32
	var frameExpected, tooFar uint32 = 0, NrBufsSW
	var nbuffered uint32
	noNak := true

	outBuf := make([]wire.Packet, NrBufsSW)
	inBuf := make([]wire.Packet, NrBufsSW)
	arrived := make([]bool, NrBufsSW)

	sendFrame := func(kind wire.FrameKind, frameNr uint32) {
		s := wire.Frame{Kind: kind, Seq: frameNr, Ack: (frameExpected + MaxSeqSW) % (MaxSeqSW + 1)}
		if kind == wire.Data {
			s.Info = outBuf[frameNr%NrBufsSW]
		}
		if kind == wire.Nak {
			noNak = false
		}
		rt.ToPhysicalLayer(s)
		if kind == wire.Data {
			rt.StartTimer(frameNr % NrBufsSW)
		}
		rt.StopAckTimer()
	}

	rt.EnableNetworkLayer()

	for {
		ev := rt.WaitForEvent()
		switch ev.Type {
		case NetworkLayerReady:
			nbuffered++
			outBuf[nextFrameToSend%NrBufsSW] = rt.FromNetworkLayer()
			sendFrame(wire.Data, nextFrameToSend)
			nextFrameToSend = Inc(nextFrameToSend, MaxSeqSW)

		case FrameArrival:
			r := rt.FromPhysicalLayer()
			if r.Kind == wire.Data {
				if r.Seq != frameExpected && noNak {
					sendFrame(wire.Nak, 0)
				} else {
					rt.StartAckTimer()
				}
				if Between(frameExpected, r.Seq, tooFar, MaxSeqSW) && !arrived[r.Seq%NrBufsSW] {
					arrived[r.Seq%NrBufsSW] = true
					inBuf[r.Seq%NrBufsSW] = r.Info
					for arrived[frameExpected%NrBufsSW] {
						rt.ToNetworkLayer(inBuf[frameExpected%NrBufsSW])
						noNak = true
						arrived[frameExpected%NrBufsSW] = false
						frameExpected = Inc(frameExpected, MaxSeqSW)
						tooFar = Inc(tooFar, MaxSeqSW)
						rt.StartAckTimer()
					}
				}
			}
			if r.Kind == wire.Nak && Between(ackExpected, (r.Ack+1)%(MaxSeqSW+1), nextFrameToSend, MaxSeqSW) {
				sendFrame(wire.Data, (r.Ack+1)%(MaxSeqSW+1))
			}
			for Between(ackExpected, r.Ack, nextFrameToSend, MaxSeqSW) {
				nbuffered--
				rt.StopTimer(ackExpected % NrBufsSW)
				ackExpected = Inc(ackExpected, MaxSeqSW)
			}

		case CksumErr:
			if noNak {
				sendFrame(wire.Nak, 0)
			}

		case Timeout:
			sendFrame(wire.Data, ev.Timer)

		case AckTimeout:
			sendFrame(wire.Ack, 0)
		}

		if nbuffered < NrBufsSW {
			rt.EnableNetworkLayer()
		} else {
			rt.DisableNetworkLayer()
		}
	}
}
