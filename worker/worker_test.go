package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enderdzz/cn3-simulator/simerr"
	"github.com/enderdzz/cn3-simulator/wire"
)

func newTestWorker(cfg Config) (*Worker, chan wire.Frame, chan wire.Frame, chan uint64, chan Status) {
	peerOut := make(chan wire.Frame, MaxQueue)
	peerIn := make(chan wire.Frame, MaxQueue)
	tickIn := make(chan uint64)
	wordOut := make(chan Status, 1)
	return New(cfg, peerOut, peerIn, tickIn, wordOut, nil), peerOut, peerIn, tickIn, wordOut
}

// TestProtocolViolationReordersToNetworkLayer injects a frame into a
// worker's own inbound queue whose packet counter is out of sequence, and
// asserts the worker fails with simerr.ProtocolViolation instead of
// silently accepting the bad delivery. This exercises the one correctness
// property every protocol must uphold regardless of how it gets there.
func TestProtocolViolationReordersToNetworkLayer(t *testing.T) {
	w, _, _, _, _ := newTestWorker(Config{ID: 1, Protocol: 2})

	var bad wire.Packet
	wire.PutPacketCounter(&bad, 5) // the network layer has delivered nothing yet, so only 0 is valid

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.ctx = ctx

	func() {
		defer func() {
			if r := recover(); r != nil {
				w.err = r.(workerDone).err
			}
		}()
		w.ToNetworkLayer(bad)
	}()

	require.Error(t, w.err)
	var simErr *simerr.Error
	require.True(t, errors.As(w.err, &simErr))
	assert.Equal(t, simerr.ProtocolViolation, simErr.Kind)
}

func TestQueueOverflowIsInvariantViolation(t *testing.T) {
	w, _, _, _, _ := newTestWorker(Config{ID: 0, Protocol: 6})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.ctx = ctx

	func() {
		defer func() {
			if r := recover(); r != nil {
				w.err = r.(workerDone).err
			}
		}()
		for i := 0; i < MaxQueue+1; i++ {
			if err := w.inq.push(wire.Frame{}); err != nil {
				w.fail(err)
			}
		}
	}()

	require.Error(t, w.err)
	var simErr *simerr.Error
	require.True(t, errors.As(w.err, &simErr))
	assert.Equal(t, simerr.InvariantViolation, simErr.Kind)
}

// TestStopAndWaitRoundTrip wires two workers configured for protocol 2
// directly to each other's channels (bypassing the driver) and drives a
// handful of ticks by hand, checking that payloads make it across in order.
func TestStopAndWaitRoundTrip(t *testing.T) {
	ab := make(chan wire.Frame, MaxQueue)
	ba := make(chan wire.Frame, MaxQueue)
	senderTick := make(chan uint64)
	senderWord := make(chan Status, 1)
	recvTick := make(chan uint64)
	recvWord := make(chan Status, 1)

	sender := New(Config{ID: 0, Protocol: 2}, ab, ba, senderTick, senderWord, nil)
	receiver := New(Config{ID: 1, Protocol: 2}, ba, ab, recvTick, recvWord, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go sender.Run(ctx)
	go receiver.Run(ctx)

	tick := uint64(0)
	for i := 0; i < 6; i++ {
		tick += 10
		select {
		case senderTick <- tick:
		case <-time.After(time.Second):
			t.Fatal("sender did not accept tick")
		}
		select {
		case <-senderWord:
		case <-time.After(time.Second):
			t.Fatal("sender did not report a word")
		}
		select {
		case recvTick <- tick:
		case <-time.After(time.Second):
			t.Fatal("receiver did not accept tick")
		}
		select {
		case <-recvWord:
		case <-time.After(time.Second):
			t.Fatal("receiver did not report a word")
		}
	}

	assert.GreaterOrEqual(t, receiver.net.accepted, 1)
}
