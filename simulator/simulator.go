// Package simulator drives two worker.Worker peers through a deterministic,
// lockstep discrete-event run and reports the resulting statistics.
package simulator

import (
	"context"
	"math/rand"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/enderdzz/cn3-simulator/printer"
	"github.com/enderdzz/cn3-simulator/simerr"
	"github.com/enderdzz/cn3-simulator/stats"
	"github.com/enderdzz/cn3-simulator/wire"
	"github.com/enderdzz/cn3-simulator/worker"
)


// deadlockFactor is how many timeout intervals of mutual inactivity count as
// a deadlock.
const deadlockFactor = 3

// peerChannelCapacity bounds how many frames may be in flight between the
// two peers at once, standing in for the original's pipe buffer together
// with worker.MaxQueue's local backlog.
const peerChannelCapacity = worker.MaxQueue

// Run wires up two workers for args.Protocol, drives them through the
// lockstep scheduler, and returns the combined statistics report. It
// returns a *simerr.Error for every failure mode: ConfigError if args does
// not validate, ProtocolViolation/InvariantViolation if a worker's Runtime
// observed one, and Outcome (not really an error, but spec.md's error
// model wraps every termination path the same way) once the run ends
// normally or by deadlock.
func Run(ctx context.Context, args Args) (stats.Report, error) {
	if err := args.Validate(); err != nil {
		return stats.Report{}, err
	}

	runID := uuid.New()
	pr := printer.New(os.Stdout, args.Debug)
	pr.Info("starting run %s: protocol=%d events=%d timeout=%d loss=%d%% cksum=%d%%\n",
		runID, args.Protocol, args.Events, args.Timeout, args.PktLoss, args.Garbled)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	seedSrc := rand.New(rand.NewSource(args.Seed))

	ab := make(chan wire.Frame, peerChannelCapacity)
	ba := make(chan wire.Frame, peerChannelCapacity)
	tick0 := make(chan uint64)
	word0 := make(chan worker.Status, 1)
	tick1 := make(chan uint64)
	word1 := make(chan worker.Status, 1)

	timeoutInterval := uint64(args.Timeout) * DELTA

	w0 := worker.New(worker.Config{
		ID: 0, Protocol: args.Protocol, TimeoutInterval: timeoutInterval,
		PktLoss: scaledLoss(args.PktLoss), Garbled: scaledLoss(args.Garbled),
		Seed: seedSrc.Int63(),
	}, ab, ba, tick0, word0, pr)

	w1 := worker.New(worker.Config{
		ID: 1, Protocol: args.Protocol, TimeoutInterval: timeoutInterval,
		PktLoss: scaledLoss(args.PktLoss), Garbled: scaledLoss(args.Garbled),
		Seed: seedSrc.Int63(),
	}, ba, ab, tick1, word1, pr)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); w0.Run(ctx) }()
	go func() { defer wg.Done(); w1.Run(ctx) }()

	driverRand := rand.New(rand.NewSource(seedSrc.Int63()))

	lastTick := uint64(args.Events) * DELTA
	deadlockAt := deadlockFactor * timeoutInterval

	var tick uint64
	var hanging [2]uint64
	deadlocked := false

loop:
	for tick < lastTick {
		if ctx.Err() != nil {
			break
		}

		proc := driverRand.Intn(2)
		tick += DELTA

		tickCh, wordCh := tick0, word0
		if proc == 1 {
			tickCh, wordCh = tick1, word1
		}

		select {
		case tickCh <- tick:
		case <-ctx.Done():
			break loop
		}

		var word worker.Status
		select {
		case word = <-wordCh:
		case <-ctx.Done():
			break loop
		}

		if word == worker.OK {
			hanging[proc] = 0
		} else {
			hanging[proc] += DELTA
		}

		if deadlockAt > 0 && hanging[0] >= deadlockAt && hanging[1] >= deadlockAt {
			deadlocked = true
			break
		}
	}

	// Send the termination sentinel to both workers; a worker that already
	// exited because ctx was cancelled out from under the loop above is no
	// longer reading its tick channel, so these sends must not block
	// forever waiting for it.
	select {
	case tick0 <- 0:
	case <-ctx.Done():
	}
	select {
	case tick1 <- 0:
	case <-ctx.Done():
	}
	cancel()
	wg.Wait()

	report := stats.Report{Ticks: tick / DELTA, Deadlocked: deadlocked}
	report.Peer[0] = w0.Stats
	report.Peer[1] = w1.Stats

	if err := firstRuntimeError(w0, w1); err != nil {
		return report, err
	}

	if deadlocked {
		pr.Outcome("A deadlock has been detected. Time=%d\n", report.Ticks)
	} else {
		pr.Outcome("End of simulation. Time=%d\n", report.Ticks)
	}
	for i, c := range report.Peer {
		pr.Stats("\nProcess %d:\n"+
			"  Data frames sent: %d (retransmitted %d, lost %d)\n"+
			"  Data frames received: %d good, %d with checksum errors\n"+
			"  Acks sent: %d (lost %d)\n"+
			"  Acks received: %d good, %d with checksum errors\n"+
			"  Payloads accepted: %d\n"+
			"  Timeouts: %d, ack timeouts: %d\n",
			i, c.DataSent, c.DataRetransmitted, c.DataLost,
			c.GoodDataReceived, c.CksumDataReceived,
			c.AcksSent, c.AcksLost,
			c.GoodAcksReceived, c.CksumAcksReceived,
			c.PayloadsAccepted, c.Timeouts, c.AckTimeouts)
	}
	pr.Stats("\nEfficiency (payloads accepted/data pkts sent) = %d%%\n", report.Efficiency())

	return report, simerr.New(simerr.Outcome, outcomeError{deadlocked: deadlocked})
}

func firstRuntimeError(w0, w1 *worker.Worker) error {
	if err := w0.Err(); err != nil {
		return err
	}
	if err := w1.Err(); err != nil {
		return err
	}
	return nil
}

type outcomeError struct{ deadlocked bool }

func (e outcomeError) Error() string {
	if e.deadlocked {
		return "simulation ended: deadlock detected"
	}
	return "simulation ended: event budget reached"
}
