package simulator

import (
	"github.com/pkg/errors"

	"github.com/enderdzz/cn3-simulator/simerr"
)

// Args mirrors the six positional CLI parameters, already parsed and
// range-checked the way parse_args in sim.c did.
type Args struct {
	// Protocol selects one of the implemented protocols, 2 through 6.
	Protocol int
	// Events is the number of driver turns to run before stopping, absent a
	// deadlock; internally this becomes Events*DELTA ticks.
	Events int
	// Timeout is the per-frame timeout, in external event units; required
	// (> 0) whenever Protocol > 2.
	Timeout int
	// PktLoss is the percentage, 0-99, of sent frames dropped before
	// reaching the wire.
	PktLoss int
	// Garbled is the percentage, 0-99, of arriving frames reported with a
	// checksum error.
	Garbled int
	// Debug is the tracing bitmask (see the printer package's constants).
	Debug int
	// Seed drives the run's randomness; Run derives two distinct
	// per-worker seeds from it so the run is reproducible.
	Seed int64
}

// DELTA is how many internal ticks one external "event" costs, so that a
// burst of timers set during a single turn can still each get a distinct
// expiry tick.
const DELTA = 10

// Validate applies the same bounds parse_args enforced, returning a
// simerr.ConfigError describing the first violation found.
func (a Args) Validate() error {
	if a.Protocol < 2 || a.Protocol > 6 {
		return simerr.New(simerr.ConfigError, errors.Errorf("protocol %d is not valid; must be 2-6", a.Protocol))
	}
	if a.Events <= 0 {
		return simerr.New(simerr.ConfigError, errors.New("number of simulation events must be positive"))
	}
	if a.Timeout < 0 || (a.Protocol > 2 && a.Timeout == 0) {
		return simerr.New(simerr.ConfigError, errors.New("timeout interval must be positive"))
	}
	if a.PktLoss < 0 || a.PktLoss > 99 {
		return simerr.New(simerr.ConfigError, errors.New("packet loss rate must be between 0 and 99"))
	}
	if a.Garbled < 0 || a.Garbled > 99 {
		return simerr.New(simerr.ConfigError, errors.New("packet checksum error rate must be between 0 and 99"))
	}
	if a.Debug < 0 {
		return simerr.New(simerr.ConfigError, errors.New("debug flags may not be negative"))
	}
	return nil
}

// scaledLoss converts a 0-99 percentage into the 0-990 range compared
// against a 0-1023 draw, matching the original's "1000 is close enough to
// 1024" approximation.
func scaledLoss(pct int) int { return pct * 10 }
