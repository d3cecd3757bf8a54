// Package printer displays simulator tracing and statistics to the user.
package printer

import (
	"fmt"
	"io"
	"os"

	"github.com/logrusorgru/aurora"
)

// Debug bitmask values, matching the simulator's debug argument.
const (
	Sends    = 0x1
	Receives = 0x2
	Timeouts = 0x4
	Periodic = 0x8
)

var Color = aurora.NewAurora(true)

// Printer writes simulator tracing gated by a debug bitmask, plus
// unconditional configuration/fatal-error output.
type Printer struct {
	out   io.Writer
	debug int
}

func New(out io.Writer, debug int) *Printer {
	return &Printer{out: out, debug: debug}
}

// Stderr is the default printer used for configuration errors raised before
// a simulation run's own debug mask is known.
var Stderr = New(os.Stderr, 0)

func (p *Printer) enabled(bit int) bool {
	return p.debug&bit != 0
}

func (p *Printer) Info(format string, args ...interface{}) {
	fmt.Fprint(p.out, Color.Blue("[INFO] ").String())
	fmt.Fprintf(p.out, format, args...)
}

func (p *Printer) Warn(format string, args ...interface{}) {
	fmt.Fprint(p.out, Color.Yellow("[WARN] ").String())
	fmt.Fprintf(p.out, format, args...)
}

func (p *Printer) Error(format string, args ...interface{}) {
	fmt.Fprint(p.out, Color.Red("[ERROR] ").String())
	fmt.Fprintf(p.out, format, args...)
}

// Send traces an outbound frame when the Sends debug bit is set.
func (p *Printer) Send(format string, args ...interface{}) {
	if !p.enabled(Sends) {
		return
	}
	fmt.Fprint(p.out, Color.Green("[SEND] ").String())
	fmt.Fprintf(p.out, format, args...)
}

// Receive traces an inbound frame when the Receives debug bit is set.
func (p *Printer) Receive(format string, args ...interface{}) {
	if !p.enabled(Receives) {
		return
	}
	fmt.Fprint(p.out, Color.Cyan("[RECV] ").String())
	fmt.Fprintf(p.out, format, args...)
}

// Timeout traces a timer expiry when the Timeouts debug bit is set.
func (p *Printer) Timeout(format string, args ...interface{}) {
	if !p.enabled(Timeouts) {
		return
	}
	fmt.Fprint(p.out, Color.Magenta("[TIMEOUT] ").String())
	fmt.Fprintf(p.out, format, args...)
}

// Periodic traces a long-run progress line when the Periodic debug bit is set.
func (p *Printer) Periodic(format string, args ...interface{}) {
	if !p.enabled(Periodic) {
		return
	}
	fmt.Fprint(p.out, Color.Gray(12, "[TICK] ").String())
	fmt.Fprintf(p.out, format, args...)
}

// Stats prints a worker's final statistics dump unconditionally.
func (p *Printer) Stats(format string, args ...interface{}) {
	fmt.Fprintf(p.out, format, args...)
}

// Outcome prints the run's terminal line (deadlock or end-of-simulation)
// together with the aggregate efficiency, colorized for quick scanning.
func (p *Printer) Outcome(format string, args ...interface{}) {
	fmt.Fprint(p.out, Color.BrightYellow("\n==> ").String())
	fmt.Fprintf(p.out, format, args...)
}
