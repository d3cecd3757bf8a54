// Package cmd implements the sim command line: parsing and validating the
// six positional arguments sim.c's parse_args expected, then handing off to
// the simulator package.
package cmd

import (
	"context"
	"errors"
	"os"
	"strconv"

	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/enderdzz/cn3-simulator/printer"
	"github.com/enderdzz/cn3-simulator/simerr"
	"github.com/enderdzz/cn3-simulator/simulator"
	"github.com/enderdzz/cn3-simulator/util"
)

var rootCmd = &cobra.Command{
	Use:           "sim protocol events timeout loss cksum debug",
	Short:         "Run a data-link protocol simulation.",
	Long:          "Simulates one of the chapter 3 sliding-window protocols (2-6) over a lossy virtual channel and reports per-peer statistics.",
	SilenceErrors: true,
	SilenceUsage:  true,
	Args:          cobra.ExactArgs(6),
	RunE:          runSim,
}

// Execute runs the sim command and exits the process with status 1 on
// every error: a command line cobra itself rejects (handled before RunE
// ever runs), an argument error, and every simulator outcome, matching
// sim.c's "always exit(1) from terminate()". It returns normally (status
// 0) only when cobra handles the invocation without error, e.g. --help.
func Execute() {
	if _, err := rootCmd.ExecuteC(); err != nil {
		exitCode := 1
		var exitErr util.ExitError
		isExitErr := errors.As(err, &exitErr)
		if isExitErr {
			exitCode = exitErr.ExitCode
		} else {
			// A cobra-level error (e.g. the wrong number of arguments) never
			// reached runSim, so there is no simulator outcome to report —
			// show the usage string the way a plain CLI mistake deserves.
			rootCmd.Println(rootCmd.UsageString())
		}
		// simulator.Run always returns a non-nil error, even when the run
		// completed normally (Outcome), and it has already printed its own
		// stats/efficiency report in that case; don't also log it here as
		// an [ERROR] line.
		var simErr *simerr.Error
		if !(isExitErr && errors.As(err, &simErr) && simErr.Kind == simerr.Outcome) {
			printer.Stderr.Error("%s\n", err)
		}
		os.Exit(exitCode)
	}
}

func runSim(cmd *cobra.Command, rawArgs []string) error {
	args, err := parseArgs(rawArgs)
	if err != nil {
		return util.ExitError{ExitCode: 1, Err: err}
	}

	_, err = simulator.Run(context.Background(), args)
	// simulator.Run always returns a non-nil *simerr.Error on any
	// termination path (configuration failure, protocol violation,
	// invariant violation, or normal/deadlock outcome) and sim.c always
	// exits with status 1 regardless of which of those four it was.
	return util.ExitError{ExitCode: 1, Err: err}
}

func parseArgs(raw []string) (simulator.Args, error) {
	protocol, err := strconv.Atoi(raw[0])
	if err != nil {
		return simulator.Args{}, pkgerrors.Wrap(err, "protocol must be an integer")
	}
	events, err := strconv.Atoi(raw[1])
	if err != nil {
		return simulator.Args{}, pkgerrors.Wrap(err, "events must be an integer")
	}
	timeout, err := strconv.Atoi(raw[2])
	if err != nil {
		return simulator.Args{}, pkgerrors.Wrap(err, "timeout must be an integer")
	}
	loss, err := strconv.Atoi(raw[3])
	if err != nil {
		return simulator.Args{}, pkgerrors.Wrap(err, "loss must be an integer")
	}
	cksum, err := strconv.Atoi(raw[4])
	if err != nil {
		return simulator.Args{}, pkgerrors.Wrap(err, "cksum must be an integer")
	}
	debug, err := strconv.Atoi(raw[5])
	if err != nil {
		return simulator.Args{}, pkgerrors.Wrap(err, "debug must be an integer")
	}

	args := simulator.Args{
		Protocol: protocol,
		Events:   events,
		Timeout:  timeout,
		PktLoss:  loss,
		Garbled:  cksum,
		Debug:    debug,
		Seed:     1,
	}
	if err := args.Validate(); err != nil {
		var simErr *simerr.Error
		if errors.As(err, &simErr) {
			return simulator.Args{}, simErr.Cause()
		}
		return simulator.Args{}, err
	}
	return args, nil
}
