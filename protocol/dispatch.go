package protocol

import "github.com/pkg/errors"

// utopiaEventBudget bounds how many iterations protocol 1's loop runs for
// when it is dispatched through Run; tests call the utopia functions with
// their own limit.
const utopiaEventBudget = 1 << 20

// Run dispatches to the protocol function named by num, in the role
// determined by id (0 or 1). It returns an error only for an out-of-range
// protocol number; the functions for protocols 2-6 loop forever,
// returning control to the caller exclusively through rt (the worker that
// owns rt unwinds them on the driver's zero-tick sentinel or a context
// cancellation).
func Run(num, id int, rt Runtime) error {
	switch num {
	case 1:
		runUtopia(id, rt, utopiaEventBudget)
		return nil
	case 2:
		RunStopAndWait(id, rt)
		return nil
	case 3:
		RunPAR(id, rt)
		return nil
	case 4:
		RunOneBitSlidingWindow(rt)
		return nil
	case 5:
		RunGoBackN(rt)
		return nil
	case 6:
		RunSelectiveRepeat(rt)
		return nil
	default:
		return errors.Errorf("protocol: unknown protocol number %d", num)
	}
}
