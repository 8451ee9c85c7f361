package deskrt

import "fmt"

// Shutdown implements spec §4.10's mandatory four-step ordering, to avoid
// deadlock between the reactor poller, the worker pool, and the main
// thread:
//  1. close the reactor poller (signals its close flag, wakes it through
//     the reactor, waits for acknowledgment),
//  2. close the work queue (signals every worker's close flag and waits),
//  3. the reactor itself is owned by the poller and closed as part of
//     step 1 here (this orchestration layer has no separate reactor
//     object distinct from the poller's backend),
//  4. drain any remaining work-queue completions.
func (r *Runtime) Shutdown() error {
	if r.poller != nil {
		if err := r.poller.Close(); err != nil {
			return fmt.Errorf("closing reactor poller: %w", err)
		}
	}

	r.workq.Close()
	r.workq.ProcessDone()

	if r.Promises.Pending() > 0 {
		// Testable property 5 (shutdown quiescence) is a property of the
		// reactor/worker state, not a hard failure here: pending
		// promises with no resolver left to run are simply abandoned,
		// matching spec §5's "no in-flight task cancellation... shutdown
		// cancels only pending continuations by virtue of the runtime
		// being torn down before they are reached."
		r.cfg.Logger.Printf("deskrt: shutdown with %d promise(s) never resolved", r.Promises.Pending())
	}

	// Scenario S4: one report line per rejected-without-a-handler promise,
	// each containing the stringified rejection value.
	for _, v := range r.Promises.UnhandledReport() {
		r.cfg.Logger.Printf("deskrt: unhandled promise rejection: %s", v)
	}

	r.Engine.Dispose()
	r.Exit()
	return nil
}
