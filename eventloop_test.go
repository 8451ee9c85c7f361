package deskrt

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/scriptkit/deskrt/internal/workqueue"
)

// TestAsyncTaskResolvesPromiseThroughWorkQueue covers scenario S1: a
// native async call completes on a worker, the main thread picks up the
// completion off the shared wakeup channel, and the promise it was
// registered against resolves with the produced bytes.
func TestAsyncTaskResolvesPromiseThroughWorkQueue(t *testing.T) {
	rt := newTestRuntime(t)
	defer rt.Shutdown()

	var resolved any
	id := rt.Promises.Add(Resolver{
		Resolve: func(v any) { resolved = v },
	})

	rt.workq.Submit(workqueue.Task{
		Run: func() (any, error) { return []byte{0x61, 0x62}, nil },
		OnSuccess: func(out any) {
			rt.Promises.Resolve(id, out)
		},
	})

	if !rt.WaitForWakeup() {
		t.Fatal("expected the work queue completion to signal the wakeup channel")
	}
	rt.processMainEventLoop()

	b, ok := resolved.([]byte)
	if !ok || string(b) != "ab" {
		t.Fatalf("resolved = %#v, want []byte(\"ab\")", resolved)
	}
}

// TestShutdownReportsUnhandledRejection covers scenario S4: a rejected
// promise the script never attached a handler to still produces exactly
// one report line containing the stringified rejection value by the time
// Shutdown returns.
func TestShutdownReportsUnhandledRejection(t *testing.T) {
	rt := newTestRuntime(t)

	var buf bytes.Buffer
	rt.cfg.Logger = log.New(&buf, "", 0)

	rt.Promises.ReportUnhandled("boom")

	if err := rt.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "boom") {
		t.Fatalf("expected shutdown log to report the unhandled rejection value, got %q", out)
	}
}
