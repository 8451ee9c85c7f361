// Command deskrt is the runtime's CLI entry point: `run` loads a script
// and enters the frame loop, `test` runs a script's isolated tests and
// exits non-zero on any failure. Grounded on the teacher's flat
// worker.Engine facade (no framework, a handful of exported methods) —
// a cobra-style command tree would be overkill for two subcommands with
// no nested flags of their own, so this is a small flag-package
// dispatcher instead, per SPEC_FULL.md §6.1.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/scriptkit/deskrt"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// SIGPIPE ignored on POSIX per spec §6.4, so writes to closed sockets
	// return an error instead of terminating the process.
	ignoreSIGPIPE()

	if len(args) == 0 {
		usage()
		return 2
	}

	switch args[0] {
	case "run":
		return runCmd(args[1:])
	case "test":
		return testCmd(args[1:])
	default:
		usage()
		return 2
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: deskrt run  <path-to-script.js> [--dev] [--workers N]")
	fmt.Fprintln(os.Stderr, "       deskrt test <path-to-script.js>")
}

func runCmd(args []string) int {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	dev := fs.Bool("dev", false, "enable dev mode (watch the script, hot restart)")
	workers := fs.Int("workers", 0, "worker pool size (0 = runtime.NumCPU())")
	fs.Parse(args)

	if fs.NArg() != 1 {
		usage()
		return 2
	}
	path := fs.Arg(0)

	cfg := deskrt.RuntimeConfig{
		WorkerCount: *workers,
		DevMode:     *dev,
		Logger:      log.New(os.Stderr, "", log.LstdFlags),
	}

	rt, err := deskrt.New(cfg, nil, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "deskrt:", err)
		return 1
	}
	defer rt.Shutdown()

	if err := rt.Enter(); err != nil {
		fmt.Fprintln(os.Stderr, "deskrt:", err)
		return 1
	}

	if err := rt.LoadAndRun(path); err != nil {
		fmt.Fprintln(os.Stderr, "deskrt:", err)
		if !*dev {
			return 1
		}
	}

	if err := rt.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "deskrt:", err)
		return 1
	}
	return 0
}

func testCmd(args []string) int {
	fs := flag.NewFlagSet("test", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() != 1 {
		usage()
		return 2
	}
	path := fs.Arg(0)

	cfg := deskrt.RuntimeConfig{Logger: log.New(os.Stderr, "", log.LstdFlags)}
	rt, err := deskrt.New(cfg, nil, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "deskrt:", err)
		return 1
	}
	defer rt.Shutdown()

	if err := rt.Enter(); err != nil {
		fmt.Fprintln(os.Stderr, "deskrt:", err)
		return 1
	}
	if err := rt.LoadAndRun(path); err != nil {
		fmt.Fprintln(os.Stderr, "deskrt:", err)
		return 1
	}

	tests, err := discoverIsolatedTests(rt, path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "deskrt:", err)
		return 1
	}

	report := rt.RunIsolatedTests(tests)
	fmt.Println(report.ReportSummary())
	if report.AllPassed() {
		return 0
	}
	return 1
}

// discoverIsolatedTests calls into the already-evaluated script to collect
// the names of the isolated tests it registered (the script API binding
// that defines how tests are declared — e.g. a global `test(name, fn)` —
// is an external collaborator per spec §1; this only knows the resulting
// name list comes back as a JSON array string across the Value Bridge).
// Each returned IsolatedTest re-enters the script by name rather than
// carrying a Go closure over a JS function value, since a script function
// can't cross CallGlobalFunction's JSON argument marshaling.
func discoverIsolatedTests(rt *deskrt.Runtime, path string) ([]deskrt.IsolatedTest, error) {
	raw, err := rt.Engine.CallGlobalFunction("__deskrt_collect_tests__")
	if err != nil {
		return nil, err
	}
	names, err := decodeTestNames(raw)
	if err != nil {
		return nil, err
	}

	tests := make([]deskrt.IsolatedTest, len(names))
	for i, name := range names {
		name := name
		tests[i] = deskrt.IsolatedTest{
			Name: name,
			ScriptFn: func() error {
				_, err := rt.Engine.CallGlobalFunction("__deskrt_run_test__", name)
				return err
			},
		}
	}
	return tests, nil
}

func decodeTestNames(raw any) ([]string, error) {
	s, _ := raw.(string)
	if s == "" {
		return nil, nil
	}
	var names []string
	if err := json.Unmarshal([]byte(s), &names); err != nil {
		return nil, fmt.Errorf("deskrt: decoding registered test names: %w", err)
	}
	return names, nil
}

// ignoreSIGPIPE is implemented per-OS in sigpipe_unix.go / sigpipe_windows.go
// since syscall.SIGPIPE has no Windows equivalent.
