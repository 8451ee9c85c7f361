package deskrt

import (
	"log"
	"time"
)

// RuntimeConfig carries the tuning knobs exposed to both CLI subcommands
// and programmatic construction. Grounded on the teacher's
// engineconfig.go (flat EngineConfig: PoolSize, MemoryLimitMB,
// ExecutionTimeout, MaxFetchRequests, MaxResponseBytes), generalized from
// per-request Workers limits to this runtime's frame-loop/worker-pool
// knobs. No config file parser is introduced — the teacher has none
// either; flags (cmd/deskrt) and this struct's zero-value defaults are the
// only two entry points.
type RuntimeConfig struct {
	// WorkerCount sizes the Work Queue. Zero means runtime.NumCPU().
	WorkerCount int

	// MemoryLimitMB bounds the script engine's heap. Zero means no limit.
	MemoryLimitMB int

	// ExecutionTimeout bounds a single script call before the watchdog
	// calls Engine.Interrupt(). Zero disables the watchdog.
	ExecutionTimeout time.Duration

	// MainWakeupTimeout is the bound on the main thread's wakeup wait
	// (spec §5: "4s bound... to allow periodic liveness checks").
	MainWakeupTimeout time.Duration

	// DevMode enables the file watcher and restart state machine (§4.9).
	DevMode bool

	// Backend selects "v8" or "quickjs" explicitly; empty selects
	// whichever single backend this binary was built with.
	Backend string

	// Logger receives one line per uncaught exception, dev-mode restart,
	// and worker-pool discard event, in the teacher's terse style
	// (engine.go: "worker: discarding worker for site %s ... (timed out
	// or panicked)"). Defaults to log.Default() if nil.
	Logger *log.Logger
}

// withDefaults returns a copy of cfg with zero-valued fields replaced by
// their runtime defaults.
func (cfg RuntimeConfig) withDefaults() RuntimeConfig {
	if cfg.MainWakeupTimeout == 0 {
		cfg.MainWakeupTimeout = 4 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return cfg
}
