package deskrt

import "github.com/scriptkit/deskrt/internal/core"

// The error taxonomy is owned by internal/core (it has to be visible to
// both engine backends without either importing this package, which would
// create an import cycle). These aliases let callers outside internal/
// write deskrt.CantConvert instead of reaching into internal/core.
type (
	ParseError       = core.ParseError
	CompileError     = core.CompileError
	MainScriptError  = core.MainScriptError
	HandleExpired    = core.HandleExpired
	CantConvert      = core.CantConvert
	OutOfBounds      = core.OutOfBounds
	IndexOutOfBounds = core.IndexOutOfBounds
	Panic            = core.Panic
)

// HandleExpiredError constructs the HandleExpired error for id.
func HandleExpiredError(id int32) error {
	return HandleExpired{ID: id}
}
