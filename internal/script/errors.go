package script

import "errors"

// Runner errors.
var (
	// ErrRunnerClosed is returned when using a runner after Close.
	ErrRunnerClosed = errors.New("script runner is closed")

	// ErrScriptFailed wraps any Lua-level failure. The script's own error
	// message is attached to it.
	ErrScriptFailed = errors.New("script failed")
)
