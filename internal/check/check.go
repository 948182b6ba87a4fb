// Package check implements guarded preconditions.
//
// In normal builds a failed check is logged and reported to the caller so it
// can return early. Builds tagged ocrdebug panic instead, which surfaces
// broken invariants during development.
package check

import "github.com/rs/zerolog"

// That reports whether cond holds. When it does not, the failure is logged
// with msg, and in hard mode the process panics.
func That(cond bool, log zerolog.Logger, msg string) bool {
	if cond {
		return true
	}
	log.Error().Str("check", msg).Msg("precondition failed")
	if hardMode {
		panic("check failed: " + msg)
	}
	return false
}
