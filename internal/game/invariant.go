package game

import (
	"fmt"
	"log"
)

// checkInvariant reports whether cond holds. A violation panics in builds
// tagged voiddebug; otherwise it is logged and the caller drops the update.
func checkInvariant(cond bool, format string, args ...any) bool {
	if cond {
		return true
	}
	msg := fmt.Sprintf(format, args...)
	if debugInvariants {
		panic("invariant violated: " + msg)
	}
	log.Printf("⚠️ Invariant violated, update ignored: %s", msg)
	return false
}
