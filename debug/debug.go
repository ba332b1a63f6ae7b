//go:build !debug

package debug

const Debug = false

// Assert does nothing when the debug build tag is off.
func Assert(condition bool, message ...string) {}
