package app

import (
	"os"
	"strconv"
	"sync/atomic"
)

// testModeEnv turns off what needs real infrastructure or real clients: the
// binaries exit at startup, and requests are neither logged nor rate limited.
const testModeEnv = "INKWELL_TEST_MODE"

// testMode caches the parsed flag. Nil until first read.
var testMode atomic.Pointer[bool]

func readTestMode() bool {
	on, err := strconv.ParseBool(os.Getenv(testModeEnv))
	on = err == nil && on
	testMode.Store(&on)
	return on
}

// InTestMode reports whether INKWELL_TEST_MODE holds a true value ("1", "true").
func InTestMode() bool {
	if on := testMode.Load(); on != nil {
		return *on
	}
	return readTestMode()
}

// RefreshTestMode re-reads the flag after a test changed it.
func RefreshTestMode() {
	readTestMode()
}
