package app

import (
	"os"
	"strconv"
	"sync"
)

const testModeEnv = "CLINICBOOKS_TEST_MODE"

var (
	testModeMu  sync.RWMutex
	testMode    bool
	testModeSet bool
)

// InTestMode reports whether the binaries should skip connecting to Postgres
// and Redis. Any value strconv.ParseBool accepts as true enables it.
func InTestMode() bool {
	testModeMu.RLock()
	set, on := testModeSet, testMode
	testModeMu.RUnlock()
	if set {
		return on
	}
	return RefreshTestMode()
}

// RefreshTestMode rereads the environment and returns the new flag.
func RefreshTestMode() bool {
	on, _ := strconv.ParseBool(os.Getenv(testModeEnv))
	testModeMu.Lock()
	testMode, testModeSet = on, true
	testModeMu.Unlock()
	return on
}
