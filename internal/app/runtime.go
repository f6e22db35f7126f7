package app

import (
	"os"
	"sync"
	"sync/atomic"
)

const testModeEnv = "MEATSTOCK_TEST_MODE"

var (
	testModeFlag atomic.Bool
	testModeOnce sync.Once
)

// detectTestMode reads the MEATSTOCK_TEST_MODE flag once.
func detectTestMode() {
	testModeFlag.Store(os.Getenv(testModeEnv) == "1")
}

// InTestMode reports whether binaries should skip network side effects.
func InTestMode() bool {
	testModeOnce.Do(detectTestMode)
	return testModeFlag.Load()
}

// RefreshTestMode updates the cached flag after environment changes.
func RefreshTestMode() {
	testModeOnce.Do(func() {})
	detectTestMode()
}

// UseRedis reports whether Redis backed caching, locking and jobs should be
// wired. Test mode always disables them.
func UseRedis(cfg *Config) bool {
	return cfg.RedisEnabled() && !InTestMode()
}
