// Package testing is imported for its side effect: test binaries run against
// in-memory storage with a fixed token secret and with test mode on.
package testing

import (
	"os"
	stdtesting "testing"
)

// envDefaults are applied only where the variable is unset or empty, so a
// developer can still point a test run at real Postgres.
var envDefaults = map[string]string{
	"JWT_SECRET":     "inkwell-test-secret",
	"STORAGE_DRIVER": "memory",
}

func init() {
	prepareEnv()
}

func prepareEnv() {
	_ = os.Setenv("INKWELL_TEST_MODE", "1")
	for key, value := range envDefaults {
		if os.Getenv(key) == "" {
			_ = os.Setenv(key, value)
		}
	}
}

func TestMain(m *stdtesting.M) {
	prepareEnv()
	os.Exit(m.Run())
}
