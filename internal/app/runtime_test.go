package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInTestModeParsesFlag(t *testing.T) {
	t.Cleanup(RefreshTestMode)
	for value, want := range map[string]bool{"1": true, "true": true, "0": false, "": false, "yes": false} {
		t.Setenv(testModeEnv, value)
		RefreshTestMode()
		require.Equal(t, want, InTestMode(), "value %q", value)
	}
}
