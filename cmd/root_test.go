package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute_ReturnsCommandError(t *testing.T) {
	rootCmd.SetArgs([]string{"join", "not a room"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "join room")
}

func TestExecute_ArgumentErrorsReturn(t *testing.T) {
	rootCmd.SetArgs([]string{"join"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	assert.Error(t, Execute())
}
