package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"serve", "recommend", "timeline"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "hotspot", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestRecommendCommand_Flags(t *testing.T) {
	for name, def := range map[string]string{
		"lat":    "0",
		"lng":    "0",
		"index":  "-1",
		"island": "false",
		"urban":  "false",
		"format": "json",
	} {
		flag := recommendCmd.Flags().Lookup(name)
		require.NotNil(t, flag, "recommend command should have --%s flag", name)
		assert.Equal(t, def, flag.DefValue, name)
	}
}

func TestTimelineCommand_Flags(t *testing.T) {
	flag := timelineCmd.Flags().Lookup("format")
	require.NotNil(t, flag)
	assert.Equal(t, "json", flag.DefValue)
}
