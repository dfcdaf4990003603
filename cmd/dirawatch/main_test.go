package main

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"ingest", "stats", "serve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestIngestCommand_Flags(t *testing.T) {
	for _, name := range []string{"source", "file", "exec", "no-notify"} {
		require.NotNil(t, ingestCmd.Flags().Lookup(name), "ingest should have --%s", name)
	}
	assert.Equal(t, "false", ingestCmd.Flags().Lookup("no-notify").DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("addr")
	require.NotNil(t, flag)
	assert.Equal(t, "", flag.DefValue)
}

func TestNewLogger(t *testing.T) {
	l, err := newLogger("debug")
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())

	_, err = newLogger("loud")
	assert.Error(t, err)
}
