package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/visibility-cli/internal/config"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"audit", "status", "report", "serve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "visibility-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.Contains(t, rootCmd.Long, "checkpoint")
	assert.Contains(t, rootCmd.Long, "resumes after")
	assert.Contains(t, rootCmd.Long, "--fresh")
	for _, name := range []string{"checkpoint", "run-key"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "root command should have --%s", name)
	}
}

func TestApplyStoreFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().AddFlagSet(rootCmd.PersistentFlags())
	t.Cleanup(func() {
		for _, name := range []string{"checkpoint", "run-key"} {
			rootCmd.PersistentFlags().Lookup(name).Changed = false
		}
		checkpointPath, runKey = "", ""
	})

	c := &config.Config{Store: config.StoreConfig{Backend: "file", Path: "checkpoint.json", RunKey: "default"}}
	applyStoreFlags(cmd, c)
	assert.Equal(t, "checkpoint.json", c.Store.Path, "unset flags keep the configured store")
	assert.Equal(t, "default", c.Store.RunKey)

	require.NoError(t, cmd.Flags().Set("checkpoint", "runs/kidsandus.json"))
	require.NoError(t, cmd.Flags().Set("run-key", "kidsandus-es"))
	applyStoreFlags(cmd, c)
	assert.Equal(t, "runs/kidsandus.json", c.Store.Path)
	assert.Equal(t, "kidsandus-es", c.Store.RunKey)
}

func TestAuditCommand_Flags(t *testing.T) {
	for _, name := range []string{"fresh", "wizard", "sample", "report"} {
		require.NotNil(t, auditCmd.Flags().Lookup(name), "audit command should have --%s", name)
	}
	assert.Equal(t, "false", auditCmd.Flags().Lookup("fresh").DefValue)
	assert.Equal(t, "0", auditCmd.Flags().Lookup("sample").DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestReportCommand_Flags(t *testing.T) {
	flag := reportCmd.Flags().Lookup("output")
	require.NotNil(t, flag)
	assert.Equal(t, "o", flag.Shorthand)
	require.NotNil(t, reportCmd.Flags().Lookup("json"))
	require.NotNil(t, statusCmd.Flags().Lookup("json"))
}
