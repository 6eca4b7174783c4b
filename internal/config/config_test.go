package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	opts, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "./anondata", opts.OutputDir)
	assert.Equal(t, "./linklog", opts.StateDir)
	assert.Equal(t, "s", opts.Grouping)
	assert.Equal(t, 0.0, opts.SpaceGB)
	assert.Equal(t, DefaultWorkers(), opts.Workers)
	assert.Empty(t, opts.InputDir)
	assert.False(t, opts.CaseSensitive)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	t.Setenv("DCMANON_GROUP", "m")
	t.Setenv("DCMANON_OUTPUT", "/mnt/anon")
	t.Setenv("DCMANON_SPACE", "2.5")

	opts, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "m", opts.Grouping)
	assert.Equal(t, "/mnt/anon", opts.OutputDir)
	assert.Equal(t, 2.5, opts.SpaceGB)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("input: /data/raw\ngroup: n\nworkers: 3\n"), 0644))

	opts, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "/data/raw", opts.InputDir)
	assert.Equal(t, "n", opts.Grouping)
	assert.Equal(t, 3, opts.Workers)
	// Untouched keys keep their defaults.
	assert.Equal(t, "./anondata", opts.OutputDir)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.Error(t, err)
}

func TestLoadFlagsWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("group: n\n"), 0644))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringP("group", "g", "s", "")
	require.NoError(t, flags.Set("group", "m"))

	opts, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "m", opts.Grouping)
}

func TestDefaultWorkersAtLeastOne(t *testing.T) {
	assert.GreaterOrEqual(t, DefaultWorkers(), 1)
}
