package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nyric/actorio/config"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "actor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: worker-1
listen_addr: ":0"
arbiter_addr: "127.0.0.1:9000"
nat: any
admin_addr: "127.0.0.1:0"
verbosity: 4
modules: [math]
`), 0o644))

	f, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "worker-1", f.Name)
	require.Equal(t, ":0", f.ListenAddr)
	require.Equal(t, "127.0.0.1:9000", f.ArbiterAddr)
	require.Equal(t, "any", f.NAT)
	require.Equal(t, []string{"math"}, f.Modules)
	require.NotNil(t, f.Verbosity)
	require.Equal(t, 4, *f.Verbosity)

	cfg := f.ActorConfig()
	require.Equal(t, "worker-1", cfg.Name)
	require.Equal(t, "127.0.0.1:9000", cfg.ArbiterAddr)
}

func TestLoadVerbosityUnsetIsNil(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "actor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: worker-2\n"), 0o644))

	f, err := config.Load(path)
	require.NoError(t, err)
	require.Nil(t, f.Verbosity)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
