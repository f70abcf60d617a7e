package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsForOmittedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("interface: eth1\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "eth1", cfg.Iface)
	require.Equal(t, DefaultHTTPListenAddr, cfg.HTTPListenAddr)
	require.Equal(t, defaultMaxConcurrentConnections, cfg.MaxConcurrentConnections)
}

func TestValidateRequiresInterface(t *testing.T) {
	cfg := Default()
	cfg.Iface = ""
	cfg.SOCKS5ListenAddr = "127.0.0.1:1080"
	require.Error(t, cfg.Validate())
}

func TestSOCKS5EnabledRequiresAddrAndNotDisabled(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.False(t, cfg.SOCKS5Enabled())

	cfg.SOCKS5ListenAddr = "127.0.0.1:1080"
	require.True(t, cfg.SOCKS5Enabled())

	cfg.NoSOCKS5 = true
	require.False(t, cfg.SOCKS5Enabled())
}

func TestHasSOCKS5Credentials(t *testing.T) {
	cfg := Default()
	require.False(t, cfg.HasSOCKS5Credentials())
	cfg.SOCKS5User = "alice"
	require.True(t, cfg.HasSOCKS5Credentials())
}
