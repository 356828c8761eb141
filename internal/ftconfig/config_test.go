package ftconfig_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ft-systems/frankentorch/internal/ftconfig"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, ftconfig.Default().Validate())
}

func TestLoadParsesTOMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ftctl.toml")
	contents := "mode = \"hardened\"\nreentrant_policy = \"hardened_bounded_fallback\"\nrepair_symbol_count = 6\nlog_level = \"debug\"\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := ftconfig.Load(path)
	require.NoError(t, err)
	require.Equal(t, "hardened", cfg.Mode)
	require.Equal(t, 6, cfg.RepairSymbolCount)
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ftctl.toml")
	require.NoError(t, os.WriteFile(path, []byte("mode = \"quantum\"\n"), 0o600))

	_, err := ftconfig.Load(path)
	require.Error(t, err)
}
