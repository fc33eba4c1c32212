package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoadKeepsDefaultsForAbsentKeys(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, "install_root: "+root+"\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, root, cfg.InstallRoot)
	assert.Equal(t, []string{"python3", "run.py"}, cfg.Worker.Command)
	assert.Equal(t, -1, cfg.Device)
	assert.True(t, cfg.WithScratch)
	assert.False(t, cfg.HighRes)
	assert.Equal(t, filepath.Join(root, "output_gui"), cfg.OutputRoot)
	assert.Equal(t, filepath.Join(root, "output_gui", "history.db"), cfg.HistoryPath())
	assert.Equal(t, DecoderNative, cfg.Preview.Decoder)
}

func TestLoadOverridesAndExpandsEnv(t *testing.T) {
	root := t.TempDir()
	t.Setenv("RESTORE_ROOT", root)
	path := writeConfig(t, `
install_root: ${RESTORE_ROOT}
worker:
  command: ["/usr/bin/env", "python3", "run.py"]
output_root: results
device: 0
with_scratch: false
high_res: true
preview:
  decoder: opencv
history:
  path: "off"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, root, cfg.InstallRoot)
	assert.Equal(t, []string{"/usr/bin/env", "python3", "run.py"}, cfg.Worker.Command)
	assert.Equal(t, filepath.Join(root, "results"), cfg.OutputRoot)
	assert.Equal(t, 0, cfg.Device)
	assert.False(t, cfg.WithScratch)
	assert.True(t, cfg.HighRes)
	assert.Equal(t, DecoderOpenCV, cfg.Preview.Decoder)
	assert.Empty(t, cfg.HistoryPath())
}

func TestLoadRelativeInstallRootResolvesAgainstConfigDir(t *testing.T) {
	path := writeConfig(t, "install_root: worker\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "worker"), cfg.InstallRoot)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty command", body: "install_root: /opt/x\nworker:\n  command: []\n"},
		{name: "unknown decoder", body: "install_root: /opt/x\npreview:\n  decoder: magick\n"},
		{name: "malformed yaml", body: "install_root: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.InstallRoot)
	assert.Equal(t, filepath.Join(cfg.InstallRoot, "output_gui"), cfg.OutputRoot)
}

func TestLoadMissingFileIsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
