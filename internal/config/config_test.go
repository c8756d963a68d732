package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-rom-manager/internal/header"
	"github.com/deploymenttheory/go-rom-manager/internal/utils/errors"
)

const sampleConfig = `
log_format: json
dat_dir: /dats
data_dir: /var/lib/rom-manager
workers: 4
collections:
  - name: nes
    platform: Nintendo NES
    dat: nes.dat
    rom_dir: /roms/nes
    header:
      length: 16
      rules:
        - offset: 0
          value: "4E45531A"
  - name: snes
    dat: /elsewhere/snes.dat.xz
    rom_dir: /roms/snes
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rom-manager.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	cfg, used, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, used)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 4, cfg.Workers)
	assert.False(t, cfg.DryRun)
	require.Len(t, cfg.Collections, 2)

	nes, err := cfg.Collection("nes")
	require.NoError(t, err)
	assert.Equal(t, "Nintendo NES", nes.Platform)
	assert.Equal(t, header.Config{Length: 16, Rules: []header.Rule{{Offset: 0, Value: "4E45531A"}}}, nes.Header)
	assert.Equal(t, filepath.Join("/dats", "nes.dat"), cfg.DATPath(nes))

	snes, err := cfg.Collection("snes")
	require.NoError(t, err)
	assert.Equal(t, "/elsewhere/snes.dat.xz", cfg.DATPath(snes))
	assert.Zero(t, snes.Header.Length)

	_, err = cfg.Collection("gba")
	assert.ErrorIs(t, err, errors.ErrCollectionNotFound)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("ROM_MANAGER_WORKERS", "8")
	t.Setenv("ROM_MANAGER_DRY_RUN", "true")

	cfg, _, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Workers)
	assert.True(t, cfg.DryRun)
}

func TestLoadDefaults(t *testing.T) {
	cfg, _, err := Load(writeConfig(t, "collections: []\n"))
	require.NoError(t, err)
	assert.Equal(t, "human", cfg.LogFormat)
	assert.Equal(t, 1, cfg.Workers)
	assert.NotEmpty(t, cfg.DataDir)
	assert.NotEmpty(t, cfg.LogFile)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"duplicate name": `
collections:
  - {name: nes, dat: a.dat, rom_dir: /a}
  - {name: nes, dat: b.dat, rom_dir: /b}
`,
		"missing dat": `
collections:
  - {name: nes, rom_dir: /a}
`,
		"odd header value": `
collections:
  - name: nes
    dat: a.dat
    rom_dir: /a
    header: {length: 16, rules: [{offset: 0, value: "4E4"}]}
`,
		"bad workers": "workers: -2\n",
		"bad format":  "log_format: xml\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := Load(writeConfig(t, content))
			assert.ErrorIs(t, err, errors.ErrConfigInvalid)
		})
	}
}

func TestWorkersZeroMeansOnePerCPU(t *testing.T) {
	cfg, _, err := Load(writeConfig(t, "workers: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)

	assert.Equal(t, runtime.NumCPU(), ResolveWorkers(0))
	assert.Equal(t, 3, ResolveWorkers(3))
	assert.Equal(t, -1, ResolveWorkers(-1))
}

func TestLoadUnreadableFile(t *testing.T) {
	_, _, err := Load(writeConfig(t, "collections: [\n"))
	assert.ErrorIs(t, err, errors.ErrConfigParseError)
}
