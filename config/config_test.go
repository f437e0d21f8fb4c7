package config

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()

	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))

	return fs
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newFlags(t), nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultDataDir, cfg.DataDir)
	assert.Equal(t, DefaultScale, cfg.Scale)
	assert.Equal(t, DefaultReps, cfg.Reps)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultHarnessesDir, cfg.HarnessesDir)
	assert.Empty(t, cfg.Libraries)
	assert.Empty(t, cfg.DB)
	assert.False(t, cfg.Build)
}

func TestLoadFlags(t *testing.T) {
	fs := newFlags(t,
		"--data-dir", "/traces",
		"--reps", "5",
		"--timeout", "90s",
		"--libraries", "go-vcd,wellen",
		"--db", "bench.db",
		"--build",
	)

	cfg, err := Load(fs, nil)
	require.NoError(t, err)

	assert.Equal(t, "/traces", cfg.DataDir)
	assert.Equal(t, 5, cfg.Reps)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
	assert.Equal(t, []string{"go-vcd", "wellen"}, cfg.Libraries)
	assert.Equal(t, "bench.db", cfg.DB)
	assert.True(t, cfg.Build)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("DATA_DIR", "/env/traces")
	t.Setenv("SCALE", "3")
	t.Setenv("REPS", "7")
	t.Setenv("TIMEOUT", "12")
	t.Setenv("LIBRARIES", "fst-reader,fstapi")
	t.Setenv("HARNESSES_DIR", "/opt/harnesses")

	cfg, err := Load(newFlags(t), []string{"positional", "9"})
	require.NoError(t, err)

	assert.Equal(t, "/env/traces", cfg.DataDir)
	assert.Equal(t, 3, cfg.Scale)
	assert.Equal(t, 7, cfg.Reps)
	assert.Equal(t, 12*time.Second, cfg.Timeout)
	assert.Equal(t, []string{"fst-reader", "fstapi"}, cfg.Libraries)
	assert.Equal(t, "/opt/harnesses", cfg.HarnessesDir)
}

func TestLoadFlagBeatsEnv(t *testing.T) {
	t.Setenv("REPS", "7")

	cfg, err := Load(newFlags(t, "--reps", "2"), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Reps)
}

func TestLoadPositional(t *testing.T) {
	cfg, err := Load(newFlags(t), []string{"traces", "4"})
	require.NoError(t, err)

	assert.Equal(t, "traces", cfg.DataDir)
	assert.Equal(t, 4, cfg.Scale)
}

func TestLoadPositionalBadScale(t *testing.T) {
	cfg, err := Load(newFlags(t), []string{"traces", "big"})
	require.NoError(t, err)

	assert.Equal(t, DefaultScale, cfg.Scale)
}

func TestLoadScaleZeroFromEnv(t *testing.T) {
	t.Setenv("SCALE", "0")

	cfg, err := Load(newFlags(t), []string{"traces", "5"})
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Scale)
}

func TestLoadScaleFlagBeatsPositional(t *testing.T) {
	cfg, err := Load(newFlags(t, "--scale", "2"), []string{"traces", "5"})
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Scale)
}

func TestScaleFlagDefault(t *testing.T) {
	fs := newFlags(t)

	assert.Equal(t, strconv.Itoa(DefaultScale), fs.Lookup("scale").DefValue)
}

func TestLoadIgnoresBareConfigAndDBEnv(t *testing.T) {
	t.Setenv("CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("DB", "stray.db")

	cfg, err := Load(newFlags(t), nil)
	require.NoError(t, err)

	assert.Empty(t, cfg.DB)
}

func TestLoadPrefixedEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wavebench.yaml")
	require.NoError(t, os.WriteFile(path, []byte("reps: 4\n"), 0o644))

	t.Setenv("WAVEBENCH_CONFIG", path)
	t.Setenv("WAVEBENCH_DB", "bench.db")

	cfg, err := Load(newFlags(t), nil)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Reps)
	assert.Equal(t, "bench.db", cfg.DB)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wavebench.yaml")
	content := "reps: 9\ntimeout: 45\nharnesses-dir: /srv/harnesses\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(newFlags(t, "--config", path), nil)
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.Reps)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.Equal(t, "/srv/harnesses", cfg.HarnessesDir)
}

func TestLoadMissingConfigFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	_, err := Load(newFlags(t, "--config", missing), nil)
	assert.ErrorContains(t, err, "read config")
}

func TestLoadTimeoutForms(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{in: "300", want: 300 * time.Second},
		{in: "1.5", want: 1500 * time.Millisecond},
		{in: "2m", want: 2 * time.Minute},
		{in: " 10 ", want: 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			cfg, err := Load(newFlags(t, "--timeout", tt.in), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Timeout)
		})
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "zero reps", args: []string{"--reps", "0"}, want: "Reps"},
		{name: "zero timeout", args: []string{"--timeout", "0"}, want: "Timeout"},
		{name: "negative timeout", args: []string{"--timeout", "-5s"}, want: "Timeout"},
		{name: "garbage timeout", args: []string{"--timeout", "soon"}, want: "decode config"},
		{name: "empty harnesses dir", args: []string{"--harnesses-dir", ""}, want: "HarnessesDir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(newFlags(t, tt.args...), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		DataDir:      "data",
		Scale:        1,
		Reps:         1,
		Timeout:      time.Second,
		HarnessesDir: "harnesses",
	}
	assert.NoError(t, Validate(valid))

	invalid := valid
	invalid.Libraries = []string{"go-vcd", ""}
	assert.ErrorContains(t, Validate(invalid), "Libraries[1]")
}
