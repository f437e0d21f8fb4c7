// Package config resolves the benchmark run parameters from flags,
// environment variables, an optional config file and positional
// arguments.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Defaults applied when neither a flag, an environment variable nor a
// positional argument provides a value.
const (
	DefaultDataDir      = "data"
	DefaultScale        = 1
	DefaultReps         = 3
	DefaultTimeout      = 300 * time.Second
	DefaultHarnessesDir = "harnesses"
)

// Config holds the parameters of a benchmark run.
type Config struct {
	DataDir      string        `mapstructure:"data-dir" validate:"required"`
	Scale        int           `mapstructure:"scale" validate:"gte=0"`
	Reps         int           `mapstructure:"reps" validate:"gte=1"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Libraries    []string      `mapstructure:"libraries" validate:"dive,required"`
	HarnessesDir string        `mapstructure:"harnesses-dir" validate:"required"`
	DB           string        `mapstructure:"db"`
	Build        bool          `mapstructure:"build"`
}

// RegisterFlags adds the run flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("data-dir", "",
		"Directory holding .vcd and .fst traces (env DATA_DIR, default "+DefaultDataDir+")")
	fs.Int("scale", DefaultScale,
		"Scale factor, recorded only (env SCALE)")
	fs.Int("reps", DefaultReps,
		"Trials per operation (env REPS)")
	fs.String("timeout", strconv.Itoa(int(DefaultTimeout/time.Second)),
		"Per-trial timeout, seconds or a duration (env TIMEOUT)")
	fs.StringSlice("libraries", nil,
		"Libraries to benchmark (env LIBRARIES, default all)")
	fs.String("harnesses-dir", DefaultHarnessesDir,
		"Directory holding external harness sources and binaries (env HARNESSES_DIR)")
	fs.String("db", "",
		"SQLite database recording results (env WAVEBENCH_DB)")
	fs.Bool("build", false,
		"Build external harness binaries before running")
	fs.String("config", "",
		"Optional config file (env WAVEBENCH_CONFIG)")
}

// envNames maps config keys to the environment variables they read.
var envNames = map[string]string{
	"data-dir":      "DATA_DIR",
	"scale":         "SCALE",
	"reps":          "REPS",
	"timeout":       "TIMEOUT",
	"libraries":     "LIBRARIES",
	"harnesses-dir": "HARNESSES_DIR",
	"db":            "WAVEBENCH_DB",
	"config":        "WAVEBENCH_CONFIG",
}

// Load resolves a Config. Flags that were set win over environment
// variables, which win over the config file. The data directory and
// scale fall back to the first and second positional arguments.
func Load(fs *pflag.FlagSet, args []string) (Config, error) {
	v := viper.New()
	for key, env := range envNames {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if err := v.BindPFlags(fs); err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config

	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		secondsHook(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir
		if len(args) > 0 {
			cfg.DataDir = args[0]
		}
	}

	scaleSet := fs.Changed("scale") || envSet(envNames["scale"]) || v.InConfig("scale")
	if !scaleSet && len(args) > 1 {
		if scale, err := cast.ToIntE(args[1]); err == nil {
			cfg.Scale = scale
		}
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the field constraints of cfg.
func Validate(cfg Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

// secondsHook decodes time.Duration fields, reading a bare number as
// seconds and anything else as a Go duration string.
func secondsHook() mapstructure.DecodeHookFuncType {
	durationType := reflect.TypeOf(time.Duration(0))

	return func(from, to reflect.Type, data any) (any, error) {
		if to != durationType {
			return data, nil
		}

		if s, ok := data.(string); ok {
			s = strings.TrimSpace(s)
			if secs, err := strconv.ParseFloat(s, 64); err == nil {
				return time.Duration(secs * float64(time.Second)), nil
			}

			return time.ParseDuration(s)
		}

		if from == durationType {
			return data, nil
		}

		secs, err := cast.ToFloat64E(data)
		if err != nil {
			return nil, fmt.Errorf("decode duration %v: %w", data, err)
		}

		return time.Duration(secs * float64(time.Second)), nil
	}
}

func envSet(name string) bool {
	val, ok := os.LookupEnv(name)
	return ok && val != ""
}
