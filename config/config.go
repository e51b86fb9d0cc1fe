// Package config loads the hostbridge configuration from a YAML file,
// HOSTBRIDGE_* environment variables and command-line overrides.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/reglet-dev/hostbridge/hostfuncs"
	"github.com/reglet-dev/hostbridge/infrastructure/clock"
	"github.com/reglet-dev/hostbridge/infrastructure/durable"
	"github.com/reglet-dev/hostbridge/infrastructure/vfs"
	hostwazero "github.com/reglet-dev/hostbridge/infrastructure/wazero"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "HOSTBRIDGE"

// Config holds the application configuration.
type Config struct {
	Log   LogConfig   `mapstructure:"log" json:"log" yaml:"log"`
	Store StoreConfig `mapstructure:"store" json:"store" yaml:"store"`
	Host  HostConfig  `mapstructure:"host" json:"host" yaml:"host"`
}

// LogConfig selects the host logger.
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level" yaml:"level" validate:"oneof=debug info warn error" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,default=info"`
	Format string `mapstructure:"format" json:"format" yaml:"format" validate:"oneof=text json" jsonschema:"enum=text,enum=json,default=text"`
}

// StoreConfig selects the durable backend.
type StoreConfig struct {
	Driver string `mapstructure:"driver" json:"driver" yaml:"driver" validate:"oneof=badger memory" jsonschema:"enum=badger,enum=memory,default=badger"`
	Path   string `mapstructure:"path" json:"path,omitempty" yaml:"path" validate:"required_if=Driver badger" jsonschema:"description=Database directory; required by the badger driver"`
}

// HostConfig configures the runtime the core runs in.
type HostConfig struct {
	ModuleName      string `mapstructure:"module_name" json:"module_name" yaml:"module_name" validate:"required" jsonschema:"default=env"`
	Mountpoint      string `mapstructure:"mountpoint" json:"mountpoint" yaml:"mountpoint" validate:"required,startswith=/" jsonschema:"default=/persist"`
	ScratchDir      string `mapstructure:"scratch_dir" json:"scratch_dir,omitempty" yaml:"scratch_dir" jsonschema:"description=Host directory mounted at the guest root; a temporary one when empty"`
	ClockResolution string `mapstructure:"clock_resolution" json:"clock_resolution" yaml:"clock_resolution" validate:"duration" jsonschema:"default=1ms"`
	Workers         int    `mapstructure:"workers" json:"workers" yaml:"workers" validate:"min=1,max=64" jsonschema:"minimum=1,maximum=64,default=4"`
	FlushOnExit     bool   `mapstructure:"flush_on_exit" json:"flush_on_exit" yaml:"flush_on_exit"`
}

// Resolution returns the parsed clock resolution.
func (h HostConfig) Resolution() time.Duration {
	d, err := time.ParseDuration(h.ClockResolution)
	if err != nil {
		return clock.DefaultResolution
	}
	return d
}

// defaults are registered with viper so every key can also be set from
// the environment.
var defaults = map[string]any{
	"log.level":             "info",
	"log.format":            "text",
	"store.driver":          durable.DriverBadger,
	"store.path":            ".hostbridge/store",
	"host.module_name":      hostwazero.DefaultModuleName,
	"host.mountpoint":       hostfuncs.DefaultMountpoint,
	"host.scratch_dir":      "",
	"host.clock_resolution": clock.DefaultResolution.String(),
	"host.workers":          vfs.DefaultWorkers,
	"host.flush_on_exit":    false,
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg, err := Load("", nil)
	if err != nil {
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return cfg
}

// Load reads configFile (optional), the environment and overrides, in
// increasing order of precedence. Override keys use the dotted form,
// e.g. "store.driver".
func Load(configFile string, overrides map[string]any) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate is a package-level singleton; validators cache struct metadata.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		d, err := time.ParseDuration(fl.Field().String())
		return err == nil && d >= 0
	})
	return v
}

// Validate checks cfg and reports every invalid field.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config validation failed: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: must satisfy %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: must satisfy %s (got %v)", field, fe.Tag(), fe.Value()))
		}
	}
	return fmt.Errorf("config validation failed: %s", strings.Join(msgs, "; "))
}
