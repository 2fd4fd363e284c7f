package config

import (
	"fmt"
	"net"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the exporter,
// e.g. MFS_EXPORTER_MOOSEFS_HOST for moosefs.host.
const EnvPrefix = "MFS_EXPORTER"

var valid = validator.New()

// flagAliases maps short, top-level CLI flags onto their config keys.
// Grouped flags (server.*, log.*) are already named after their key.
var flagAliases = map[string]string{
	"host":         "moosefs.host",
	"master-port":  "moosefs.port",
	"interval":     "moosefs.interval",
	"timeout":      "moosefs.timeout",
	"mfscli":       "moosefs.mfscli",
	"port":         "server.port",
	"listen-host":  "server.host",
	"host-metrics": "collectors.host.enable",
}

// Config aggregates every section of the exporter configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	MooseFS    MooseFSConfig    `yaml:"moosefs" mapstructure:"moosefs"`
	Collectors CollectorsConfig `yaml:"collectors" mapstructure:"collectors"`
	Log        ZapLogConfig     `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the HTTP listener serving /metrics.
type ServerConfig struct {
	Host         string        `yaml:"host" mapstructure:"host" validate:"omitempty,ip|hostname_rfc1123"`
	Port         int           `yaml:"port" mapstructure:"port" validate:"required,gt=0,lte=65535"`
	ReadTimeout  time.Duration `yaml:"read-timeout" mapstructure:"read-timeout" validate:"required,gt=0"`
	WriteTimeout time.Duration `yaml:"write-timeout" mapstructure:"write-timeout" validate:"required,gt=0"`
	IdleTimeout  time.Duration `yaml:"idle-timeout" mapstructure:"idle-timeout" validate:"required,gt=0"`
}

// Addr returns the host:port the HTTP server listens on.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// MooseFSConfig describes how to reach the MooseFS master.
type MooseFSConfig struct {
	Host     string        `yaml:"host" mapstructure:"host" validate:"required,ip|hostname_rfc1123"`
	Port     int           `yaml:"port" mapstructure:"port" validate:"required,gt=0,lte=65535"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval" validate:"required,gt=0"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"required,gt=0"`
	CLIPath  string        `yaml:"mfscli" mapstructure:"mfscli" validate:"required"`
}

// CollectorsConfig toggles the optional collectors.
type CollectorsConfig struct {
	Host HostCollectorConfig `yaml:"host" mapstructure:"host"`
}

// HostCollectorConfig enables load/CPU metrics of the exporter's own host.
type HostCollectorConfig struct {
	Enable  bool `yaml:"enable" mapstructure:"enable"`
	PerCore bool `yaml:"per-core" mapstructure:"per-core"`
}

// ZapLogConfig configures the console and rotating file loggers.
type ZapLogConfig struct {
	Level     string `yaml:"level" mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format    string `yaml:"format" mapstructure:"format" validate:"required,oneof=json console"`
	Path      string `yaml:"path" mapstructure:"path" validate:"required"`
	MaxSize   int    `yaml:"max-size" mapstructure:"max-size" validate:"gt=0"`
	MaxBackup int    `yaml:"max-backup" mapstructure:"max-backup" validate:"gte=0"`
	MaxAge    int    `yaml:"max-age" mapstructure:"max-age" validate:"gte=0"`
}

// NewDefaultConfig returns a configuration where every field has a usable value.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         9841,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		MooseFS: MooseFSConfig{
			Host:     "127.0.0.1",
			Port:     9421,
			Interval: 15 * time.Second,
			Timeout:  10 * time.Second,
			CLIPath:  "mfscli",
		},
		Collectors: CollectorsConfig{
			Host: HostCollectorConfig{Enable: false, PerCore: false},
		},
		Log: ZapLogConfig{
			Level:     "info",
			Format:    "console",
			Path:      "./logs",
			MaxSize:   100,
			MaxBackup: 0,
			MaxAge:    7,
		},
	}
}

// LoadConfigWithCli merges flags, the optional --config YAML file and the
// environment into a validated Config. The returned viper instance is kept
// for WatchConfig.
func LoadConfigWithCli(cmd *cobra.Command) (*Config, *viper.Viper, error) {
	v := viper.New()
	setDefaults(v, NewDefaultConfig())

	// 1. flags -> viper
	flags := cmd.Flags()
	if err := v.BindPFlags(flags); err != nil {
		return nil, nil, fmt.Errorf("bind flags: %w", err)
	}
	for name, key := range flagAliases {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	// 2. optional config file
	if configFile, _ := flags.GetString("config"); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	// 3. environment (moosefs.host -> MFS_EXPORTER_MOOSEFS_HOST)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	cfg, err := Decode(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

// setDefaults registers every key so that the environment is consulted even
// for keys without a flag or config file entry.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.read-timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write-timeout", d.Server.WriteTimeout)
	v.SetDefault("server.idle-timeout", d.Server.IdleTimeout)

	v.SetDefault("moosefs.host", d.MooseFS.Host)
	v.SetDefault("moosefs.port", d.MooseFS.Port)
	v.SetDefault("moosefs.interval", d.MooseFS.Interval)
	v.SetDefault("moosefs.timeout", d.MooseFS.Timeout)
	v.SetDefault("moosefs.mfscli", d.MooseFS.CLIPath)

	v.SetDefault("collectors.host.enable", d.Collectors.Host.Enable)
	v.SetDefault("collectors.host.per-core", d.Collectors.Host.PerCore)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.path", d.Log.Path)
	v.SetDefault("log.max-size", d.Log.MaxSize)
	v.SetDefault("log.max-backup", d.Log.MaxBackup)
	v.SetDefault("log.max-age", d.Log.MaxAge)
}

// Decode unmarshals the current viper settings over the defaults and validates the result.
func Decode(v *viper.Viper) (*Config, error) {
	cfg := NewDefaultConfig()

	decoderConfig := &mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			secondsToDurationHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	}
	decoder, err := mapstructure.NewDecoder(decoderConfig)
	if err != nil {
		return nil, fmt.Errorf("new decoder: %w", err)
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// secondsToDurationHookFunc treats bare numbers ("15", 15, 1.5) as seconds
// when the target is a time.Duration, matching the -i flag semantics.
func secondsToDurationHookFunc() mapstructure.DecodeHookFuncType {
	durationType := reflect.TypeOf(time.Duration(0))
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if t != durationType || f == durationType {
			return data, nil
		}
		switch f.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return time.Duration(reflect.ValueOf(data).Int()) * time.Second, nil
		case reflect.Float32, reflect.Float64:
			return time.Duration(reflect.ValueOf(data).Float() * float64(time.Second)), nil
		case reflect.String:
			s := strings.TrimSpace(data.(string))
			if secs, err := strconv.ParseFloat(s, 64); err == nil {
				return time.Duration(secs * float64(time.Second)), nil
			}
		}
		return data, nil
	}
}

// Validate checks struct tags first, then each section's own rules.
func (c *Config) Validate() error {
	if err := valid.Struct(c); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.MooseFS.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	return nil
}
