package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// WatchConfig re-decodes the configuration whenever the config file
// changes. onChange receives the new Config, or the error that made it
// invalid; the running configuration is left to the caller.
func WatchConfig(v *viper.Viper, onChange func(*Config, error)) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(fsnotify.Event) {
		onChange(Decode(v))
	})
	v.WatchConfig()
}
