package main

import (
	"errors"
	"strings"
	"time"

	"controlling_pod/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

func setDefaults() {
	viper.SetDefault("port", "8080")
	viper.SetDefault("log.level", logger.InfoLevel)
	viper.SetDefault("db.path", "pod.db")

	// listen: the pod controller connects to us; dial: we connect to it
	viper.SetDefault("device.mode", "listen")
	viper.SetDefault("device.simulate", false)
	viper.SetDefault("device.socket_path", "/deviceinfo/dac.sock")
	viper.SetDefault("device.settle_delay", 2*time.Second)
	viper.SetDefault("device.reconnect_min", 250*time.Millisecond)
	viper.SetDefault("device.reconnect_max", 30*time.Second)
	viper.SetDefault("device.ping_interval", 10*time.Second)
	viper.SetDefault("device.temperature_duration", 12*time.Hour)
	viper.SetDefault("device.sim_tick", time.Second)

	viper.SetDefault("nudge.quiet_period", 2*time.Second)
	viper.SetDefault("jobs.timeout", 2*time.Minute)

	viper.SetDefault("analysis.mode", "none")
	viper.SetDefault("analysis.command", []string{})
	viper.SetDefault("analysis.mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("analysis.mqtt.topic", "")
	viper.SetDefault("analysis.mqtt.client_id", "controlling-pod")
	viper.SetDefault("analysis.lookback", 12*time.Hour)
	viper.SetDefault("analysis.lookahead", time.Hour)
}

// loadConfig reads configs/config.yml over the defaults. POD_DEVICE_SOCKET_PATH
// overrides device.socket_path and so on. A missing file is not an error.
func loadConfig() error {
	setDefaults()
	viper.SetEnvPrefix("pod")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

// watchConfig re-applies the settings that can change without a restart.
func watchConfig(log *logger.Logger) {
	if viper.ConfigFileUsed() == "" {
		return
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		level := viper.GetString("log.level")
		log.SetLevel(level)
		log.Infow("config_reloaded", "file", e.Name, "op", e.Op.String(), "log_level", log.Level())
	})
	viper.WatchConfig()
}
