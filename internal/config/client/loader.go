package client_config

import (
	"strings"

	"github.com/spf13/viper"
)

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		_ = v.ReadInConfig()
	}

	v.SetDefault("api.base_url", "http://localhost:8080/api")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.page_size", 10)

	v.SetDefault("realtime.url", "ws://localhost:8080/ws")
	v.SetDefault("realtime.handshake_timeout", "15s")
	v.SetDefault("realtime.base_delay", "2s")
	v.SetDefault("realtime.max_delay", "32s")
	v.SetDefault("realtime.max_attempts", 5)
	v.SetDefault("realtime.replay_buffer", 50)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetEnvPrefix("stayloop")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
