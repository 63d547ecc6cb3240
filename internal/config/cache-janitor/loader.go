package cache_janitor_config

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

	v.SetDefault("kafka_in.brokers", []string{"kafka:9092"})
	v.SetDefault("kafka_in.topic", "ems.resource.changed")
	v.SetDefault("kafka_in.group_id", "cache-janitor")
	v.SetDefault("kafka_in.partitions", 3)

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.ping_interval", "5s")

	v.SetDefault("resources", []string{"tickets", "hardware", "licenses"})
	v.SetDefault("server.metrics_addr", ":8083")
	v.SetDefault("env", "production")
	v.SetDefault("log_level", "info")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
