package cache_janitor_config

import (
	"time"
)

type KafkaIn struct {
	Brokers    []string `mapstructure:"brokers"`
	Topic      string   `mapstructure:"topic"`
	GroupID    string   `mapstructure:"group_id"`
	Partitions int      `mapstructure:"partitions"`
}

type Redis struct {
	URL          string        `mapstructure:"url"`
	PingInterval time.Duration `mapstructure:"ping_interval"`
}

type Server struct {
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type Config struct {
	In        KafkaIn  `mapstructure:"kafka_in"`
	Redis     Redis    `mapstructure:"redis"`
	Server    Server   `mapstructure:"server"`
	Resources []string `mapstructure:"resources"`
	Env       string   `mapstructure:"env"`
	LogLevel  string   `mapstructure:"log_level"`
}

func (c *Config) ResourceSet() map[string]bool {
	out := make(map[string]bool, len(c.Resources))
	for _, r := range c.Resources {
		out[r] = true
	}
	return out
}
