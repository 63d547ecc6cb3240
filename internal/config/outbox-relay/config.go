package outbox_relay_config

import (
	"time"

	"github.com/NordCoder/ems/internal/obs"
	pginfra "github.com/NordCoder/ems/internal/repository/postgres"
)

type KafkaOut struct {
	Brokers    []string `mapstructure:"brokers"`
	Topic      string   `mapstructure:"topic"`
	Partitions int      `mapstructure:"partitions"`
}

type Relay struct {
	Workers       int           `mapstructure:"workers"`
	BatchSize     int           `mapstructure:"batch_size"`
	Wait          time.Duration `mapstructure:"wait"`
	InProgressTTL time.Duration `mapstructure:"in_progress_ttl"`
	// Retention is how long delivered rows stay before purge.
	Retention  time.Duration `mapstructure:"retention"`
	PurgeEvery time.Duration `mapstructure:"purge_every"`
}

type Server struct {
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

func (oc *OTEL) AsOTELConfig() *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:      oc.Enable,
		Endpoint:    oc.OTLPEndpoint,
		ServiceName: oc.ServiceName,
		SampleRatio: oc.SampleRatio,
	}
}

type Config struct {
	DB       pginfra.Config `mapstructure:"db"`
	Out      KafkaOut       `mapstructure:"kafka_out"`
	Relay    Relay          `mapstructure:"relay"`
	Server   Server         `mapstructure:"server"`
	OTEL     OTEL           `mapstructure:"otel"`
	Env      string         `mapstructure:"env"`
	LogLevel string         `mapstructure:"log_level"`
}
