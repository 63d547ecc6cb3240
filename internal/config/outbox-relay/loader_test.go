package outbox_relay_config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"kafka:9092"}, cfg.Out.Brokers)
	assert.Equal(t, "ems.resource.changed", cfg.Out.Topic)
	assert.Equal(t, 4, cfg.Relay.Workers)
	assert.Equal(t, time.Minute, cfg.Relay.InProgressTTL)
	assert.Equal(t, 5*time.Second, cfg.DB.QueryTimeout)
	assert.Equal(t, 10, cfg.DB.ConnectAttempts)
	assert.Equal(t, 72*time.Hour, cfg.Relay.Retention)
	assert.Equal(t, time.Hour, cfg.Relay.PurgeEvery)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("RELAY_BATCH_SIZE", "25")
	t.Setenv("KAFKA_OUT_TOPIC", "ems.test.changed")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Relay.BatchSize)
	assert.Equal(t, "ems.test.changed", cfg.Out.Topic)
}
