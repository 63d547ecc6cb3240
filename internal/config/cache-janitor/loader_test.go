package cache_janitor_config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "cache-janitor", cfg.In.GroupID)
	assert.Equal(t, map[string]bool{"tickets": true, "hardware": true, "licenses": true}, cfg.ResourceSet())
}
