package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// The embedded default config is what first runs write to disk, so it has
// to parse and carry sane values for every section.
func TestEmbeddedDefaultConfig(t *testing.T) {
	t.Parallel()

	data, err := configFiles.ReadFile("config.yaml")
	require.NoError(t, err)

	var cfg map[string]any
	require.NoError(t, yaml.Unmarshal(data, &cfg))

	for _, section := range []string{"main", "output", "discovery", "imageprovider", "scheduler", "backup"} {
		assert.Contains(t, cfg, section)
	}

	discoverySection, ok := cfg["discovery"].(map[string]any)
	require.True(t, ok)
	quota, ok := discoverySection["dailyquota"].(int)
	require.True(t, ok)
	assert.Positive(t, quota)
}

func TestGetDefaultConfigPaths(t *testing.T) {
	paths, err := GetDefaultConfigPaths()
	require.NoError(t, err)
	assert.NotEmpty(t, paths)
}
