package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"k1bridge/internal/transform"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "options.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const validConfig = `{
	"ws_url": "ws://printer.local:9999/",
	"ws_headers": {"Authorization": "Bearer token"},
	"mqtt": {"host": "localhost", "username": "mqtt", "password": "secret"},
	"base_topic": "k1max",
	"device_id": "k1_max",
	"device_name": "K1 Max",
	"mappings": [
		{"unique_id": "p", "name": "Progress", "jsonpath": "$.progress", "transform": "percent_0_1_to_0_100"},
		{"unique_id": "state", "name": "State", "jsonpath": "$.state"}
	],
	"debug": {"log_raw_frames": false, "raw_frames_limit": 10}
}`

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "ws://printer.local:9999/", cfg.WSURL)
	assert.Equal(t, "Bearer token", cfg.WSHeaders["Authorization"])
	assert.Len(t, cfg.Mappings, 2)

	// Defaults.
	assert.Equal(t, DefaultMQTTPort, cfg.MQTT.Port)
	assert.Equal(t, DefaultDiscoveryPrefix, cfg.MQTT.DiscoveryPrefix)
	assert.Equal(t, transform.ModeNone, cfg.Mappings[1].Transform)

	// The raw-frame budget only applies when raw logging is on.
	assert.Equal(t, 0, cfg.Debug.RawFramesLimit)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadInvalidJSON(t *testing.T) {
	_, err := Load(writeConfig(t, "{not json"))
	assert.Error(t, err)
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name:    "missing ws_url",
			content: `{"mqtt": {"host": "localhost"}, "base_topic": "t", "device_id": "d", "device_name": "n"}`,
			errMsg:  "ws_url is required",
		},
		{
			name:    "missing mqtt host",
			content: `{"ws_url": "ws://x/", "mqtt": {}, "base_topic": "t", "device_id": "d", "device_name": "n"}`,
			errMsg:  "mqtt.host is required",
		},
		{
			name:    "missing base topic",
			content: `{"ws_url": "ws://x/", "mqtt": {"host": "localhost"}, "device_id": "d", "device_name": "n"}`,
			errMsg:  "base_topic is required",
		},
		{
			name: "duplicate unique_id",
			content: `{"ws_url": "ws://x/", "mqtt": {"host": "localhost"}, "base_topic": "t",
				"device_id": "d", "device_name": "n",
				"mappings": [
					{"unique_id": "p", "jsonpath": "$.a"},
					{"unique_id": "p", "jsonpath": "$.b"}
				]}`,
			errMsg: `duplicate unique_id "p"`,
		},
		{
			name: "empty unique_id",
			content: `{"ws_url": "ws://x/", "mqtt": {"host": "localhost"}, "base_topic": "t",
				"device_id": "d", "device_name": "n",
				"mappings": [{"jsonpath": "$.a"}]}`,
			errMsg: "unique_id is required",
		},
		{
			name: "missing jsonpath",
			content: `{"ws_url": "ws://x/", "mqtt": {"host": "localhost"}, "base_topic": "t",
				"device_id": "d", "device_name": "n",
				"mappings": [{"unique_id": "p"}]}`,
			errMsg: "jsonpath is required",
		},
		{
			name: "unknown transform",
			content: `{"ws_url": "ws://x/", "mqtt": {"host": "localhost"}, "base_topic": "t",
				"device_id": "d", "device_name": "n",
				"mappings": [{"unique_id": "p", "jsonpath": "$.a", "transform": "celsius"}]}`,
			errMsg: `unknown transform "celsius"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
