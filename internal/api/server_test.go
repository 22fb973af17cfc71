package api

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"k1bridge/internal/bridge"
	"k1bridge/internal/config"
	"k1bridge/internal/extract"
	"k1bridge/internal/mqtt"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{
		WSURL:      "ws://127.0.0.1:1/ws",
		BaseTopic:  "k1max",
		DeviceID:   "k1_max",
		DeviceName: "K1 Max",
		MQTT:       config.MQTT{Host: "localhost", Port: 1883, DiscoveryPrefix: "homeassistant"},
	}

	extractor, err := extract.New(nil)
	require.NoError(t, err)

	logger := log.New(&bytes.Buffer{}, "[k1bridge] ", 0)
	publisher := mqtt.NewPublisher(&mqtt.Client{}, cfg, logger)
	b := bridge.New(cfg, extractor, publisher, logger)

	return NewServer(b, logger)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestStatus(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var st bridge.Status
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	assert.Equal(t, bridge.StateDisconnected, st.State)
	assert.False(t, st.BrokerConnected)
	assert.Equal(t, uint64(0), st.Frames)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "k1bridge_frames_received_total")
}
