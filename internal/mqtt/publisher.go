package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"

	"k1bridge/internal/config"
)

// Publisher emits the two outbound message kinds for the bridge:
// retained discovery records and retained per-field state values.
type Publisher struct {
	client          *Client
	logger          *log.Logger
	baseTopic       string
	discoveryPrefix string
	deviceID        string
	deviceName      string
}

// NewPublisher creates a Publisher bound to the configured topic layout.
func NewPublisher(client *Client, cfg *config.Config, logger *log.Logger) *Publisher {
	return &Publisher{
		client:          client,
		logger:          logger,
		baseTopic:       cfg.BaseTopic,
		discoveryPrefix: cfg.MQTT.DiscoveryPrefix,
		deviceID:        cfg.DeviceID,
		deviceName:      cfg.DeviceName,
	}
}

// PublishDiscovery publishes the retained discovery record for one
// mapping at QoS 1, so a hub that reconnects later still receives it.
// Republishing after a reconnect produces the identical payload.
func (p *Publisher) PublishDiscovery(m config.Mapping) error {
	disc := NewDiscoveryConfig(m, p.deviceID, p.deviceName, p.baseTopic)
	payload, err := json.Marshal(disc)
	if err != nil {
		return fmt.Errorf("failed to marshal discovery config for %q: %w", m.UniqueID, err)
	}

	topic := DiscoveryTopic(p.discoveryPrefix, p.deviceID, m.UniqueID)
	if err := p.client.Publish(topic, 1, true, payload); err != nil {
		return err
	}

	if p.logger != nil {
		p.logger.Printf("Published discovery: %s", topic)
	}
	return nil
}

// Connected reports whether the underlying bus client currently holds
// a broker session.
func (p *Publisher) Connected() bool {
	return p.client.IsConnected()
}

// PublishState publishes a field value to its state topic, retained at
// QoS 0. A nil value publishes an empty payload so the topic is
// cleared rather than left stale. The call does not wait for broker
// acknowledgment.
func (p *Publisher) PublishState(uid string, value any) error {
	topic := StateTopic(p.baseTopic, uid)
	return p.client.PublishAsync(topic, 0, true, formatValue(value))
}

// formatValue renders a scalar for the state payload. Floats always
// carry a decimal point, so a rounded 42.0 publishes as "42.0", never
// "42"; integers publish without one.
func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return formatFloat(t, 64)
	case float32:
		return formatFloat(float64(t), 32)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func formatFloat(f float64, bitSize int) string {
	s := strconv.FormatFloat(f, 'f', -1, bitSize)
	if !strings.Contains(s, ".") && !math.IsInf(f, 0) && !math.IsNaN(f) {
		s += ".0"
	}
	return s
}
