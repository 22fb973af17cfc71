package mqtt

import (
	"k1bridge/internal/config"
)

// Fixed device descriptor fields announced for every sensor.
const (
	Manufacturer = "Creality"
	Model        = "K1/K1 Max (WS Bridge)"
	DefaultIcon  = "mdi:printer-3d"
)

// DeviceInfo groups all sensors under one logical device in the hub.
type DeviceInfo struct {
	Identifiers  []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer"`
	Name         string   `json:"name"`
	Model        string   `json:"model"`
}

// DiscoveryConfig is the retained auto-registration record for one
// sensor. Optional metadata keys are omitted entirely when unset; the
// hub treats an empty string differently from an absent key.
type DiscoveryConfig struct {
	Name        string     `json:"name"`
	StateTopic  string     `json:"state_topic"`
	UniqueID    string     `json:"unique_id"`
	Device      DeviceInfo `json:"device"`
	Icon        string     `json:"icon"`
	Unit        string     `json:"unit_of_measurement,omitempty"`
	DeviceClass string     `json:"device_class,omitempty"`
	StateClass  string     `json:"state_class,omitempty"`
}

// StateTopic derives the value topic for a field.
func StateTopic(baseTopic, uid string) string {
	return baseTopic + "/state/" + uid
}

// DiscoveryTopic derives the auto-registration topic for a field.
func DiscoveryTopic(prefix, deviceID, uid string) string {
	return prefix + "/sensor/" + deviceID + "/" + uid + "/config"
}

// NewDiscoveryConfig builds the discovery record for one mapping.
func NewDiscoveryConfig(m config.Mapping, deviceID, deviceName, baseTopic string) DiscoveryConfig {
	icon := m.Icon
	if icon == "" {
		icon = DefaultIcon
	}
	return DiscoveryConfig{
		Name:       m.Name,
		StateTopic: StateTopic(baseTopic, m.UniqueID),
		UniqueID:   m.UniqueID,
		Device: DeviceInfo{
			Identifiers:  []string{deviceID},
			Manufacturer: Manufacturer,
			Name:         deviceName,
			Model:        Model,
		},
		Icon:        icon,
		Unit:        m.Unit,
		DeviceClass: m.DeviceClass,
		StateClass:  m.StateClass,
	}
}
