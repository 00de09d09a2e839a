package credentials

import (
	"github.com/Thamike9/MQTT-Sensor/internal/logger"
)

// Field capacities. Stored values never exceed these; overlong values are
// truncated, never rejected.
const (
	BrokerAddressCapacity  = 40
	BrokerUserCapacity     = 40
	BrokerPasswordCapacity = 40
	PublishTopicCapacity   = 64
	DeviceIDCapacity       = 40
)

// Record is the five-field credential and identity bundle persisted across
// restarts. The store reads and writes the fields positionally, so the
// field order here is fixed.
type Record struct {
	BrokerAddress  string
	BrokerUser     string
	BrokerPassword string
	PublishTopic   string
	DeviceID       string
}

func Defaults() Record {
	return Record{
		BrokerAddress:  "default.mqtt.server",
		BrokerUser:     "defaultuser",
		BrokerPassword: "defaultpass",
		PublishTopic:   "sensor/aht20",
		DeviceID:       "ESP8266Client",
	}
}

// Clamped returns a copy with every field truncated to its capacity.
func (r Record) Clamped() Record {
	r.BrokerAddress = truncate(r.BrokerAddress, BrokerAddressCapacity)
	r.BrokerUser = truncate(r.BrokerUser, BrokerUserCapacity)
	r.BrokerPassword = truncate(r.BrokerPassword, BrokerPasswordCapacity)
	r.PublishTopic = truncate(r.PublishTopic, PublishTopicCapacity)
	r.DeviceID = truncate(r.DeviceID, DeviceIDCapacity)
	return r
}

// Dump emits the full configuration to the diagnostic log.
func (r Record) Dump(log logger.Logger) {
	log.Info("=== Current Configuration ===")
	log.Info("MQTT Server: %v", r.BrokerAddress)
	log.Info("MQTT User: %v", r.BrokerUser)
	log.Info("MQTT Password: %v", r.BrokerPassword) // Caution: printing passwords is a potential security risk
	log.Info("MQTT Topic: %v", r.PublishTopic)
	log.Info("Device ID: %v", r.DeviceID)
	log.Info("=============================")
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
