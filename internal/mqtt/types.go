package mqtt

import (
	"fmt"
	"time"
)

// RetryPolicy bounds the blocking join to the broker: a fixed delay between
// attempts, MaxAttempts 0 meaning retry forever.
type RetryPolicy struct {
	Delay       time.Duration
	MaxAttempts int
}

// Sample is one measurement bound for the broker.
type Sample struct {
	DeviceID    string
	Temperature float64
	Humidity    float64
}

// payloadCapacity is the fixed formatting buffer the payload is assembled
// into; renderings that would overflow it are cut at the boundary.
const payloadCapacity = 100

// Payload renders the fixed JSON shape with two decimal places. The result
// never exceeds payloadCapacity-1 bytes.
func (s Sample) Payload() []byte {
	p := fmt.Sprintf(`{"device_id": "%s", "temperature": %.2f, "humidity": %.2f}`,
		s.DeviceID, s.Temperature, s.Humidity)
	if len(p) > payloadCapacity-1 {
		p = p[:payloadCapacity-1]
	}
	return []byte(p)
}
