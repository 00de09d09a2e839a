package provisioning

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Thamike9/MQTT-Sensor/internal/configuration"
	"github.com/Thamike9/MQTT-Sensor/internal/logger"
)

type runnerCall struct {
	name string
	args []string
}

func newTestNMCli(out string, err error) (*NMCli, *[]runnerCall) {
	calls := &[]runnerCall{}
	n := NewNMCli(configuration.PortalConfiguration{Interface: "wlan0"},
		logger.New("[network]", logger.LogLevelDebug, io.Discard))
	n.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, runnerCall{name, args})
		return []byte(out), err
	}
	return n, calls
}

func TestReconnectCommand(t *testing.T) {
	n, calls := newTestNMCli("", nil)

	err := n.Reconnect(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, []runnerCall{
		{"nmcli", []string{"device", "connect", "wlan0"}},
	}, *calls)
}

func TestStartAccessPointCommandsAndAddress(t *testing.T) {
	n, calls := newTestNMCli("10.42.0.1/24\n", nil)

	addr, err := n.StartAccessPoint(context.Background(), "Sensor AP")

	assert.NoError(t, err)
	assert.Equal(t, "10.42.0.1", addr)
	assert.Equal(t, []runnerCall{
		{"nmcli", []string{"device", "wifi", "hotspot",
			"ifname", "wlan0", "con-name", "sensor-portal", "ssid", "Sensor AP"}},
		{"nmcli", []string{"-g", "IP4.ADDRESS", "device", "show", "wlan0"}},
	}, *calls)
}

func TestStopAccessPointCommand(t *testing.T) {
	n, calls := newTestNMCli("", nil)

	err := n.StopAccessPoint(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, []runnerCall{
		{"nmcli", []string{"connection", "down", "sensor-portal"}},
	}, *calls)
}

func TestJoinWithPassphrase(t *testing.T) {
	n, calls := newTestNMCli("", nil)

	err := n.Join(context.Background(), "home-net", "wifipass")

	assert.NoError(t, err)
	assert.Equal(t, []runnerCall{
		{"nmcli", []string{"device", "wifi", "connect", "home-net",
			"ifname", "wlan0", "password", "wifipass"}},
	}, *calls)
}

func TestJoinOpenNetworkOmitsPassword(t *testing.T) {
	n, calls := newTestNMCli("", nil)

	err := n.Join(context.Background(), "open-net", "")

	assert.NoError(t, err)
	assert.Equal(t, []runnerCall{
		{"nmcli", []string{"device", "wifi", "connect", "open-net", "ifname", "wlan0"}},
	}, *calls)
}

func TestCommandFailureIncludesOutput(t *testing.T) {
	n, _ := newTestNMCli("Error: No network with SSID 'home-net' found.\n", errors.New("exit status 10"))

	err := n.Join(context.Background(), "home-net", "wifipass")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "No network with SSID")
}

func TestAPAddressParsing(t *testing.T) {
	assert.Equal(t, "10.42.0.1", apAddress("10.42.0.1/24\n"))
	assert.Equal(t, "10.42.0.1", apAddress("10.42.0.1/24\n192.168.4.1/24\n"))
	assert.Equal(t, "10.42.0.1", apAddress("10.42.0.1"))
	assert.Equal(t, "", apAddress(""))
}
