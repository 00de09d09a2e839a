package provisioning

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/Thamike9/MQTT-Sensor/internal/configuration"
	"github.com/Thamike9/MQTT-Sensor/internal/logger"
)

// hotspotConnectionName is the nmcli connection profile the access point
// runs under, so it can be torn down by name.
const hotspotConnectionName = "sensor-portal"

type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// NMCli drives the system NetworkManager over its command line client. It
// assumes a single wireless interface and wpa-psk networks.
type NMCli struct {
	iface  string
	logger logger.Logger
	run    commandRunner
}

func NewNMCli(cfg configuration.PortalConfiguration, log logger.Logger) *NMCli {
	return &NMCli{
		iface:  cfg.Interface,
		logger: log,
		run:    runCommand,
	}
}

// Reconnect brings the interface up on whatever connection NetworkManager
// last knew for it.
func (n *NMCli) Reconnect(ctx context.Context) error {
	out, err := n.run(ctx, "nmcli", "device", "connect", n.iface)
	if err != nil {
		return fmt.Errorf("reconnect %v: %w (%v)", n.iface, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// StartAccessPoint opens a hotspot with the given SSID and returns the
// IPv4 address it is reachable on.
func (n *NMCli) StartAccessPoint(ctx context.Context, name string) (string, error) {
	out, err := n.run(ctx, "nmcli", "device", "wifi", "hotspot",
		"ifname", n.iface, "con-name", hotspotConnectionName, "ssid", name)
	if err != nil {
		return "", fmt.Errorf("start access point: %w (%v)", err, strings.TrimSpace(string(out)))
	}

	out, err = n.run(ctx, "nmcli", "-g", "IP4.ADDRESS", "device", "show", n.iface)
	if err != nil {
		return "", fmt.Errorf("read access point address: %w (%v)", err, strings.TrimSpace(string(out)))
	}
	return apAddress(string(out)), nil
}

func (n *NMCli) StopAccessPoint(ctx context.Context) error {
	out, err := n.run(ctx, "nmcli", "connection", "down", hotspotConnectionName)
	if err != nil {
		return fmt.Errorf("stop access point: %w (%v)", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Join connects to the submitted network. An empty passphrase joins an
// open network.
func (n *NMCli) Join(ctx context.Context, ssid, psk string) error {
	args := []string{"device", "wifi", "connect", ssid, "ifname", n.iface}
	if psk != "" {
		args = append(args, "password", psk)
	}
	out, err := n.run(ctx, "nmcli", args...)
	if err != nil {
		return fmt.Errorf("join network %v: %w (%v)", ssid, err, strings.TrimSpace(string(out)))
	}
	n.logger.Info("Joined network '%v'", ssid)
	return nil
}

// apAddress extracts the bare IPv4 address from nmcli's "10.42.0.1/24"
// output form. Only the first address matters for the portal banner.
func apAddress(out string) string {
	addr := strings.TrimSpace(out)
	if i := strings.IndexByte(addr, '\n'); i >= 0 {
		addr = strings.TrimSpace(addr[:i])
	}
	if i := strings.IndexByte(addr, '/'); i >= 0 {
		addr = addr[:i]
	}
	return addr
}
