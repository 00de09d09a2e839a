package provisioning

import (
	"context"

	"github.com/Thamike9/MQTT-Sensor/internal/credentials"
)

// APInfo describes the fallback access point once it is up.
type APInfo struct {
	Name    string
	Address string
}

// Portal collects network and broker credentials. Run tries a silent rejoin
// of a previously known network first; when that fails, or when force is
// set, it opens the access-point fallback and waits for a human. Any path
// that ends without a joined network returns an error.
type Portal interface {
	SetAccessPointCallback(cb func(APInfo))
	Run(ctx context.Context, current credentials.Record, force bool) (credentials.Record, error)
}

// NetworkManager is the wireless side of the portal. The concrete
// implementation drives the system NetworkManager through nmcli.
type NetworkManager interface {
	Reconnect(ctx context.Context) error
	StartAccessPoint(ctx context.Context, name string) (string, error)
	StopAccessPoint(ctx context.Context) error
	Join(ctx context.Context, ssid, psk string) error
}
