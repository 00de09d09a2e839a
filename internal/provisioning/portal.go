package provisioning

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Thamike9/MQTT-Sensor/internal/configuration"
	"github.com/Thamike9/MQTT-Sensor/internal/credentials"
	"github.com/Thamike9/MQTT-Sensor/internal/logger"
)

// ConfigPortal implements Portal over a NetworkManager and a local HTTP
// form server.
type ConfigPortal struct {
	cfg     configuration.PortalConfiguration
	network NetworkManager
	logger  logger.Logger
	apCb    func(APInfo)
}

func NewConfigPortal(cfg configuration.PortalConfiguration, network NetworkManager, log logger.Logger) *ConfigPortal {
	return &ConfigPortal{
		cfg:     cfg,
		network: network,
		logger:  log,
	}
}

func (p *ConfigPortal) SetAccessPointCallback(cb func(APInfo)) {
	p.apCb = cb
}

func (p *ConfigPortal) Run(ctx context.Context, current credentials.Record, force bool) (credentials.Record, error) {
	if !force {
		err := p.network.Reconnect(ctx)
		if err == nil {
			p.logger.Info("Rejoined known network.")
			return current, nil
		}
		p.logger.Warn("Silent rejoin failed: %v", err)
	}

	ln, err := net.Listen("tcp", p.cfg.ListenAddress)
	if err != nil {
		return current, fmt.Errorf("portal listener: %w", err)
	}
	return p.serve(ctx, current, ln)
}

// serve runs the access-point fallback: AP up, form served, first
// submission wins, AP down, join. The listener is passed in so tests can
// bind an ephemeral port.
func (p *ConfigPortal) serve(ctx context.Context, current credentials.Record, ln net.Listener) (credentials.Record, error) {
	defer ln.Close()

	apAddr, err := p.network.StartAccessPoint(ctx, p.cfg.APName)
	if err != nil {
		return current, fmt.Errorf("start access point: %w", err)
	}
	if p.apCb != nil {
		p.apCb(APInfo{Name: p.cfg.APName, Address: apAddr})
	}

	form := &portalForm{
		apName:  p.cfg.APName,
		current: current,
		submits: make(chan submission, 1),
		logger:  p.logger,
	}
	mux := http.NewServeMux()
	form.register(mux)

	server := &http.Server{Handler: mux}
	serveErr := make(chan error, 1)
	go func() {
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()
	defer server.Shutdown(context.Background())

	var timeoutCh <-chan time.Time
	if p.cfg.TimeoutMs > 0 {
		timer := time.NewTimer(time.Duration(p.cfg.TimeoutMs) * time.Millisecond)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	stopAP := func() {
		if err := p.network.StopAccessPoint(context.Background()); err != nil {
			p.logger.Warn("Failed to stop access point: %v", err)
		}
	}

	var sub submission
	select {
	case sub = <-form.submits:
	case <-timeoutCh:
		stopAP()
		return current, errors.New("portal timed out without a submission")
	case err := <-serveErr:
		stopAP()
		return current, fmt.Errorf("portal server: %w", err)
	case <-ctx.Done():
		stopAP()
		return current, ctx.Err()
	}

	p.logger.Info("Portal submission received, joining network '%v'", sub.ssid)
	stopAP()

	if err := p.network.Join(ctx, sub.ssid, sub.psk); err != nil {
		return current, err
	}
	return sub.rec, nil
}
