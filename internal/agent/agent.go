package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Thamike9/MQTT-Sensor/internal/configuration"
	"github.com/Thamike9/MQTT-Sensor/internal/credentials"
	"github.com/Thamike9/MQTT-Sensor/internal/logger"
	"github.com/Thamike9/MQTT-Sensor/internal/mqtt"
	"github.com/Thamike9/MQTT-Sensor/internal/provisioning"
	"github.com/Thamike9/MQTT-Sensor/internal/sensor"
	"github.com/Thamike9/MQTT-Sensor/internal/trigger"
)

// ErrRestartRequested asks main to re-run the startup sequence from
// scratch, the host analogue of a firmware soft reset.
var ErrRestartRequested = errors.New("agent: restart requested")

// Store is the slice of the credentials store the agent drives.
type Store interface {
	Mount() error
	Load(current credentials.Record) (credentials.Record, bool)
	Save(rec credentials.Record) error
}

// SensorFactory opens the sensor; ClientFactory builds a broker client for
// the record the startup sequence settled on.
type SensorFactory func() (sensor.Sensor, error)
type ClientFactory func(rec credentials.Record) mqtt.Client

// Agent runs the whole device lifecycle on a single goroutine: the startup
// sequence once, then the ready loop until the context ends.
type Agent struct {
	cfg       configuration.AgentConfiguration
	store     Store
	trigger   trigger.Trigger
	portal    provisioning.Portal
	newSensor SensorFactory
	newClient ClientFactory
	retry     mqtt.RetryPolicy
	logger    logger.Logger
	sleep     func(time.Duration)
	now       func() time.Time
}

func New(
	cfg configuration.AgentConfiguration,
	store Store,
	button trigger.Trigger,
	portal provisioning.Portal,
	newSensor SensorFactory,
	newClient ClientFactory,
	retry mqtt.RetryPolicy,
	log logger.Logger,
) *Agent {
	return &Agent{
		cfg:       cfg,
		store:     store,
		trigger:   button,
		portal:    portal,
		newSensor: newSensor,
		newClient: newClient,
		retry:     retry,
		logger:    log,
		sleep:     time.Sleep,
		now:       time.Now,
	}
}

// Run executes one boot. It returns ErrRestartRequested when the boot must
// be re-run from scratch, or the context's error once it is cancelled.
func (a *Agent) Run(ctx context.Context) error {
	if err := a.store.Mount(); err != nil {
		a.logger.Warn("Config store unavailable: %v", err)
	}

	rec, found := a.store.Load(credentials.Defaults())
	if !found {
		a.logger.Info("Using default configuration...")
	}

	sens, err := a.newSensor()
	if err != nil {
		// Fail-stop: without the sensor there is nothing of value to do.
		a.logger.Error("Failed to find AHT20 sensor! %v", err)
		<-ctx.Done()
		return ctx.Err()
	}
	a.logger.Info("AHT20 sensor found.")
	defer func() {
		if c, ok := sens.(io.Closer); ok {
			c.Close()
		}
	}()

	if a.triggerPressed() {
		a.logger.Info("Mode button pressed during boot. Starting AP mode...")
		if _, err := a.provision(ctx, rec, true); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			a.logger.Warn("Forced provisioning did not complete: %v", err)
		}
		return ErrRestartRequested
	}

	rec, err = a.provision(ctx, rec, false)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		a.logger.Error("Failed to connect to WiFi. Restarting...")
		return ErrRestartRequested
	}

	client := a.newClient(rec)
	defer client.Dispose()

	if err := a.connectBroker(ctx, client); err != nil {
		return err
	}

	return a.readyLoop(ctx, client, sens, rec)
}

func (a *Agent) triggerPressed() bool {
	pressed, err := a.trigger.Pressed()
	if err != nil {
		a.logger.Warn("Mode button unavailable: %v", err)
		return false
	}
	return pressed
}

// provision runs the portal flow and, when it completes, persists whatever
// record it settled on. The silent-rejoin success path persists too; only
// a flow that ends without a joined network skips the save.
func (a *Agent) provision(ctx context.Context, current credentials.Record, force bool) (credentials.Record, error) {
	rec, err := a.portal.Run(ctx, current, force)
	if err != nil {
		return current, err
	}

	if err := a.store.Save(rec); err != nil {
		a.logger.Error("Failed to save config.")
	} else {
		a.logger.Info("Config saved successfully.")
	}
	rec.Dump(a.logger)
	return rec, nil
}

// connectBroker blocks until the client connects, retrying on the agent's
// policy. With MaxAttempts 0 it retries until the context ends.
func (a *Agent) connectBroker(ctx context.Context, client mqtt.Client) error {
	for attempt := 1; ; attempt++ {
		a.logger.Info("Connecting to MQTT...")
		err := client.Connect(ctx)
		if err == nil {
			a.logger.Info("Connected to MQTT.")
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		a.logger.Error("Failed MQTT connection: %v", err)
		if a.retry.MaxAttempts > 0 && attempt >= a.retry.MaxAttempts {
			return fmt.Errorf("mqtt connect: %w", err)
		}
		a.sleep(a.retry.Delay)
	}
}

func (a *Agent) readyLoop(ctx context.Context, client mqtt.Client, sens sensor.Sensor, rec credentials.Record) error {
	interval := time.Duration(a.cfg.PublishIntervalMs) * time.Millisecond
	tick := time.Duration(a.cfg.LoopTickMs) * time.Millisecond
	lastPublish := a.now()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if !client.IsConnected() {
			if err := a.connectBroker(ctx, client); err != nil {
				return err
			}
		}

		if a.now().Sub(lastPublish) > interval {
			a.publishSample(client, sens, rec)
			lastPublish = a.now()
		}

		a.sleep(tick)
	}
}

// publishSample reads the sensor once and publishes the formatted payload.
// A failed read skips this cycle's publish; the interval still advances.
func (a *Agent) publishSample(client mqtt.Client, sens sensor.Sensor, rec credentials.Record) {
	reading, err := sens.Read()
	if err != nil {
		a.logger.Error("Failed to read sensor: %v", err)
		return
	}

	payload := mqtt.Sample{
		DeviceID:    rec.DeviceID,
		Temperature: reading.Temperature,
		Humidity:    reading.Humidity,
	}.Payload()

	a.logger.Info("Publishing to MQTT: %v", string(payload))
	if err := client.Publish(rec.PublishTopic, payload); err != nil {
		a.logger.Error("Failed to publish: %v", err)
	}
}
