package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"time"

	"github.com/Thamike9/MQTT-Sensor/internal/agent"
	"github.com/Thamike9/MQTT-Sensor/internal/configuration"
	"github.com/Thamike9/MQTT-Sensor/internal/credentials"
	"github.com/Thamike9/MQTT-Sensor/internal/diagnostics"
	"github.com/Thamike9/MQTT-Sensor/internal/logger"
	"github.com/Thamike9/MQTT-Sensor/internal/mqtt"
	"github.com/Thamike9/MQTT-Sensor/internal/provisioning"
	"github.com/Thamike9/MQTT-Sensor/internal/sensor"
	"github.com/Thamike9/MQTT-Sensor/internal/trigger"
)

func main() {
	var configFile = flag.String("c", "./configuration.yaml", "path to config file name")
	flag.Parse()

	mainLogger := logger.GetLogger("[main]", logger.LogLevelError)

	cfg, err := configuration.Init(*configFile)
	if err != nil {
		mainLogger.Error("Configuration initialization error: %v\n", err)
		os.Exit(1)
	}

	out, err := diagnostics.Open(cfg.Diagnostics)
	if err != nil {
		mainLogger.Error("Diagnostics initialization error: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	mainLogger = logger.New("[main]", cfg.LogLevel, out.Writer())
	newLogger := func(prefix string) logger.Logger {
		return logger.New(prefix, cfg.LogLevel, out.Writer())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		waitForInterruptSignal()
		cancel()
	}()

	store := credentials.NewStore(cfg.Store.Path, newLogger("[config store]"))
	button := trigger.NewModeButton(cfg.Trigger, newLogger("[mode button]"))
	network := provisioning.NewNMCli(cfg.Portal, newLogger("[network]"))
	portal := provisioning.NewConfigPortal(cfg.Portal, network, newLogger("[portal]"))

	apLogger := newLogger("[portal]")
	portal.SetAccessPointCallback(func(info provisioning.APInfo) {
		apLogger.Info("Entered config mode")
		apLogger.Info("AP IP address: %v", info.Address)
		apLogger.Info("Connect to AP: %v", info.Name)
	})

	sensorLogger := newLogger("[sensor]")
	clientLogger := newLogger("[mqtt client]")

	newSensor := func() (sensor.Sensor, error) {
		return sensor.Open(cfg.Sensor, sensorLogger)
	}
	newClient := func(rec credentials.Record) mqtt.Client {
		return mqtt.NewClient(rec, cfg.Mqtt, clientLogger)
	}

	retry := mqtt.RetryPolicy{
		Delay: time.Duration(cfg.Mqtt.ReconnectDelayMs) * time.Millisecond,
	}

	a := agent.New(cfg.Agent, store, button, portal,
		newSensor, newClient, retry, newLogger("[agent]"))

	for {
		err := a.Run(ctx)
		if errors.Is(err, agent.ErrRestartRequested) && ctx.Err() == nil {
			mainLogger.Info("Restarting...")
			continue
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			mainLogger.Error("Agent stopped: %v\n", err)
			os.Exit(1)
		}
		break
	}

	mainLogger.Info("exiting app...")
}

func waitForInterruptSignal() {
	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, os.Interrupt)
	defer func() {
		signal.Stop(sigchan)
	}()
	<-sigchan
}
