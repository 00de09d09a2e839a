package configuration

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Default returns the compiled-in configuration. Values mirror the firmware
// constants the agent replaces: 5 s publish interval, 500 ms button
// debounce, GPIO 16, 5 s broker retry delay, access point named "Sensor AP".
func Default() Configuration {
	return Configuration{
		Store: StoreConfiguration{
			Path: "./data/config.txt",
		},
		Sensor: SensorConfiguration{
			Bus:     "",
			Address: 0x38,
		},
		Trigger: TriggerConfiguration{
			Chip:       "gpiochip0",
			Line:       16,
			DebounceMs: 500,
		},
		Mqtt: MqttConfiguration{
			Port:             1883,
			ReconnectDelayMs: 5000,
			ConnectTimeoutMs: 30000,
		},
		Portal: PortalConfiguration{
			APName:        "Sensor AP",
			ListenAddress: ":80",
			Interface:     "wlan0",
			TimeoutMs:     0,
		},
		Agent: AgentConfiguration{
			PublishIntervalMs: 5000,
			LoopTickMs:        100,
		},
		Diagnostics: DiagnosticsConfiguration{
			SerialPort: "",
			BaudRate:   115200,
		},
		LogLevel: LogLevelDefault,
	}
}

const LogLevelDefault = 2 // error

// Init loads the configuration file over the defaults. A missing file is
// not an error; the agent runs on defaults alone.
func Init(filename string) (*Configuration, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if os.IsNotExist(err) {
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read configuration file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse configuration file %v: %w", filename, err)
	}

	return &cfg, nil
}
