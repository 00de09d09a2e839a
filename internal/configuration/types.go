package configuration

type StoreConfiguration struct {
	Path string `yaml:"path"`
}

type SensorConfiguration struct {
	Bus     string `yaml:"bus"`
	Address uint16 `yaml:"address"`
}

type TriggerConfiguration struct {
	Chip       string `yaml:"chip"`
	Line       int    `yaml:"line"`
	DebounceMs int    `yaml:"debounce_ms"`
}

type MqttConfiguration struct {
	Port             uint16 `yaml:"port"`
	ReconnectDelayMs int    `yaml:"reconnect_delay_ms"`
	ConnectTimeoutMs int    `yaml:"connect_timeout_ms"`
}

type PortalConfiguration struct {
	APName        string `yaml:"ap_name"`
	ListenAddress string `yaml:"listen_address"`
	Interface     string `yaml:"interface"`
	TimeoutMs     int    `yaml:"timeout_ms"`
}

type AgentConfiguration struct {
	PublishIntervalMs int `yaml:"publish_interval_ms"`
	LoopTickMs        int `yaml:"loop_tick_ms"`
}

type DiagnosticsConfiguration struct {
	SerialPort string `yaml:"serial_port"`
	BaudRate   int    `yaml:"baud_rate"`
}

type Configuration struct {
	Store       StoreConfiguration       `yaml:"store"`
	Sensor      SensorConfiguration      `yaml:"sensor"`
	Trigger     TriggerConfiguration     `yaml:"trigger"`
	Mqtt        MqttConfiguration        `yaml:"mqtt"`
	Portal      PortalConfiguration      `yaml:"portal"`
	Agent       AgentConfiguration       `yaml:"agent"`
	Diagnostics DiagnosticsConfiguration `yaml:"diagnostics"`
	LogLevel    int                      `yaml:"loglevel"` // info=0, warn=1, error=2, debug=3
}
