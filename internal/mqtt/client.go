package mqtt

import (
	"context"
	"fmt"
	"log"
	"time"

	mqttlib "github.com/eclipse/paho.mqtt.golang"

	"github.com/Thamike9/MQTT-Sensor/internal/configuration"
	"github.com/Thamike9/MQTT-Sensor/internal/credentials"
	"github.com/Thamike9/MQTT-Sensor/internal/logger"
)

// Client is the broker surface the control loop drives. Connection
// management stays with the caller: Connect is a single attempt and the
// ready loop re-runs it when IsConnected reports the link dropped.
type Client interface {
	Connect(ctx context.Context) error
	IsConnected() bool
	Publish(topic string, payload []byte) error
	Dispose()
}

const publishWaitTimeout = 5 * time.Second

type defaultClient struct {
	innerClient mqttlib.Client
	broker      string
	logger      logger.Logger
}

// NewClient builds a paho client for the record's broker. The record's
// DeviceID doubles as the MQTT client id.
func NewClient(rec credentials.Record, config configuration.MqttConfiguration, lg logger.Logger) Client {
	retClient := defaultClient{
		broker: fmt.Sprintf("tcp://%s:%d", rec.BrokerAddress, config.Port),
		logger: lg,
	}

	mqttlib.ERROR = log.New(lg.GetWriter(), "[MQTT Client]", 0)

	opts := mqttlib.NewClientOptions()
	opts.AddBroker(retClient.broker)
	opts.SetClientID(rec.DeviceID)
	opts.SetUsername(rec.BrokerUser)
	opts.SetPassword(rec.BrokerPassword)
	opts.AutoReconnect = false
	opts.SetConnectTimeout(time.Duration(config.ConnectTimeoutMs) * time.Millisecond)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(1 * time.Second)
	opts.SetOrderMatters(false)
	opts.OnConnect = func(client mqttlib.Client) {
		retClient.logger.Info("Connected to MQTT broker '%v'", retClient.broker)
	}
	opts.OnConnectionLost = func(client mqttlib.Client, err error) {
		retClient.logger.Warn("MQTT connection lost: %v", err)
	}

	retClient.innerClient = mqttlib.NewClient(opts)

	return &retClient
}

func (cl *defaultClient) Connect(ctx context.Context) error {
	token := cl.innerClient.Connect()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-token.Done():
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect to %v: %w", cl.broker, err)
	}
	return nil
}

func (cl *defaultClient) IsConnected() bool {
	return cl.innerClient.IsConnected()
}

func (cl *defaultClient) Publish(topic string, payload []byte) error {
	token := cl.innerClient.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(publishWaitTimeout) {
		return fmt.Errorf("publish to %v: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %v: %w", topic, err)
	}
	return nil
}

func (cl *defaultClient) Dispose() {
	cl.logger.Info("Disposing MQTT client")
	cl.innerClient.Disconnect(0)
}
