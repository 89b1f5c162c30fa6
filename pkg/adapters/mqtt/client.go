package mqtt

import (
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// ConnectTimeoutError indicates connection timed out.
type ConnectTimeoutError struct {
	Broker string
}

func (e *ConnectTimeoutError) Error() string {
	return "mqtt connect timeout: " + e.Broker
}

// NewClient creates a client for broker that reconnects on its own but does not connect yet.
func NewClient(broker, clientID string) paho.Client {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second)

	return paho.NewClient(opts)
}

// Connect attempts to connect to the broker.
// Returns an error if connection fails, but does not block indefinitely.
func Connect(client paho.Client, broker string) error {
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return &ConnectTimeoutError{Broker: broker}
	}
	return token.Error()
}
