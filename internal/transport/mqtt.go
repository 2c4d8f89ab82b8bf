// Package transport connects the engine to the MQTT broker: one client
// per bank identity, each subscribed to its own request subtrees and
// feeding deliveries into the message router.
package transport

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/mobilewallet/bankd/internal/logging"
	"github.com/mobilewallet/bankd/internal/wire"
)

const (
	connectTimeout    = 10 * time.Second
	disconnectQuiesce = 250 // milliseconds, paho's own unit
)

// Router is the engine-side message entry point.
type Router interface {
	HandleMessage(ctx context.Context, topic string, payload []byte)
}

// BankClient is one bank identity's connection. Deliveries arrive one
// at a time per client (paho preserves in-order handler invocation),
// which gives the one-logical-worker-per-bank model for free.
type BankClient struct {
	bic       string
	shortName string
	qos       byte
	client    mqtt.Client
	router    Router
}

func NewBankClient(brokerURL, shortName, bic string, qos byte, router Router) *BankClient {
	bc := &BankClient{
		bic:       bic,
		shortName: shortName,
		qos:       qos,
		router:    router,
	}

	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(shortName).
		SetCleanSession(true).
		SetConnectTimeout(connectTimeout).
		SetConnectionLostHandler(bc.onConnectionLost)

	bc.client = mqtt.NewClient(opts)
	return bc
}

func (bc *BankClient) BIC() string {
	return bc.bic
}

func (bc *BankClient) Connect() error {
	if token := bc.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("Connect: %s: %w", bc.bic, token.Error())
	}

	for _, topic := range wire.SubscriptionTopics(bc.bic) {
		if token := bc.client.Subscribe(topic, bc.qos, bc.onMessage); token.Wait() && token.Error() != nil {
			return fmt.Errorf("Connect: subscribe %s: %w", topic, token.Error())
		}
	}

	logging.ForBank(bc.bic).Info("bank client connected")
	return nil
}

func (bc *BankClient) Disconnect() {
	bc.client.Disconnect(disconnectQuiesce)
	logging.ForBank(bc.bic).Info("bank client disconnected")
}

func (bc *BankClient) IsConnected() bool {
	return bc.client.IsConnected()
}

// Publish satisfies the engine's Publisher.
func (bc *BankClient) Publish(topic string, payload []byte) error {
	token := bc.client.Publish(topic, bc.qos, false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("Publish: %s: %w", topic, token.Error())
	}
	return nil
}

func (bc *BankClient) onMessage(_ mqtt.Client, msg mqtt.Message) {
	log := logging.ForBank(bc.bic)
	ctx := logging.WithLogger(context.Background(), log)
	bc.router.HandleMessage(ctx, msg.Topic(), msg.Payload())
}

func (bc *BankClient) onConnectionLost(_ mqtt.Client, err error) {
	logging.ForBank(bc.bic).Error("lost connection with broker", "error", err)
}
