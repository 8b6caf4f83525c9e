package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"controlling_pod/internal/health"
	"controlling_pod/internal/logger"
	"controlling_pod/internal/models"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// DefaultTopic receives analysis requests.
const DefaultTopic = "pod/biometrics/analyze"

// Publisher is the subset of a broker client the trigger needs.
type Publisher interface {
	Publish(topic string, payload []byte) error
	IsConnected() bool
	Close()
}

// MQTTTrigger publishes analysis requests for a worker subscribed to topic.
type MQTTTrigger struct {
	pub   Publisher
	topic string
	log   *logger.Logger
}

func NewMQTTTrigger(pub Publisher, topic string, log *logger.Logger) *MQTTTrigger {
	if topic == "" {
		topic = DefaultTopic
	}
	return &MQTTTrigger{pub: pub, topic: topic, log: log}
}

func (t *MQTTTrigger) Analyze(_ context.Context, side models.Side, start, end time.Time) error {
	payload, err := json.Marshal(newRequest(side, start, end))
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	if err := t.pub.Publish(t.topic, payload); err != nil {
		return err
	}
	t.log.Infow("analysis_requested", "side", side, "topic", t.topic)
	return nil
}

// HealthRecord reports the broker connection.
func (t *MQTTTrigger) HealthRecord(context.Context) models.HealthRecord {
	rec := health.Blank(health.MQTT)
	if t.pub.IsConnected() {
		rec.Status = models.StatusHealthy
	} else {
		rec.Status, rec.Message = models.StatusFailed, "not connected to broker"
	}
	return rec
}

func (t *MQTTTrigger) Close() { t.pub.Close() }

// PahoPublisher publishes through an eclipse paho client.
type PahoPublisher struct {
	client paho.Client
}

// DialBroker connects to broker, retrying in the background if it is down.
func DialBroker(broker, clientID string) (*PahoPublisher, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return &PahoPublisher{client: client}, nil
}

func (p *PahoPublisher) Publish(topic string, payload []byte) error {
	// QoS 1: a lost request means a missing night of data
	token := p.client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func (p *PahoPublisher) IsConnected() bool { return p.client.IsConnectionOpen() }

func (p *PahoPublisher) Close() { p.client.Disconnect(1000) }
