package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/drone_dashboard/internal/dashboard"
)

const (
	mqttDisconnectQuiesce = 250 // milliseconds
	mqttPublishTimeout    = 5 * time.Second
	mqttWriteTimeout      = 2 * time.Second
)

// connectMQTT connects to broker with clientID and waits for the result.
func connectMQTT(log *slog.Logger, broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetWriteTimeout(mqttWriteTimeout).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Warn("mqtt: connection lost", "error", err)
		})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, token.Error())
	}
	log.Info("mqtt: connected", "broker", broker, "clientID", clientID)
	return client, nil
}

// publisher is the part of mqtt.Client the view publisher needs.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// viewPublisher renders every view as retained JSON on one topic, so a
// subscriber that joins late still gets the current state. Render only
// queues the latest payload; run does the publishing.
type viewPublisher struct {
	log    *slog.Logger
	client publisher
	topic  string

	mu      sync.Mutex
	pending []byte
	wake    chan struct{}
}

func newViewPublisher(log *slog.Logger, client publisher, topic string) *viewPublisher {
	return &viewPublisher{log: log, client: client, topic: topic, wake: make(chan struct{}, 1)}
}

// Render implements dashboard.Renderer. A view still queued when the next
// one arrives is replaced.
func (p *viewPublisher) Render(v dashboard.View) {
	payload, err := json.Marshal(v)
	if err != nil {
		p.log.Error("mqtt: view marshal error", "error", err)
		return
	}
	p.mu.Lock()
	if p.pending != nil {
		p.log.Debug("mqtt: stale view dropped", "topic", p.topic)
	}
	p.pending = payload
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *viewPublisher) take() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	payload := p.pending
	p.pending = nil
	return payload
}

// run publishes queued views until ctx is done.
func (p *viewPublisher) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-p.wake:
			payload := p.take()
			if payload == nil {
				continue
			}
			token := p.client.Publish(p.topic, 0, true, payload)
			if !token.WaitTimeout(mqttPublishTimeout) {
				p.log.Debug("mqtt: view publish timed out", "topic", p.topic)
				continue
			}
			if err := token.Error(); err != nil {
				p.log.Debug("mqtt: view publish error", "topic", p.topic, "error", err)
			}
		}
	}
}

// subscribeViews decodes every message on topic as a View and hands it to fn.
func subscribeViews(log *slog.Logger, client mqtt.Client, topic string, fn func(dashboard.View)) error {
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var v dashboard.View
		if err := json.Unmarshal(msg.Payload(), &v); err != nil {
			log.Warn("mqtt: view unmarshal error", "topic", topic, "error", err)
			return
		}
		fn(v)
	})
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("mqtt subscribe %s: %w", topic, token.Error())
	}
	log.Info("mqtt: subscribed", "topic", topic)
	return nil
}
