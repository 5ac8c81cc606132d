package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	connTimeout   = 10 * time.Second
	reconnTimeout = 1 * time.Second
)

var (
	errPublishTimeout     = errors.New("failed to publish due to timeout reached")
	errSubscribeTimeout   = errors.New("failed to subscribe due to timeout reached")
	errUnsubscribeTimeout = errors.New("failed to unsubscribe due to timeout reached")
	errEmptyTopic         = errors.New("empty topic")
	errEmptyID            = errors.New("empty ID")
)

type Handler func(topic string, msg map[string]any) error

// PubSub is the coordination event bus. The coordinator publishes session
// transitions, gradient admissions and finalize notifications so that
// dashboards and chain watchers can follow along without polling.
type PubSub interface {
	Publish(ctx context.Context, topic string, msg any) error
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Unsubscribe(ctx context.Context, topic string) error
	Disconnect(ctx context.Context) error
}

type pubsub struct {
	client  mqtt.Client
	qos     byte
	timeout time.Duration
	logger  *slog.Logger
}

func NewPubSub(url string, qos byte, id, username, password string, timeout time.Duration, logger *slog.Logger) (PubSub, error) {
	if id == "" {
		return nil, errEmptyID
	}

	opts := mqtt.NewClientOptions().
		AddBroker(url).
		SetClientID(id).
		SetUsername(username).
		SetPassword(password).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectTimeout(connTimeout).
		SetMaxReconnectInterval(reconnTimeout).
		SetOnConnectHandler(func(mqtt.Client) {
			logger.Info("mqtt connection established", slog.String("client_id", id))
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Warn("mqtt connection lost", slog.String("client_id", id), slog.Any("error", err))
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, errors.New("failed to connect to mqtt broker due to timeout reached")
	}
	if token.Error() != nil {
		return nil, token.Error()
	}

	return &pubsub{
		client:  client,
		qos:     qos,
		timeout: timeout,
		logger:  logger,
	}, nil
}

func (p *pubsub) Publish(_ context.Context, topic string, msg any) error {
	if topic == "" {
		return errEmptyTopic
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	token := p.client.Publish(topic, p.qos, false, data)
	if !token.WaitTimeout(p.timeout) {
		return errPublishTimeout
	}

	return token.Error()
}

func (p *pubsub) Subscribe(_ context.Context, topic string, handler Handler) error {
	if topic == "" {
		return errEmptyTopic
	}

	cb := func(_ mqtt.Client, m mqtt.Message) {
		var msg map[string]any
		if err := json.Unmarshal(m.Payload(), &msg); err != nil {
			p.logger.Warn("failed to unmarshal message", slog.String("topic", m.Topic()), slog.Any("error", err))

			return
		}
		if err := handler(m.Topic(), msg); err != nil {
			p.logger.Warn("message handler failed", slog.String("topic", m.Topic()), slog.Any("error", err))
		}
	}

	token := p.client.Subscribe(topic, p.qos, cb)
	if !token.WaitTimeout(p.timeout) {
		return errSubscribeTimeout
	}

	return token.Error()
}

func (p *pubsub) Unsubscribe(_ context.Context, topic string) error {
	if topic == "" {
		return errEmptyTopic
	}

	token := p.client.Unsubscribe(topic)
	if !token.WaitTimeout(p.timeout) {
		return errUnsubscribeTimeout
	}

	return token.Error()
}

func (p *pubsub) Disconnect(_ context.Context) error {
	p.client.Disconnect(uint(p.timeout.Milliseconds()))

	return nil
}
