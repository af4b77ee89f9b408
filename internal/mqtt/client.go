package mqtt

import (
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"tirep/internal/config"
)

const defaultTimeout = 10 * time.Second

// Subscriber is the broker side a Listener needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler paho.MessageHandler) error
}

type subscription struct {
	qos     byte
	handler paho.MessageHandler
}

// Client wraps a paho client. Subscriptions are replayed after every
// reconnect since sessions are clean.
type Client struct {
	client  paho.Client
	broker  string
	timeout time.Duration
	log     *zap.Logger

	mu   sync.Mutex
	subs map[string]subscription
}

// NewClient creates a client for cfg but does not connect.
func NewClient(cfg config.MQTT, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		broker:  cfg.Broker,
		timeout: timeout,
		log:     log.With(zap.String("broker", cfg.Broker)),
		subs:    map[string]subscription{},
	}
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			c.log.Warn("mqtt connection lost", zap.Error(err))
		}).
		SetOnConnectHandler(func(pc paho.Client) {
			c.resubscribe(pc)
		})
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	c.client = paho.NewClient(opts)
	return c
}

// Connect attempts to connect to the broker, giving up after the configured
// timeout.
func (c *Client) Connect() error {
	token := c.client.Connect()
	if !token.WaitTimeout(c.timeout) {
		return &ConnectTimeoutError{Broker: c.broker}
	}
	return token.Error()
}

// Subscribe subscribes to a topic and remembers it for reconnects.
func (c *Client) Subscribe(topic string, qos byte, handler paho.MessageHandler) error {
	token := c.client.Subscribe(topic, qos, handler)
	if !token.WaitTimeout(c.timeout) {
		return &SubscribeTimeoutError{Topic: topic}
	}
	if err := token.Error(); err != nil {
		return err
	}
	c.mu.Lock()
	c.subs[topic] = subscription{qos: qos, handler: handler}
	c.mu.Unlock()
	return nil
}

func (c *Client) resubscribe(pc paho.Client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for topic, s := range c.subs {
		token := pc.Subscribe(topic, s.qos, s.handler)
		go func(topic string) {
			if token.WaitTimeout(c.timeout) && token.Error() != nil {
				c.log.Error("mqtt resubscribe failed", zap.String("topic", topic), zap.Error(token.Error()))
			}
		}(topic)
	}
}

// Disconnect cleanly disconnects from the broker.
func (c *Client) Disconnect() {
	c.client.Disconnect(1000)
}

func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}

// ConnectTimeoutError indicates connection timed out.
type ConnectTimeoutError struct {
	Broker string
}

func (e *ConnectTimeoutError) Error() string {
	return "mqtt connect timeout: " + e.Broker
}

// SubscribeTimeoutError indicates subscription timed out.
type SubscribeTimeoutError struct {
	Topic string
}

func (e *SubscribeTimeoutError) Error() string {
	return "mqtt subscribe timeout: " + e.Topic
}
