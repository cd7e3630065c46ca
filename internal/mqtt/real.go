package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/airmon/internal/datalog"
)

// Options configures a RealPublisher.
type Options struct {
	Broker   string
	ClientID string
	Topics   Topics

	// Backlog is how many messages are kept while disconnected.
	Backlog int
	// Timeout bounds each publish so the scheduler never waits long.
	Timeout time.Duration
}

// Defaults for Options.
const (
	DefaultBacklog = 256
	DefaultTimeout = 500 * time.Millisecond
)

// client is the part of paho.Client the publisher uses.
type client interface {
	IsConnectionOpen() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// RealPublisher publishes to a broker. Messages published while the
// connection is down are kept in a backlog and sent on reconnect.
type RealPublisher struct {
	client  client
	topics  Topics
	timeout time.Duration

	mu      sync.Mutex
	backlog *backlog
	lost    bool
}

func newPublisher(c client, opts Options) *RealPublisher {
	if opts.Backlog <= 0 {
		opts.Backlog = DefaultBacklog
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &RealPublisher{
		client:  c,
		topics:  opts.Topics,
		timeout: opts.Timeout,
		backlog: newBacklog(opts.Backlog),
	}
}

// NewRealPublisher creates a publisher and starts connecting in the
// background. It does not wait for the broker.
func NewRealPublisher(opts Options) *RealPublisher {
	p := newPublisher(nil, opts)

	will, _ := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})
	co := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetBinaryWill(p.topics.System, will, 1, true).
		SetOnConnectHandler(func(paho.Client) { p.flush() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
			p.mu.Lock()
			p.lost = true
			p.mu.Unlock()
		})

	c := paho.NewClient(co)
	p.client = c
	c.Connect()
	return p
}

// PublishRecord implements Publisher.
func (p *RealPublisher) PublishRecord(rec datalog.Record) error {
	payload, err := FormatRecordPayload(rec)
	if err != nil {
		return fmt.Errorf("format reading: %w", err)
	}
	return p.publish(pending{topic: p.topics.Readings, payload: payload})
}

// PublishSystem implements Publisher.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(pending{topic: p.topics.System, payload: payload, qos: 1, retained: event.Retained})
}

// publish sends m now if connected, otherwise queues it.
func (p *RealPublisher) publish(m pending) error {
	if !p.client.IsConnectionOpen() {
		p.mu.Lock()
		p.backlog.push(m)
		p.mu.Unlock()
		return nil
	}
	return p.send(m)
}

func (p *RealPublisher) send(m pending) error {
	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("publish %s: timeout", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", m.topic, err)
	}
	return nil
}

// flush runs on (re)connect: it announces a reconnect and sends the
// backlog oldest first.
func (p *RealPublisher) flush() {
	p.mu.Lock()
	msgs := p.backlog.drain()
	reconnected := p.lost
	p.lost = false
	p.mu.Unlock()

	if reconnected {
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
		if err := p.send(pending{topic: p.topics.System, payload: payload, qos: 1, retained: true}); err != nil {
			log.Printf("mqtt: %v", err)
		}
	}
	if len(msgs) > 0 {
		log.Printf("mqtt: connected, sending %d queued messages", len(msgs))
	}
	for _, m := range msgs {
		if err := p.send(m); err != nil {
			log.Printf("mqtt: %v", err)
		}
	}
}

// Queued returns the number of messages waiting for a connection.
func (p *RealPublisher) Queued() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.backlog.len()
}

// IsConnected implements ConnectionStatus.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000)
	return nil
}
