// Package mqtt mirrors application state changes to an MQTT broker, one retained topic per
// property.
package mqtt

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/robertof/go-stylus-bridge/state"
)

// ClientAPI is the minimal surface area the publisher needs.
type ClientAPI interface {
	PublishWith(topic string, payload []byte, retain bool) error
}

type Client struct {
	cli mqtt.Client
}

// Connect dials the broker. brokerURL accepts mqtt://, tcp://, ssl://, tls://, ws:// and wss://
// schemes, with optional user info.
func Connect(brokerURL, clientID string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(brokerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid broker URL: %w", err)
	}

	opts := mqtt.NewClientOptions()
	server := u.Host

	switch u.Scheme {
	case "mqtt", "tcp":
		server = "tcp://" + server
	case "ssl", "tls":
		server = "ssl://" + server
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	case "ws", "wss":
		server = u.Scheme + "://" + server + u.Path
	default:
		return nil, fmt.Errorf("unsupported broker URL scheme %q", u.Scheme)
	}

	opts.AddBroker(server)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(timeout)
	opts.OnConnect = func(c mqtt.Client) {
		log.Info().Str("Broker", server).Msg("mqtt: connected")
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		log.Error().Err(err).Str("Broker", server).Msg("mqtt: connection lost")
	}

	if u.User != nil {
		pw, _ := u.User.Password()
		opts.SetUsername(u.User.Username())
		opts.SetPassword(pw)
	}

	cli := mqtt.NewClient(opts)

	if t := cli.Connect(); !t.WaitTimeout(timeout) {
		return nil, fmt.Errorf("timed out connecting to broker %s", server)
	} else if t.Error() != nil {
		return nil, fmt.Errorf("failed to connect to broker %s: %w", server, t.Error())
	}

	return &Client{cli: cli}, nil
}

func (c *Client) PublishWith(topic string, payload []byte, retain bool) error {
	t := c.cli.Publish(topic, 1, retain, payload)
	if t.Wait() && t.Error() != nil {
		return t.Error()
	}
	return nil
}

func (c *Client) Close() {
	c.cli.Disconnect(250)
}

type message struct {
	Property state.Property `json:"property"`
	Value    any            `json:"value"`
	At       time.Time      `json:"at"`
}

// Publisher is a state.Publisher. Publishing happens on its own goroutine so that a slow broker
// never holds up the state loop; changes are dropped when the buffer is full.
type Publisher struct {
	client ClientAPI
	prefix string
	queue  chan state.Change
	done   chan struct{}
}

func NewPublisher(client ClientAPI, topicPrefix string, buffer int) *Publisher {
	p := &Publisher{
		client: client,
		prefix: strings.TrimSuffix(topicPrefix, "/"),
		queue:  make(chan state.Change, buffer),
		done:   make(chan struct{}),
	}

	go p.run()

	return p
}

func (p *Publisher) Topic(prop state.Property) string {
	return p.prefix + "/state/" + strings.ToLower(string(prop))
}

func (p *Publisher) Publish(c state.Change) {
	select {
	case p.queue <- c:
	default:
		log.Warn().Stringer("Change", c).Msg("mqtt: publish queue full, dropping change")
	}
}

// Close stops the publisher after the queued changes are sent.
func (p *Publisher) Close() {
	close(p.queue)
	<-p.done
}

func (p *Publisher) run() {
	defer close(p.done)

	for c := range p.queue {
		payload, err := json.Marshal(message{Property: c.Property, Value: c.Value, At: c.At.UTC()})
		if err != nil {
			log.Error().Err(err).Stringer("Change", c).Msg("mqtt: failed to encode change")
			continue
		}

		if err := p.client.PublishWith(p.Topic(c.Property), payload, true); err != nil {
			log.Warn().Err(err).Stringer("Change", c).Msg("mqtt: failed to publish change")
		}
	}
}
