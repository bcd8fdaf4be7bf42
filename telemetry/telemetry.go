// Package telemetry publishes gadget activity to an MQTT broker. Topics are
// relative to the prefix encoded in the broker URL path, e.g.
// mqtt://broker:1883/picomouse/desk1 publishes under picomouse/desk1/.
package telemetry

import (
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/GeorgeZeng997/pico-mouse/protocol"
)

// ConnectTimeout bounds the initial broker handshake.
const ConnectTimeout = 5 * time.Second

// Publisher forwards engine events to MQTT. All publishes are QoS 0 and
// fire-and-forget; a slow broker never stalls the control loop.
type Publisher struct {
	client paho.Client
	prefix string
	logger *slog.Logger
}

// ClientOptionsFromURL derives paho options and a topic prefix from a broker
// URL. The URL path, without its leading slash, becomes the prefix.
func ClientOptionsFromURL(brokerURL string) (*paho.ClientOptions, string, error) {
	u, err := url.Parse(brokerURL)
	if err != nil {
		return nil, "", err
	}
	scheme := u.Scheme
	if scheme == "" || scheme == "mqtt" {
		scheme = "tcp"
	}

	prefix := strings.TrimPrefix(u.Path, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(scheme + "://" + u.Host).
		SetAutoReconnect(true).
		SetCleanSession(true).
		SetConnectTimeout(ConnectTimeout)
	if u.User != nil {
		opts.SetUsername(u.User.Username())
		if pwd, ok := u.User.Password(); ok {
			opts.SetPassword(pwd)
		}
	}
	if clientID := u.Query().Get("client-id"); clientID != "" {
		opts.SetClientID(clientID)
	}
	return opts, prefix, nil
}

// Connect dials the broker described by brokerURL and returns a connected
// Publisher.
func Connect(brokerURL string, logger *slog.Logger) (*Publisher, error) {
	opts, prefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	p := &Publisher{
		client: paho.NewClient(opts),
		prefix: prefix,
		logger: logger,
	}
	token := p.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	logger.Info("telemetry connected", "broker", brokerURL)
	return p, nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() error {
	p.client.Disconnect(250)
	return nil
}

func (p *Publisher) pub(topic string, v any, retain bool) {
	payload, err := json.Marshal(v)
	if err != nil {
		p.logger.Debug("telemetry encode failed", "topic", topic, "error", err)
		return
	}
	p.client.Publish(p.prefix+topic, 0, retain, payload)
}

// CommandAccepted implements gadget.Events.
func (p *Publisher) CommandAccepted(cmd protocol.MotionCommand) {
	p.pub("command", map[string]any{
		"buttons": cmd.Buttons,
		"dx":      cmd.DX,
		"dy":      cmd.DY,
		"wheel":   cmd.Wheel,
		"pan":     cmd.Pan,
	}, false)
}

// CommandRejected implements gadget.Events.
func (p *Publisher) CommandRejected(err error) {
	p.pub("reject", map[string]any{"error": err.Error()}, false)
}

// SensitivityChanged implements gadget.Events. Retained so late subscribers
// see the current level.
func (p *Publisher) SensitivityChanged(level int) {
	p.pub("sensitivity", map[string]any{"level": level}, true)
}

// Attached publishes the host attach state, retained.
func (p *Publisher) Attached(v bool) {
	p.pub("attached", map[string]any{"attached": v}, true)
}
