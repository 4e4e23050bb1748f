// Package mqtt publishes history updates to an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Comcast/tale/config"
	"github.com/Comcast/tale/core"
	"github.com/Comcast/tale/logs"
	"github.com/Comcast/tale/notify"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher is the part of an mqtt.Client a Notifier uses.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Notifier is a notify.Notifier that publishes each Event as JSON.
type Notifier struct {
	Client Publisher

	// Topic may end in ":QOS".
	Topic string

	// Session, if not empty, is added to the topic as a final
	// level.
	Session string

	Retained bool

	// Timeout bounds the wait for each publication.
	Timeout time.Duration

	Logger *slog.Logger
}

// message is the published payload.
type message struct {
	notify.Event
	Session string `json:"session,omitempty"`
	At      string `json:"at"`
}

func (n *Notifier) Notify(ctx context.Context, e notify.Event) {
	log := logs.Or(n.Logger)

	topic, qos := parseTopic(n.Topic)
	if n.Session != "" {
		topic = strings.TrimSuffix(topic, "/") + "/" + n.Session
	}

	js, err := json.Marshal(message{
		Event:   e,
		Session: n.Session,
		At:      core.Timestamp(),
	})
	if err != nil {
		log.Error("mqtt marshal", "error", err)
		return
	}

	timeout := n.Timeout
	if timeout <= 0 {
		timeout = time.Second
	}

	token := n.Client.Publish(topic, qos, n.Retained, js)
	if !token.WaitTimeout(timeout) {
		log.Warn("mqtt publish timed out", "topic", topic)
		return
	}
	if err := token.Error(); err != nil {
		log.Error("mqtt publish", "topic", topic, "error", err)
		return
	}
	log.Debug("mqtt published", "topic", topic, "title", e.Title)
}

// Dial connects to the broker named in cfg.
func Dial(ctx context.Context, cfg config.MQTT, logger *slog.Logger) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetKeepAlive(10 * time.Second)
	opts.Username = cfg.Username
	opts.Password = cfg.Password
	opts.AutoReconnect = true
	opts.CleanSession = true

	log := logs.Or(logger)
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		log.Warn("mqtt connection lost", "error", err)
	}

	c := mqtt.NewClient(opts)
	log.Info("connecting to broker", "broker", cfg.Broker)
	token := c.Connect()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-wait(token):
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, err)
	}
	return c, nil
}

func wait(t mqtt.Token) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		t.Wait()
		close(done)
	}()
	return done
}

// parseTopic extracts the QoS from a topic of the form TOPIC:QOS.
func parseTopic(s string) (string, byte) {
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return s, 0
	}
	switch s[i+1:] {
	case "0":
		return s[:i], 0
	case "1":
		return s[:i], 1
	case "2":
		return s[:i], 2
	}
	return s, 0
}
