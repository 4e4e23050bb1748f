package main

import (
	"context"
	"fmt"

	"github.com/Comcast/tale/config"
	"github.com/Comcast/tale/engine"
	"github.com/Comcast/tale/notify"
	"github.com/Comcast/tale/notify/mqtt"
	"github.com/Comcast/tale/storage"
	"github.com/Comcast/tale/storage/bolt"
	"github.com/Comcast/tale/storage/sqlite"
	"github.com/Comcast/tale/story"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// openSessions opens the configured session backend.
func openSessions(c config.Session) (storage.Sessions, error) {
	switch c.Backend {
	case config.Memory, "":
		return storage.NewMemorySessions(), nil
	case config.Bolt:
		s, err := bolt.NewStorage(c.Path)
		if err != nil {
			return nil, err
		}
		s.Logger = logger
		s.Debug = cfg.Debug
		if err = s.Open(); err != nil {
			return nil, fmt.Errorf("bolt %s: %w", c.Path, err)
		}
		return s, nil
	case config.SQLite:
		s, err := sqlite.New(c.Path)
		if err != nil {
			return nil, fmt.Errorf("sqlite %s: %w", c.Path, err)
		}
		return s, nil
	}
	return nil, &config.BadSetting{
		Name:    "session.backend",
		Problem: fmt.Sprintf("unknown backend %q", c.Backend),
	}
}

// broker is the shared MQTT connection, if one is configured.
type broker struct {
	client paho.Client
}

func dialBroker(ctx context.Context) (*broker, error) {
	if cfg.MQTT.Broker == "" {
		return &broker{}, nil
	}
	c, err := mqtt.Dial(ctx, cfg.MQTT, logger)
	if err != nil {
		return nil, err
	}
	return &broker{client: c}, nil
}

func (b *broker) notifier(session string) notify.Notifier {
	if b == nil || b.client == nil {
		return nil
	}
	return &mqtt.Notifier{
		Client:  b.client,
		Topic:   cfg.MQTT.Topic,
		Session: session,
		Logger:  logger,
	}
}

func (b *broker) Close() {
	if b != nil && b.client != nil {
		b.client.Disconnect(250)
	}
}

// newEngine makes an engine for one session and starts it.
func newEngine(ctx context.Context, st *story.Story, ss storage.Sessions, b *broker, id string, display func(context.Context, *engine.Page) error) (*engine.Engine, error) {
	ev, err := evaluator()
	if err != nil {
		return nil, err
	}
	e, err := engine.New(st, cfg, ev)
	if err != nil {
		return nil, err
	}
	if e.Session, err = ss.Session(ctx, id); err != nil {
		return nil, err
	}
	e.Notifier = b.notifier(id)
	e.Logger = logger.With("session", id)
	e.Display = display
	if err = e.Start(ctx); err != nil {
		return nil, err
	}
	return e, nil
}
